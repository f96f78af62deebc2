// Package status keeps the exported status records of live calls and fans
// changes out to subscribers.
package status

import (
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

type EventType string

const (
	EventPublished   EventType = "published"
	EventUnpublished EventType = "unpublished"
)

// Record is one exported call.
type Record struct {
	ID   domain.SessionID `json:"id"`
	Info domain.CallInfo  `json:"info"`
}

type Event struct {
	Type   EventType `json:"type"`
	Record Record    `json:"record"`
}

// Exporter is an in-memory core.StatusExporter.
type Exporter struct {
	mu      sync.RWMutex
	records map[domain.SessionID]domain.CallInfo

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
	buffer int
}

func NewExporter() *Exporter {
	return &Exporter{
		records: make(map[domain.SessionID]domain.CallInfo),
		subs:    make(map[int]chan Event),
		buffer:  16,
	}
}

func (e *Exporter) Publish(id domain.SessionID, info domain.CallInfo) {
	e.mu.Lock()
	e.records[id] = info
	e.mu.Unlock()
	log.Debug().Str("module", "status").Str("sid", string(id)).
		Bool("audio", info.ReceivingAudio).Bool("video", info.ReceivingVideo).Msg("published")
	e.broadcast(Event{Type: EventPublished, Record: Record{ID: id, Info: info}})
}

func (e *Exporter) Unpublish(id domain.SessionID) {
	e.mu.Lock()
	info, ok := e.records[id]
	delete(e.records, id)
	e.mu.Unlock()
	if !ok {
		return
	}
	log.Debug().Str("module", "status").Str("sid", string(id)).Msg("unpublished")
	e.broadcast(Event{Type: EventUnpublished, Record: Record{ID: id, Info: info}})
}

func (e *Exporter) Get(id domain.SessionID) (domain.CallInfo, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	info, ok := e.records[id]
	return info, ok
}

// List returns every record ordered by id.
func (e *Exporter) List() []Record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(e.records))
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, Record{ID: id, Info: e.records[id]})
	}
	return out
}

// Subscribe streams changes until cancel. Slow subscribers lose events.
func (e *Exporter) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, e.buffer)
	e.subMu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	e.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			delete(e.subs, id)
			e.subMu.Unlock()
			close(ch)
		})
	}
}

func (e *Exporter) broadcast(ev Event) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for id, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			log.Warn().Str("module", "status").Int("subscriber", id).Msg("subscriber lagging, event dropped")
		}
	}
}
