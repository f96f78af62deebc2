package orch

import (
	"cmp"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/freedesktop/telepathy-phoenix/internal/app/graph"
	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

// wiring is one transient element serving one data path.
type wiring struct {
	element     core.Element
	upstream    core.Pad
	content     core.Content
	unsubscribe func()
	seq         int
}

// Session is the per-call aggregate. It is only touched from the controller loop.
type Session struct {
	id      domain.SessionID
	mode    domain.Mode
	call    core.Call
	channel core.MediaChannel
	graph   *graph.Handle
	status  *statusPublisher

	sources   map[domain.MediaKind]core.Element
	added     []domain.MediaKind
	wirings   map[core.Pad]*wiring
	seq       int
	notifiers []core.PropertyNotifier
	unsubs    []func()

	started time.Time
	closed  bool
	log     zerolog.Logger
}

func newSession(id domain.SessionID, mode domain.Mode, call core.Call, h *graph.Handle, logger zerolog.Logger) *Session {
	return &Session{
		id:      id,
		mode:    mode,
		call:    call,
		graph:   h,
		sources: make(map[domain.MediaKind]core.Element),
		wirings: make(map[core.Pad]*wiring),
		started: time.Now(),
		log:     logger,
	}
}

func (s *Session) ID() domain.SessionID { return s.id }
func (s *Session) Mode() domain.Mode    { return s.mode }
func (s *Session) Call() core.Call      { return s.call }

// Live reports whether handlers may still touch the graph.
func (s *Session) Live() bool { return !s.closed && s.graph.Live() }

func (s *Session) Info() domain.CallInfo {
	if s.status == nil {
		return domain.CallInfo{}
	}
	return s.status.info
}

func (s *Session) WiringCount() int { return len(s.wirings) }

func (s *Session) Source(kind domain.MediaKind) (core.Element, bool) {
	el, ok := s.sources[kind]
	return el, ok
}

func (s *Session) addSource(kind domain.MediaKind, el core.Element) {
	s.sources[kind] = el
	s.added = append(s.added, kind)
}

// takeSources empties the source table, newest first.
func (s *Session) takeSources() []core.Element {
	out := make([]core.Element, 0, len(s.added))
	for i := len(s.added) - 1; i >= 0; i-- {
		out = append(out, s.sources[s.added[i]])
	}
	clear(s.sources)
	s.added = nil
	return out
}

func (s *Session) track(unsub func()) {
	if unsub != nil {
		s.unsubs = append(s.unsubs, unsub)
	}
}

func (s *Session) addWiring(w *wiring) {
	s.seq++
	w.seq = s.seq
	s.wirings[w.upstream] = w
}

// takeWirings empties the wiring table, newest first.
func (s *Session) takeWirings() []*wiring {
	out := make([]*wiring, 0, len(s.wirings))
	for _, w := range s.wirings {
		out = append(out, w)
	}
	slices.SortFunc(out, func(a, b *wiring) int { return cmp.Compare(b.seq, a.seq) })
	clear(s.wirings)
	return out
}

func (s *Session) unsubscribeAll() {
	for i := len(s.unsubs) - 1; i >= 0; i-- {
		s.unsubs[i]()
	}
	s.unsubs = nil
}
