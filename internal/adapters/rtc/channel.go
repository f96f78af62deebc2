package rtc

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/freedesktop/telepathy-phoenix/internal/adapters/engine"
	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

// ConferenceFactory names the bin that carries a call's media in the graph.
const ConferenceFactory = "rtpconference"

// Channel is the call-media side of a call: one conference bin with a sink
// pad per content and a src pad per remote track.
type Channel struct {
	dispatcher core.Dispatcher
	conference *engine.Element
	contents   []*Content
	log        zerolog.Logger

	confAdded    core.Handlers[func(core.Element)]
	confRemoved  core.Handlers[func(core.Element)]
	contentAdded core.Handlers[func(core.Content)]

	mu        sync.Mutex
	relays    map[*engine.Pad]*relay
	lastError error
	closed    bool
}

func newChannel(en *engine.Engine, d core.Dispatcher, sections []mediaSection, streamID string, log zerolog.Logger) (*Channel, error) {
	ch := &Channel{
		dispatcher: d,
		conference: en.NewBin(ConferenceFactory),
		relays:     make(map[*engine.Pad]*relay),
		log:        log,
	}
	for _, sec := range sections {
		c, err := newContent(ch.conference, sec, streamID)
		if err != nil {
			ch.conference.Release()
			return nil, fmt.Errorf("rtc: content %s: %w", sec.Mid, err)
		}
		ch.contents = append(ch.contents, c)
	}
	return ch, nil
}

func (ch *Channel) OnConferenceAdded(fn func(core.Element)) func() {
	return ch.confAdded.Add(fn)
}

func (ch *Channel) OnConferenceRemoved(fn func(core.Element)) func() {
	return ch.confRemoved.Add(fn)
}

func (ch *Channel) OnContentAdded(fn func(core.Content)) func() {
	return ch.contentAdded.Add(fn)
}

// BusMessage records errors raised by the conference.
func (ch *Channel) BusMessage(msg core.Message) {
	if msg.Kind != core.MessageError || !ch.conference.Owns(msg.Source) {
		return
	}
	ch.mu.Lock()
	ch.lastError = msg.Err
	ch.mu.Unlock()
	ch.log.Warn().Err(msg.Err).Str("debug", msg.Debug).Msg("conference error")
}

// LastError is the most recent error the conference reported.
func (ch *Channel) LastError() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.lastError
}

func (ch *Channel) Contents() []*Content { return ch.contents }

// announce posts conference-added, then content-added per content.
func (ch *Channel) announce() {
	ch.dispatcher.Post(func() {
		for _, fn := range ch.confAdded.Snapshot() {
			fn(ch.conference)
		}
	})
	for _, c := range ch.contents {
		ch.dispatcher.Post(func() {
			for _, fn := range ch.contentAdded.Snapshot() {
				fn(c)
			}
		})
	}
}

// startSending posts a start-sending request for every content.
func (ch *Channel) startSending() {
	for _, c := range ch.contents {
		ch.dispatcher.Post(func() {
			if !c.requestSending() {
				ch.log.Warn().Str("content", c.id).Msg("no source for content")
			}
		})
	}
}

func (ch *Channel) contentFor(mid string, kind domain.MediaKind) *Content {
	for _, c := range ch.contents {
		if c.id == mid {
			return c
		}
	}
	for _, c := range ch.contents {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

// addRemoteTrack exposes track as a conference src pad and relays it until
// the track ends, when the pad is removed again.
func (ch *Channel) addRemoteTrack(track *webrtc.TrackRemote, mid string) {
	c := ch.contentFor(mid, domain.ParseMediaKind(track.Kind().String()))
	if c == nil {
		ch.log.Warn().Str("mid", mid).Msg("remote track without content")
		return
	}
	ch.startRelay(c, track, fmt.Sprintf("src_%s_%d", c.id, track.SSRC()), codecOf(track.Codec()))
}

func (ch *Channel) startRelay(c *Content, src rtpReader, padName string, codec core.Codec) {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return
	}
	pad, err := ch.conference.AddSrcPad(padName, rtpCaps(c.kind, codec))
	if err != nil {
		ch.mu.Unlock()
		ch.log.Error().Err(err).Str("content", c.id).Msg("add src pad")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := newRelay(src, pad, cancel)
	ch.relays[pad] = r
	ch.mu.Unlock()

	ch.dispatcher.Post(func() { c.srcPadAdded(pad, codec) })

	go func() {
		defer ch.removeRelay(pad)
		r.loop(ctx, &ch.log)
	}()
}

func (ch *Channel) removeRelay(pad *engine.Pad) {
	ch.mu.Lock()
	r, ok := ch.relays[pad]
	delete(ch.relays, pad)
	ch.mu.Unlock()
	if ok {
		r.cancel()
		ch.conference.RemovePad(pad)
	}
}

// close stops every relay, drops its pad and posts conference-removed.
func (ch *Channel) close() {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return
	}
	ch.closed = true
	relays := make([]*relay, 0, len(ch.relays))
	for _, r := range ch.relays {
		relays = append(relays, r)
	}
	clear(ch.relays)
	ch.mu.Unlock()

	for _, r := range relays {
		r.cancel()
		ch.conference.RemovePad(r.pad)
	}
	ch.dispatcher.Post(func() {
		for _, fn := range ch.confRemoved.Snapshot() {
			fn(ch.conference)
		}
	})
}

// release runs on the loop after every close notification was delivered.
func (ch *Channel) release() {
	ch.confAdded.Clear()
	ch.confRemoved.Clear()
	ch.contentAdded.Clear()
	for _, c := range ch.contents {
		c.clear()
	}
	ch.conference.Release()
}
