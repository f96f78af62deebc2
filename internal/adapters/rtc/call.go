// Package rtc exposes WebRTC peer connections as calls with a call-media
// channel the session controller can drive.
package rtc

import (
	"context"
	"errors"
	"sync"

	"github.com/looplab/fsm"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freedesktop/telepathy-phoenix/internal/adapters/engine"
	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

var (
	ErrClosedLocally    = errors.New("call closed locally")
	ErrConnectionFailed = errors.New("peer connection failed")
	ErrHungUp           = errors.New("remote hung up")
)

const (
	stateInitialising = "initialising"
	stateInitialised  = "initialised"
	stateAccepted     = "accepted"
	stateActive       = "active"
	stateEnded        = "ended"

	eventReady   = "ready"
	eventAccept  = "accept"
	eventConnect = "connect"
	eventEnd     = "end"
)

func newCallFSM(callbacks fsm.Callbacks) *fsm.FSM {
	return fsm.NewFSM(
		stateInitialising,
		fsm.Events{
			{Name: eventReady, Src: []string{stateInitialising}, Dst: stateInitialised},
			{Name: eventAccept, Src: []string{stateInitialised}, Dst: stateAccepted},
			{Name: eventConnect, Src: []string{stateAccepted}, Dst: stateActive},
			{Name: eventEnd, Src: []string{stateInitialising, stateInitialised, stateAccepted, stateActive}, Dst: stateEnded},
		},
		callbacks,
	)
}

func callState(s string) domain.CallState {
	switch s {
	case stateInitialising:
		return domain.CallStateInitialising
	case stateInitialised:
		return domain.CallStateInitialised
	case stateAccepted:
		return domain.CallStateAccepted
	case stateActive:
		return domain.CallStateActive
	case stateEnded:
		return domain.CallStateEnded
	default:
		return domain.CallStateUnknown
	}
}

// Config carries what every incoming call needs.
type Config struct {
	API        *webrtc.API
	WebRTC     webrtc.Configuration
	Engine     *engine.Engine
	Dispatcher core.Dispatcher
}

// Signaler delivers local descriptions and candidates to the remote side.
type Signaler interface {
	SendAnswer(sdp webrtc.SessionDescription)
	SendCandidate(ci webrtc.ICECandidateInit)
}

// Call is an incoming WebRTC call. Every notification is posted through the
// dispatcher.
type Call struct {
	path       domain.CallPath
	conn       *Connection
	channel    *Channel
	dispatcher core.Dispatcher
	signaler   Signaler
	machine    *fsm.FSM
	log        zerolog.Logger

	states      core.Handlers[func(domain.CallState)]
	invalidated core.Handlers[func(error)]

	mu     sync.Mutex
	reason error
	closed bool
}

// NewIncomingCall applies offer to a fresh PeerConnection. Nothing is
// announced until Start.
func NewIncomingCall(cfg Config, offer string, sig Signaler) (*Call, error) {
	sections, err := parseMediaSections(offer)
	if err != nil {
		return nil, err
	}
	path := domain.NewCallPath()
	sid := domain.SessionIDFromPath(path)
	logger := log.With().Str("module", "rtc").Str("sid", string(sid)).Logger()

	conn, err := NewConnection(cfg.API, cfg.WebRTC, sid)
	if err != nil {
		return nil, err
	}
	channel, err := newChannel(cfg.Engine, cfg.Dispatcher, sections, string(path), logger)
	if err != nil {
		conn.Close()
		return nil, err
	}

	c := &Call{
		path:       path,
		conn:       conn,
		channel:    channel,
		dispatcher: cfg.Dispatcher,
		signaler:   sig,
		log:        logger,
	}
	c.machine = newCallFSM(fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			c.notifyState(callState(e.Dst))
		},
	})

	conn.OnICECandidate(sig.SendCandidate)
	conn.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		channel.addRemoteTrack(track, conn.MidOf(receiver))
	})
	conn.OnStateChange(c.onPeerState)
	conn.Start()

	if err := conn.ApplyOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offer}); err != nil {
		c.abort()
		return nil, err
	}
	for _, content := range channel.contents {
		if _, err := conn.AddLocalTrack(content.track); err != nil {
			c.abort()
			return nil, err
		}
	}
	return c, nil
}

func (c *Call) abort() {
	c.conn.Close()
	c.channel.release()
}

func (c *Call) Path() domain.CallPath    { return c.path }
func (c *Call) Requested() bool          { return false }
func (c *Call) State() domain.CallState  { return callState(c.machine.Current()) }
func (c *Call) Media() core.MediaChannel { return c.channel }
func (c *Call) Channel() *Channel        { return c.channel }

func (c *Call) OnStateChanged(fn func(domain.CallState)) func() {
	return c.states.Add(fn)
}

func (c *Call) OnInvalidated(fn func(error)) func() {
	return c.invalidated.Add(fn)
}

// Start announces the conference and contents, then marks the call
// initialised. Call it after the handler has subscribed.
func (c *Call) Start() {
	c.channel.announce()
	c.fire(eventReady)
}

// Accept answers the offer off the loop; the answer goes to the signaler and
// each content is then asked to start sending.
func (c *Call) Accept() {
	go func() {
		if !c.fire(eventAccept) {
			return
		}
		answer, err := c.conn.CreateAnswer()
		if err != nil {
			c.log.Error().Err(err).Msg("create answer")
			c.Hangup(err)
			return
		}
		c.signaler.SendAnswer(*answer)
		c.channel.startSending()
	}()
}

// Hangup ends the call from the remote side. The local close follows when
// the handler reacts to Ended.
func (c *Call) Hangup(reason error) {
	c.mu.Lock()
	if c.reason == nil {
		c.reason = reason
	}
	c.mu.Unlock()
	c.fire(eventEnd)
}

// Close tears the call down once: conference-removed, then invalidated.
func (c *Call) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.reason == nil {
		c.reason = ErrClosedLocally
	}
	reason := c.reason
	c.mu.Unlock()

	go func() {
		c.fire(eventEnd)
		if err := c.channel.LastError(); err != nil {
			c.log.Warn().Err(err).Msg("closing after conference error")
		}
		c.conn.Close()
		c.channel.close()
		c.dispatcher.Post(func() {
			for _, fn := range c.invalidated.Snapshot() {
				fn(reason)
			}
			c.states.Clear()
			c.invalidated.Clear()
		})
		c.dispatcher.Post(c.channel.release)
	}()
}

func (c *Call) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.conn.AddICECandidate(ci)
}

func (c *Call) onPeerState(s webrtc.PeerConnectionState) {
	switch s {
	case webrtc.PeerConnectionStateConnected:
		c.fire(eventConnect)
	case webrtc.PeerConnectionStateFailed:
		c.Hangup(ErrConnectionFailed)
	}
}

// fire reports whether the transition happened.
func (c *Call) fire(event string) bool {
	if err := c.machine.Event(context.Background(), event); err != nil {
		c.log.Debug().Err(err).Str("event", event).Str("state", c.machine.Current()).Msg("transition refused")
		return false
	}
	return true
}

func (c *Call) notifyState(s domain.CallState) {
	c.log.Info().Stringer("state", s).Msg("call state")
	c.dispatcher.Post(func() {
		for _, fn := range c.states.Snapshot() {
			fn(s)
		}
	})
}
