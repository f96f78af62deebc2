package orch

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freedesktop/telepathy-phoenix/internal/app"
	"github.com/freedesktop/telepathy-phoenix/internal/app/graph"
	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
	"github.com/freedesktop/telepathy-phoenix/internal/metrics"
)

// Orchestrator owns every call session. All of its handlers run on the
// controller loop.
type Orchestrator struct {
	Registry  *app.Registry
	Engine    core.Engine
	Policy    app.WiringPolicy
	Notifiers core.NotifierSource
	Status    core.StatusExporter
	Metrics   *metrics.Metrics
}

var _ core.CallHandler = (*Orchestrator)(nil)

func (o *Orchestrator) policy() app.WiringPolicy {
	if o.Policy == nil {
		return app.DefaultWiringPolicy{}
	}
	return o.Policy
}

// OnNewCall builds the session for a handed-off call. If the graph cannot
// start the call is closed and nothing is kept.
func (o *Orchestrator) OnNewCall(call core.Call, satisfied []core.ChannelRequest) error {
	sid := domain.SessionIDFromPath(call.Path())
	logger := log.With().Str("module", "orch").Str("sid", string(sid)).Logger()
	mode := app.SelectMode(satisfied)

	h, err := graph.Open(o.Engine, string(call.Path()))
	if err != nil {
		logger.Warn().Err(err).Msg("could not start graph, closing call")
		o.Metrics.SessionFailed()
		o.Metrics.CallClosed("graph-start-failed")
		call.Close()
		return fmt.Errorf("session %s: %w", sid, err)
	}

	s := newSession(sid, mode, call, h, logger)
	s.status = newStatusPublisher(o.Status, sid, call.Path())
	s.status.publish()

	if err := h.Watch(func(msg core.Message) bool { return o.onEngineMessage(s, msg) }); err != nil {
		logger.Warn().Err(err).Msg("bus watch not installed")
	}

	if ch := call.Media(); ch != nil {
		s.channel = ch
		s.track(ch.OnConferenceAdded(func(conf core.Element) { o.onConferenceAdded(s, conf) }))
		s.track(ch.OnConferenceRemoved(func(conf core.Element) { o.onConferenceRemoved(s, conf) }))
		s.track(ch.OnContentAdded(func(content core.Content) { o.onContentAdded(s, content) }))
	}
	s.track(call.OnStateChanged(func(st domain.CallState) { o.onCallStateChanged(s, st) }))
	s.track(call.OnInvalidated(func(reason error) { o.onInvalidated(s, reason) }))

	o.Registry.Bind(s, call.Close)
	o.Metrics.SessionOpened(mode.String())
	logger.Info().Str("mode", mode.String()).Bool("requested", call.Requested()).Msg("session created")

	o.acceptIfReady(s)
	return nil
}

// acceptIfReady handles calls that reached a ready state before hand-off.
func (o *Orchestrator) acceptIfReady(s *Session) {
	st := s.call.State()
	requested := s.call.Requested()
	if (requested && st == domain.CallStatePendingInitiator) || (!requested && st == domain.CallStateInitialised) {
		s.log.Info().Str("state", st.String()).Msg("accepting call at hand-off")
		s.call.Accept()
	}
}

func (o *Orchestrator) onCallStateChanged(s *Session, st domain.CallState) {
	s.log.Debug().Str("state", st.String()).Msg("call state changed")
	switch st {
	case domain.CallStateInitialised:
		if !s.call.Requested() {
			s.log.Info().Msg("accepting call")
			s.call.Accept()
		}
	case domain.CallStateEnded:
		o.closeCall(s, "ended", nil)
	}
}

func (o *Orchestrator) closeCall(s *Session, reason string, err error) {
	ev := s.log.Info()
	if err != nil {
		ev = s.log.Warn().Err(err)
	}
	ev.Str("reason", reason).Msg("closing call")
	o.Metrics.CallClosed(reason)
	s.call.Close()
}

// onInvalidated tears the session down. It runs at most once per session.
func (o *Orchestrator) onInvalidated(s *Session, reason error) {
	if s.closed {
		return
	}
	s.closed = true
	s.log.Info().AnErr("reason", reason).Msg("call invalidated, tearing down session")

	s.unsubscribeAll()
	s.graph.Stop()

	for _, w := range s.takeWirings() {
		w.unsubscribe()
		s.graph.Retire(w.element, w.upstream)
		o.Metrics.WiringRemoved()
	}
	for _, src := range s.takeSources() {
		s.graph.Retire(src, nil)
	}
	for i := len(s.notifiers) - 1; i >= 0; i-- {
		s.notifiers[i].Release()
	}
	s.notifiers = nil

	s.graph.Close()
	if s.status != nil {
		s.status.unpublish()
	}
	o.Registry.Unbind(s.id, s)
	o.Metrics.SessionClosed(s.started)
}

// CloseAll runs the cancel hook of every live call. Teardown follows through
// invalidation.
func (o *Orchestrator) CloseAll() {
	for _, sess := range o.Registry.Snapshot() {
		log.Info().Str("module", "orch").Str("sid", string(sess.ID())).Msg("closing call on shutdown")
		o.Registry.Cancel(sess.ID())
	}
}
