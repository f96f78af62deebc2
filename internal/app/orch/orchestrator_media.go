package orch

import (
	"errors"
	"fmt"

	"github.com/freedesktop/telepathy-phoenix/internal/app"
	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

var errNoPad = errors.New("element has no such pad")

func (o *Orchestrator) onContentAdded(s *Session, content core.Content) {
	if !s.Live() {
		return
	}
	s.log.Info().Str("content", content.ID()).Str("kind", content.MediaKind().String()).Msg("content added")
	s.track(content.OnStartSending(func() bool { return o.onStartSending(s, content) }))
	s.track(content.OnSrcPadAdded(func(pad core.Pad, codec core.Codec) { o.onSrcPadAdded(s, content, pad, codec) }))
}

// onStartSending makes sure the content has something to send.
func (o *Orchestrator) onStartSending(s *Session, content core.Content) bool {
	if !s.Live() {
		s.log.Debug().Str("content", content.ID()).Msg("start sending after teardown ignored")
		return true
	}
	recipe := o.policy().Recipe(s.mode, domain.DirectionOutgoing)
	if recipe.Action != app.WireSynthetic {
		return true
	}

	kind := content.MediaKind()
	if _, ok := s.sources[kind]; ok {
		return true
	}
	desc, ok := app.SyntheticSource(kind)
	if !ok {
		s.log.Warn().Str("content", content.ID()).Str("kind", kind.String()).Msg("unknown media type, nothing to send")
		return false
	}

	src, err := o.Engine.ParseBin(desc)
	if err != nil {
		o.closeCall(s, "source-failed", fmt.Errorf("build %q: %w", desc, err))
		return false
	}
	if err := s.graph.Insert(src); err != nil {
		src.Release()
		o.closeCall(s, "source-failed", err)
		return false
	}
	if err := link(src.StaticPad("src"), content.SinkPad()); err != nil {
		s.graph.Retire(src, nil)
		o.closeCall(s, "link-failed", fmt.Errorf("link %s to content %s: %w", src.Name(), content.ID(), err))
		return false
	}
	if err := src.SetState(core.StatePlaying); err != nil {
		s.graph.Retire(src, nil)
		o.closeCall(s, "source-failed", err)
		return false
	}

	s.addSource(kind, src)
	s.log.Info().Str("content", content.ID()).Str("source", src.Name()).Str("kind", kind.String()).Msg("sending test input")
	return true
}

// onSrcPadAdded wires a newly flowing remote stream according to the mode.
func (o *Orchestrator) onSrcPadAdded(s *Session, content core.Content, pad core.Pad, codec core.Codec) {
	if !s.Live() {
		return
	}
	kind := content.MediaKind()
	s.log.Info().
		Str("content", content.ID()).
		Str("pad", pad.Name()).
		Str("kind", kind.String()).
		Str("codec", codec.String()).
		Msg("src pad added")

	if s.status.setReceiving(kind) {
		o.Metrics.ReceivingStarted(kind.String())
	}

	recipe := o.policy().Recipe(s.mode, domain.DirectionIncoming)
	var downstream core.Pad
	switch recipe.Action {
	case app.WireLoopback:
		downstream = content.SinkPad()
		if downstream == nil {
			o.closeCall(s, "link-failed", fmt.Errorf("content %s: %w", content.ID(), errNoPad))
			return
		}
	case app.WireDiscard:
	default:
		return
	}

	el, err := o.insertWiring(s, recipe.Factory, pad, downstream)
	if err != nil {
		o.closeCall(s, "link-failed", err)
		return
	}

	w := &wiring{element: el, upstream: pad, content: content}
	w.unsubscribe = pad.OnUnlinked(func(p, _ core.Pad) { o.onDataPathUnlinked(s, p) })
	s.addWiring(w)
	o.Metrics.WiringAdded()
	s.log.Debug().Str("pad", pad.Name()).Str("element", el.Name()).Str("action", recipe.Action.String()).Msg("data path wired")
}

// insertWiring adds a factory element between upstream and downstream
// (downstream may be nil). On failure everything done so far is undone.
func (o *Orchestrator) insertWiring(s *Session, factory string, upstream, downstream core.Pad) (core.Element, error) {
	el, err := o.Engine.NewElement(factory)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", factory, err)
	}
	if err := s.graph.Insert(el); err != nil {
		el.Release()
		return nil, err
	}
	if err := el.SetState(core.StatePlaying); err != nil {
		s.graph.Retire(el, upstream)
		return nil, fmt.Errorf("start %s: %w", el.Name(), err)
	}
	if err := link(upstream, el.StaticPad("sink")); err != nil {
		s.graph.Retire(el, upstream)
		return nil, fmt.Errorf("link %s to %s: %w", upstream.Name(), el.Name(), err)
	}
	if downstream != nil {
		if err := link(el.StaticPad("src"), downstream); err != nil {
			s.graph.Retire(el, upstream)
			return nil, fmt.Errorf("link %s to %s: %w", el.Name(), downstream.Name(), err)
		}
	}
	return el, nil
}

// onDataPathUnlinked retires the element serving pad. The call stays up.
func (o *Orchestrator) onDataPathUnlinked(s *Session, pad core.Pad) {
	w, ok := s.wirings[pad]
	if !ok || !s.Live() {
		return
	}
	delete(s.wirings, pad)
	w.unsubscribe()
	s.log.Info().Str("pad", pad.Name()).Str("element", w.element.Name()).Msg("data path unlinked, retiring element")
	s.graph.Retire(w.element, nil)
	o.Metrics.WiringRemoved()
}

func link(src, sink core.Pad) error {
	if src == nil || sink == nil {
		return errNoPad
	}
	return src.Link(sink)
}
