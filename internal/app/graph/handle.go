// Package graph owns one media graph on behalf of a call session.
package graph

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

var ErrClosed = errors.New("graph closed")

// Handle is the single owner of a graph. After Close every mutation is
// rejected and Live reports false.
type Handle struct {
	graph       core.Graph
	live        bool
	removeWatch func()
	log         zerolog.Logger
}

// Open creates the graph and starts it. On failure nothing is retained.
func Open(engine core.Engine, name string) (*Handle, error) {
	g, err := engine.NewGraph(name)
	if err != nil {
		return nil, fmt.Errorf("create graph %q: %w", name, err)
	}
	if err := g.SetState(core.StatePlaying); err != nil {
		_ = g.SetState(core.StateNull)
		g.Release()
		return nil, fmt.Errorf("start graph %q: %w", name, err)
	}
	return &Handle{
		graph: g,
		live:  true,
		log:   log.With().Str("module", "app.graph").Str("graph", name).Logger(),
	}, nil
}

func (h *Handle) Live() bool { return h != nil && h.live }

// Graph exposes the owned graph. Nil once closed.
func (h *Handle) Graph() core.Graph {
	if !h.Live() {
		return nil
	}
	return h.graph
}

// Watch installs fn on the graph bus. Only one watch is kept.
func (h *Handle) Watch(fn func(core.Message) bool) error {
	if !h.Live() {
		return ErrClosed
	}
	if h.removeWatch != nil {
		h.removeWatch()
	}
	h.removeWatch = h.graph.Bus().AddWatch(fn)
	return nil
}

func (h *Handle) Insert(el core.Element) error {
	if !h.Live() {
		return ErrClosed
	}
	if err := h.graph.Add(el); err != nil {
		return fmt.Errorf("insert %s: %w", el.Name(), err)
	}
	return nil
}

func (h *Handle) Remove(el core.Element) error {
	if !h.Live() {
		return ErrClosed
	}
	if err := h.graph.Remove(el); err != nil {
		return fmt.Errorf("remove %s: %w", el.Name(), err)
	}
	return nil
}

// Stop moves the graph to Null without releasing it.
func (h *Handle) Stop() {
	if !h.Live() {
		return
	}
	if err := h.graph.SetState(core.StateNull); err != nil {
		h.log.Warn().Err(err).Msg("stop graph")
	}
}

// Retire takes el out of the graph: unlink, lock, stop, remove, release.
// upstream is the data path feeding el, if it is still attached.
func (h *Handle) Retire(el core.Element, upstream core.Pad) {
	if el == nil {
		return
	}
	if src := el.StaticPad("src"); src != nil {
		if peer := src.Peer(); peer != nil {
			src.Unlink(peer)
		}
	}
	if upstream != nil {
		if peer := upstream.Peer(); peer != nil && peer.Parent() == el {
			upstream.Unlink(peer)
		}
	}
	el.SetLockedState(true)
	if err := el.SetState(core.StateNull); err != nil {
		h.log.Warn().Err(err).Str("element", el.Name()).Msg("stop retired element")
	}
	if h.Live() {
		if err := h.graph.Remove(el); err != nil {
			h.log.Debug().Err(err).Str("element", el.Name()).Msg("remove retired element")
		}
	}
	el.Release()
	h.log.Debug().Str("element", el.Name()).Msg("element retired")
}

// Close stops and releases the graph. Safe to call more than once.
func (h *Handle) Close() {
	if !h.Live() {
		return
	}
	if h.removeWatch != nil {
		h.removeWatch()
		h.removeWatch = nil
	}
	if err := h.graph.SetState(core.StateNull); err != nil {
		h.log.Warn().Err(err).Msg("stop graph on close")
	}
	h.graph.Release()
	h.live = false
	h.log.Info().Msg("graph closed")
}
