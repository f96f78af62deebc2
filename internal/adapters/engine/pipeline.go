package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/tinyzimmer/go-gst/gst"

	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

// Pipeline is the top-level graph. Its bus is polled from a monitor
// goroutine until Release.
type Pipeline struct {
	en   *Engine
	gst  *gst.Pipeline
	name string
	bus  *Bus

	stop context.CancelFunc
	wg   conc.WaitGroup

	mu       sync.Mutex
	state    core.State
	released bool
	elements []*Element
	added    core.Handlers[func(core.Element)]
}

func newPipeline(en *Engine, p *gst.Pipeline) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	pl := &Pipeline{
		en:   en,
		gst:  p,
		name: p.GetName(),
		bus:  newBus(en.dispatcher),
		stop: cancel,
	}
	bus := p.GetPipelineBus()
	pl.wg.Go(func() { pl.bus.monitor(ctx, bus) })
	return pl
}

func (p *Pipeline) Name() string  { return p.name }
func (p *Pipeline) Bus() core.Bus { return p.bus }

func (p *Pipeline) State() core.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) Elements() []core.Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.Element, 0, len(p.elements))
	for _, e := range p.elements {
		out = append(out, e)
	}
	return out
}

func (p *Pipeline) Add(el core.Element) error {
	e, ok := el.(*Element)
	if !ok || e == nil {
		return ErrForeignObject
	}
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return ErrReleased
	}
	if err := e.setParent(p); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("add %s: %w", e.name, err)
	}
	if err := p.gst.Add(e.gst); err != nil {
		_ = e.setParent(nil)
		p.mu.Unlock()
		return fmt.Errorf("add %s: %w", e.name, err)
	}
	p.elements = append(p.elements, e)
	p.mu.Unlock()

	for _, fn := range p.added.Snapshot() {
		fn(e)
	}
	return nil
}

// Remove detaches el. GStreamer unlinks its pads on the way out.
func (p *Pipeline) Remove(el core.Element) error {
	e, ok := el.(*Element)
	if !ok || e == nil {
		return ErrForeignObject
	}
	p.mu.Lock()
	idx := slices.Index(p.elements, e)
	if idx < 0 {
		p.mu.Unlock()
		return fmt.Errorf("remove %s: %w", e.name, ErrNotInGraph)
	}
	p.elements = slices.Delete(p.elements, idx, idx+1)
	p.mu.Unlock()

	if err := p.gst.Remove(e.gst); err != nil {
		return fmt.Errorf("remove %s: %w", e.name, err)
	}
	_ = e.setParent(nil)
	return nil
}

func (p *Pipeline) OnElementAdded(fn func(core.Element)) func() {
	return p.added.Add(fn)
}

// SetState changes the pipeline. GStreamer skips children in locked state;
// the tracked state of the others follows.
func (p *Pipeline) SetState(s core.State) error {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return ErrReleased
	}
	children := slices.Clone(p.elements)
	p.mu.Unlock()

	if err := p.gst.SetState(toGst(s)); err != nil {
		return fmt.Errorf("%s -> %s: %w", p.name, s, err)
	}
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	for _, e := range children {
		if !e.LockedState() {
			e.setTracked(s)
		}
	}
	return nil
}

// Release stops the pipeline, its monitor and every child still inside it.
func (p *Pipeline) Release() {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return
	}
	p.released = true
	p.state = core.StateNull
	children := p.elements
	p.elements = nil
	p.mu.Unlock()

	if err := p.gst.SetState(gst.StateNull); err != nil {
		log.Warn().Err(err).Str("module", "engine").Str("graph", p.name).Msg("stop pipeline on release")
	}
	p.stop()
	p.wg.Wait()
	p.bus.close()
	p.added.Clear()
	for _, e := range children {
		_ = e.setParent(nil)
		e.Release()
	}
	log.Debug().Str("module", "engine").Str("graph", p.name).Int("elements", len(children)).Msg("pipeline released")
}
