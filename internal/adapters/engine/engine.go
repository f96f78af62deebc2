// Package engine adapts GStreamer, through go-gst, to the core media graph
// interfaces. Every notification leaves through the dispatcher given to New.
package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tinyzimmer/go-gst/gst"

	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

var initOnce sync.Once

type Engine struct {
	dispatcher core.Dispatcher

	mu       sync.Mutex
	counters map[string]int
	elements map[string]*Element
	pads     map[string]*Pad
}

// New initializes GStreamer on first use.
func New(d core.Dispatcher) *Engine {
	initOnce.Do(func() { gst.Init(nil) })
	return &Engine{
		dispatcher: d,
		counters:   make(map[string]int),
		elements:   make(map[string]*Element),
		pads:       make(map[string]*Pad),
	}
}

func (en *Engine) uniqueName(prefix string) string {
	en.mu.Lock()
	defer en.mu.Unlock()
	n := en.counters[prefix]
	en.counters[prefix] = n + 1
	return fmt.Sprintf("%s%d", prefix, n)
}

// objectName turns a call path into a usable GStreamer object name.
func objectName(name string) string {
	return strings.Trim(strings.ReplaceAll(name, "/", "-"), "-")
}

func (en *Engine) NewGraph(name string) (core.Graph, error) {
	name = objectName(name)
	if name == "" {
		name = en.uniqueName("pipeline")
	}
	p, err := gst.NewPipeline(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline %s: %w", name, err)
	}
	log.Debug().Str("module", "engine").Str("graph", name).Msg("new pipeline")
	return newPipeline(en, p), nil
}

func (en *Engine) NewElement(factory string) (core.Element, error) {
	el, err := gst.NewElement(factory)
	if err != nil {
		return nil, fmt.Errorf("%q: %w: %w", factory, ErrNoSuchFactory, err)
	}
	return en.register(el, factory, nil), nil
}

// NewBin returns an empty bin; the owner adds application pads on demand.
func (en *Engine) NewBin(factory string) *Element {
	bin := gst.NewBin(en.uniqueName(factory))
	return en.register(bin.Element, factory, bin)
}

// ParseBin builds a bin from a gst-launch style description. Its unlinked
// src pad is ghosted as "src".
func (en *Engine) ParseBin(description string) (core.Element, error) {
	bin, err := gst.NewBinFromString(description, true)
	if err != nil {
		return nil, fmt.Errorf("%q: %w: %w", description, ErrSyntax, err)
	}
	factory, _, _ := strings.Cut(strings.TrimSpace(description), " ")
	e := en.register(bin.Element, factory, bin)
	if e.StaticPad("src") == nil {
		e.Release()
		return nil, fmt.Errorf("%q has no src pad: %w", description, ErrSyntax)
	}
	return e, nil
}

func (en *Engine) register(el *gst.Element, factory string, bin *gst.Bin) *Element {
	e := &Element{en: en, gst: el, bin: bin, name: el.GetName(), factory: factory}
	en.mu.Lock()
	en.elements[e.name] = e
	en.mu.Unlock()
	return e
}

func (en *Engine) forget(e *Element) {
	en.mu.Lock()
	defer en.mu.Unlock()
	delete(en.elements, e.name)
	prefix := e.name + "."
	for k := range en.pads {
		if strings.HasPrefix(k, prefix) {
			delete(en.pads, k)
		}
	}
}

// elementFor returns the wrapper of el, creating one for elements GStreamer
// made on its own.
func (en *Engine) elementFor(el *gst.Element) *Element {
	name := el.GetName()
	en.mu.Lock()
	e, ok := en.elements[name]
	en.mu.Unlock()
	if ok {
		return e
	}
	factory := name
	if f := el.GetFactory(); f != nil {
		factory = f.GetName()
	}
	return en.register(el, factory, nil)
}

// padFor keeps one wrapper per pad so pads compare by identity.
func (en *Engine) padFor(gp *gst.Pad) *Pad {
	if gp == nil {
		return nil
	}
	parent := gp.GetParentElement()
	if parent == nil {
		return newPad(en, nil, gp)
	}
	owner := en.elementFor(parent)
	key := owner.name + "." + gp.GetName()

	en.mu.Lock()
	defer en.mu.Unlock()
	if p, ok := en.pads[key]; ok {
		return p
	}
	p := newPad(en, owner, gp)
	en.pads[key] = p
	return p
}

func (en *Engine) forgetPad(p *Pad) {
	if p.owner == nil {
		return
	}
	en.mu.Lock()
	delete(en.pads, p.owner.name+"."+p.name)
	en.mu.Unlock()
}

func toGst(s core.State) gst.State {
	switch s {
	case core.StateReady:
		return gst.StateReady
	case core.StatePaused:
		return gst.StatePaused
	case core.StatePlaying:
		return gst.StatePlaying
	default:
		return gst.StateNull
	}
}

func fromGst(s gst.State) core.State {
	switch s {
	case gst.StateReady:
		return core.StateReady
	case gst.StatePaused:
		return core.StatePaused
	case gst.StatePlaying:
		return core.StatePlaying
	default:
		return core.StateNull
	}
}
