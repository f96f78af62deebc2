package engine

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"github.com/tinyzimmer/go-glib/glib"
	"github.com/tinyzimmer/go-gst/gst"

	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

// Element wraps a GStreamer element. Bins made by NewBin also carry
// application pads backed by appsrc and appsink children.
type Element struct {
	en      *Engine
	gst     *gst.Element
	bin     *gst.Bin
	name    string
	factory string

	mu       sync.Mutex
	state    core.State
	locked   bool
	released bool
	parent   *Pipeline
	appPads  []*Pad
}

func (e *Element) Name() string    { return e.name }
func (e *Element) Factory() string { return e.factory }

func (e *Element) State() core.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Element) StaticPad(name string) core.Pad {
	if p := e.pad(name); p != nil {
		return p
	}
	return nil
}

func (e *Element) pad(name string) *Pad {
	gp := e.gst.GetStaticPad(name)
	if gp == nil {
		return nil
	}
	return e.en.padFor(gp)
}

// Pads lists the application pads added to a bin.
func (e *Element) Pads() []*Pad {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.appPads)
}

func (e *Element) SetLockedState(locked bool) {
	e.mu.Lock()
	e.locked = locked
	e.mu.Unlock()
	e.gst.SetLockedState(locked)
}

func (e *Element) LockedState() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.locked
}

// SetProperty converts value to the GType of the property first, so values
// read from config files can be applied as is.
func (e *Element) SetProperty(name string, value any) error {
	if name == "name" {
		return fmt.Errorf("%s.%s: %w", e.name, name, ErrNoSuchProperty)
	}
	t, err := e.gst.GetPropertyType(name)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", e.name, name, ErrNoSuchProperty)
	}
	v, err := coerce(t, value)
	if err != nil {
		return fmt.Errorf("%s.%s=%v: %w", e.name, name, value, ErrBadProperty)
	}
	if err := e.gst.SetProperty(name, v); err != nil {
		return fmt.Errorf("%s.%s=%v: %w: %w", e.name, name, value, ErrBadProperty, err)
	}
	return nil
}

func (e *Element) Property(name string) (any, bool) {
	v, err := e.gst.GetProperty(name)
	if err != nil {
		return nil, false
	}
	return v, true
}

func coerce(t glib.Type, value any) (any, error) {
	switch t {
	case glib.TYPE_BOOLEAN:
		return cast.ToBoolE(value)
	case glib.TYPE_INT:
		return cast.ToIntE(value)
	case glib.TYPE_UINT:
		return cast.ToUintE(value)
	case glib.TYPE_INT64:
		return cast.ToInt64E(value)
	case glib.TYPE_UINT64:
		return cast.ToUint64E(value)
	case glib.TYPE_FLOAT:
		return cast.ToFloat32E(value)
	case glib.TYPE_DOUBLE:
		return cast.ToFloat64E(value)
	case glib.TYPE_STRING:
		return cast.ToStringE(value)
	default:
		return value, nil
	}
}

func (e *Element) SetState(s core.State) error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return fmt.Errorf("%s: %w", e.name, ErrReleased)
	}
	e.mu.Unlock()

	if err := e.gst.SetState(toGst(s)); err != nil {
		return fmt.Errorf("%s -> %s: %w", e.name, s, err)
	}
	e.setTracked(s)
	return nil
}

func (e *Element) setTracked(s core.State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Release stops the element and drops every wrapper it owns.
func (e *Element) Release() {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return
	}
	e.released = true
	e.state = core.StateNull
	e.appPads = nil
	e.mu.Unlock()

	if err := e.gst.SetState(gst.StateNull); err != nil {
		log.Debug().Err(err).Str("module", "engine").Str("element", e.name).Msg("stop on release")
	}
	e.en.forget(e)
}

func (e *Element) Released() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.released
}

func (e *Element) setParent(p *Pipeline) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p != nil && e.released {
		return ErrReleased
	}
	if p != nil && e.parent != nil {
		return ErrHasParent
	}
	e.parent = p
	return nil
}
