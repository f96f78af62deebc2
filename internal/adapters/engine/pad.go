package engine

import (
	"fmt"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

type Pad struct {
	en    *Engine
	gst   *gst.Pad
	owner *Element
	name  string
	dir   core.PadDirection

	// set on application pads of a bin
	inner  *gst.Element
	source *app.Source

	once     sync.Once
	unlinked core.Handlers[func(pad, peer core.Pad)]
}

func newPad(en *Engine, owner *Element, gp *gst.Pad) *Pad {
	dir := core.PadSrc
	if gp.GetDirection() == gst.PadDirectionSink {
		dir = core.PadSink
	}
	return &Pad{en: en, gst: gp, owner: owner, name: gp.GetName(), dir: dir}
}

func (p *Pad) Name() string                 { return p.name }
func (p *Pad) Direction() core.PadDirection { return p.dir }

func (p *Pad) Parent() core.Element {
	if p.owner == nil {
		return nil
	}
	return p.owner
}

func (p *Pad) Link(sink core.Pad) error {
	s, ok := sink.(*Pad)
	if !ok || s == nil {
		return ErrForeignObject
	}
	if p.dir != core.PadSrc || s.dir != core.PadSink {
		return ErrLinkWrongDirection
	}
	if ret := p.gst.Link(s.gst); ret != gst.PadLinkOK {
		return linkError(ret)
	}
	return nil
}

func linkError(ret gst.PadLinkReturn) error {
	switch ret {
	case gst.PadLinkWrongHierarchy:
		return ErrLinkWrongHierarchy
	case gst.PadLinkWasLinked:
		return ErrWasLinked
	case gst.PadLinkWrongDirection:
		return ErrLinkWrongDirection
	case gst.PadLinkNoFormat:
		return ErrLinkNoFormat
	default:
		return fmt.Errorf("%w: %s", ErrLinkRefused, ret.String())
	}
}

func (p *Pad) Unlink(peer core.Pad) bool {
	other, ok := peer.(*Pad)
	if !ok || other == nil {
		return false
	}
	if p.dir == core.PadSink {
		return other.gst.Unlink(p.gst)
	}
	return p.gst.Unlink(other.gst)
}

// unlinkAny drops whatever peer the pad has.
func (p *Pad) unlinkAny() {
	if peer := p.Peer(); peer != nil {
		p.Unlink(peer)
	}
}

func (p *Pad) Peer() core.Pad {
	if peer := p.en.padFor(p.gst.GetPeer()); peer != nil {
		return peer
	}
	return nil
}

func (p *Pad) IsLinked() bool { return p.gst.IsLinked() }

// OnUnlinked connects the pad's "unlinked" signal on first use. Handlers
// run on the dispatcher and are looked up when the notification runs, so an
// unsubscribe issued before delivery wins.
func (p *Pad) OnUnlinked(fn func(pad, peer core.Pad)) func() {
	p.once.Do(func() {
		p.gst.Connect("unlinked", func(_ *gst.Pad, peer *gst.Pad) {
			p.emitUnlinked(p.en.padFor(peer))
		})
	})
	return p.unlinked.Add(fn)
}

func (p *Pad) emitUnlinked(peer *Pad) {
	if p.unlinked.Len() == 0 {
		return
	}
	var other core.Pad
	if peer != nil {
		other = peer
	}
	p.en.dispatcher.Post(func() {
		for _, fn := range p.unlinked.Snapshot() {
			fn(p, other)
		}
	})
}
