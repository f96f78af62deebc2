package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

const busPollInterval = 50 * time.Millisecond

type watch struct {
	fn     func(core.Message) bool
	remove func()
}

// Bus delivers graph messages through the dispatcher.
type Bus struct {
	dispatcher core.Dispatcher
	watches    core.Handlers[*watch]
	closed     atomic.Bool
}

func newBus(d core.Dispatcher) *Bus {
	return &Bus{dispatcher: d}
}

func (b *Bus) AddWatch(fn func(core.Message) bool) func() {
	w := &watch{fn: fn}
	w.remove = b.watches.Add(w)
	return w.remove
}

// Post delivers msg to the watches as if the pipeline had posted it.
func (b *Bus) Post(msg core.Message) {
	if b.closed.Load() || b.watches.Len() == 0 {
		return
	}
	b.dispatcher.Post(func() {
		for _, w := range b.watches.Snapshot() {
			if !w.fn(msg) {
				w.remove()
			}
		}
	})
}

func (b *Bus) close() {
	b.closed.Store(true)
	b.watches.Clear()
}

// monitor polls the pipeline bus with a short timeout until ctx is done.
func (b *Bus) monitor(ctx context.Context, bus *gst.Bus) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		msg := bus.TimedPop(busPollInterval)
		if msg == nil {
			continue
		}
		if m, ok := convertMessage(msg); ok {
			b.Post(m)
		}
	}
}

func convertMessage(msg *gst.Message) (core.Message, bool) {
	out := core.Message{Source: msg.Source()}
	switch msg.Type() {
	case gst.MessageError:
		out.Kind = core.MessageError
		out.Debug, out.Err = parsed(msg.ParseError())
	case gst.MessageWarning:
		out.Kind = core.MessageWarning
		out.Debug, out.Err = parsed(msg.ParseWarning())
	case gst.MessageInfo:
		out.Kind = core.MessageInfo
		out.Debug, out.Err = parsed(msg.ParseInfo())
	case gst.MessageStateChanged:
		old, cur := msg.ParseStateChanged()
		out.Kind = core.MessageStateChanged
		out.OldState, out.NewState = fromGst(old), fromGst(cur)
	case gst.MessageEOS:
		out.Kind = core.MessageEOS
	default:
		return out, false
	}
	return out, true
}

func parsed(gerr *gst.GError) (string, error) {
	if gerr == nil {
		return "", ErrUnknownMessage
	}
	return gerr.DebugString(), gerr
}
