package core

import (
	"fmt"

	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

type Codec struct {
	Name        string
	PayloadType uint8
	ClockRate   uint32
	Channels    uint16
}

func (c Codec) String() string {
	if c.Channels > 0 {
		return fmt.Sprintf("%d: %s %d/%d", c.PayloadType, c.Name, c.ClockRate, c.Channels)
	}
	return fmt.Sprintf("%d: %s %d", c.PayloadType, c.Name, c.ClockRate)
}

// MediaChannel is the call-media subsystem of one call. Conferences are
// elements the session inserts into its graph.
type MediaChannel interface {
	OnConferenceAdded(fn func(conference Element)) (unsubscribe func())
	OnConferenceRemoved(fn func(conference Element)) (unsubscribe func())
	OnContentAdded(fn func(Content)) (unsubscribe func())
	// BusMessage feeds engine messages back for internal bookkeeping.
	BusMessage(Message)
}

// Content is one negotiated media stream of a call.
type Content interface {
	ID() string
	MediaKind() domain.MediaKind
	// SinkPad receives the media the session sends on this content.
	SinkPad() Pad
	// OnStartSending handlers report whether a source is in place.
	OnStartSending(fn func() bool) (unsubscribe func())
	OnSrcPadAdded(fn func(pad Pad, codec Codec)) (unsubscribe func())
}

// PropertyNotifier applies default properties to elements as they join a graph.
type PropertyNotifier interface {
	Attach(Graph)
	Release()
}

type NotifierSource interface {
	DefaultNotifier(conference Element) (PropertyNotifier, bool)
}
