package rtc

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"

	"github.com/freedesktop/telepathy-phoenix/internal/adapters/engine"
	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

// Content is one negotiated m-line. Its sink pad on the conference feeds the
// local track the remote side receives.
type Content struct {
	id    string
	kind  domain.MediaKind
	sink  *engine.Pad
	track *webrtc.TrackLocalStaticRTP

	startSending core.Handlers[func() bool]
	srcPads      core.Handlers[func(core.Pad, core.Codec)]
}

func newContent(conference *engine.Element, sec mediaSection, streamID string) (*Content, error) {
	capability := audioCapability
	if sec.Kind == domain.MediaKindVideo {
		capability = videoCapability
	}
	track, err := webrtc.NewTrackLocalStaticRTP(capability, sec.Kind.String()+"-"+sec.Mid, streamID)
	if err != nil {
		return nil, err
	}
	c := &Content{id: sec.Mid, kind: sec.Kind, track: track}
	sink, err := conference.AddSinkPad("sink_"+sec.Mid, c.write)
	if err != nil {
		return nil, err
	}
	c.sink = sink
	return c, nil
}

func (c *Content) ID() string                  { return c.id }
func (c *Content) MediaKind() domain.MediaKind { return c.kind }
func (c *Content) SinkPad() core.Pad           { return c.sink }

func (c *Content) OnStartSending(fn func() bool) func() {
	return c.startSending.Add(fn)
}

func (c *Content) OnSrcPadAdded(fn func(core.Pad, core.Codec)) func() {
	return c.srcPads.Add(fn)
}

func (c *Content) write(pkt *rtp.Packet) error {
	if err := c.track.WriteRTP(pkt); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return err
	}
	return nil
}

// requestSending asks the handlers for a source; false when none answered yes.
func (c *Content) requestSending() bool {
	ok := false
	for _, fn := range c.startSending.Snapshot() {
		if fn() {
			ok = true
		}
	}
	return ok
}

func (c *Content) srcPadAdded(pad core.Pad, codec core.Codec) {
	for _, fn := range c.srcPads.Snapshot() {
		fn(pad, codec)
	}
}

func (c *Content) clear() {
	c.startSending.Clear()
	c.srcPads.Clear()
}

func codecOf(p webrtc.RTPCodecParameters) core.Codec {
	name := p.MimeType
	if i := strings.IndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return core.Codec{
		Name:        strings.ToUpper(name),
		PayloadType: uint8(p.PayloadType),
		ClockRate:   p.ClockRate,
		Channels:    p.Channels,
	}
}

// rtpCaps describes a remote stream to the graph.
func rtpCaps(kind domain.MediaKind, codec core.Codec) string {
	if codec.Name == "" {
		return engine.RTPCaps
	}
	return fmt.Sprintf("application/x-rtp,media=%s,encoding-name=%s,clock-rate=%d,payload=%d",
		kind, codec.Name, codec.ClockRate, codec.PayloadType)
}
