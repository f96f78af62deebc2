package engine

import (
	"fmt"
	"slices"

	"github.com/pion/rtp"
	"github.com/rs/zerolog/log"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

// RTPCaps is used when an application pad is given no caps.
const RTPCaps = "application/x-rtp"

// ChainFunc receives every packet that reaches an application sink pad, on
// the streaming thread.
type ChainFunc func(pkt *rtp.Packet) error

// AddSrcPad adds a src pad fed by Push. caps describe the RTP stream.
func (e *Element) AddSrcPad(name, caps string) (*Pad, error) {
	if caps == "" {
		caps = RTPCaps
	}
	el, err := gst.NewElement("appsrc")
	if err != nil {
		return nil, fmt.Errorf("failed to create appsrc: %w", err)
	}
	src := app.SrcFromElement(el)
	_ = src.SetProperty("caps", gst.NewCapsFromString(caps))
	_ = src.SetProperty("is-live", true)
	_ = src.SetProperty("format", gst.FormatTime)
	_ = src.SetProperty("do-timestamp", true)
	_ = src.SetProperty("max-bytes", uint64(512*1024))
	// drop the oldest queued buffer while nothing consumes the pad
	_ = src.SetProperty("leaky-type", 2)

	p, err := e.addAppPad(name, el, "src")
	if err != nil {
		return nil, err
	}
	p.source = src
	return p, nil
}

// AddSinkPad adds a sink pad whose packets are handed to chain.
func (e *Element) AddSinkPad(name string, chain ChainFunc) (*Pad, error) {
	sink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	_ = sink.SetProperty("caps", gst.NewCapsFromString(RTPCaps))
	_ = sink.SetProperty("sync", false)
	_ = sink.SetProperty("async", false)
	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(s *app.Sink) gst.FlowReturn {
			return onSample(s, e.name, chain)
		},
	})
	return e.addAppPad(name, sink.Element, "sink")
}

// addAppPad puts inner into the bin and ghosts its target pad as name.
func (e *Element) addAppPad(name string, inner *gst.Element, target string) (*Pad, error) {
	if e.bin == nil {
		return nil, fmt.Errorf("%s: %w", e.name, ErrNotABin)
	}
	if e.Released() {
		return nil, fmt.Errorf("%s: %w", e.name, ErrReleased)
	}
	if e.gst.GetStaticPad(name) != nil {
		return nil, fmt.Errorf("%s.%s: %w", e.name, name, ErrDuplicatePad)
	}
	if err := e.bin.Add(inner); err != nil {
		return nil, fmt.Errorf("%s: add %s: %w", e.name, inner.GetName(), err)
	}
	ghost := gst.NewGhostPad(name, inner.GetStaticPad(target))
	if ghost == nil || !e.gst.AddPad(ghost.Pad) {
		_ = e.bin.Remove(inner)
		return nil, fmt.Errorf("%s.%s: %w", e.name, name, ErrDuplicatePad)
	}
	inner.SyncStateWithParent()

	p := e.en.padFor(ghost.Pad)
	p.inner = inner
	e.mu.Lock()
	e.appPads = append(e.appPads, p)
	e.mu.Unlock()
	return p, nil
}

// Owns reports whether source names the element or one of its application
// pad children.
func (e *Element) Owns(source string) bool {
	if source == e.name {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.appPads {
		if p.inner.GetName() == source {
			return true
		}
	}
	return false
}

// RemovePad unlinks p and takes it and its backing element out of the bin.
func (e *Element) RemovePad(p *Pad) {
	e.mu.Lock()
	idx := slices.Index(e.appPads, p)
	if idx >= 0 {
		e.appPads = slices.Delete(e.appPads, idx, idx+1)
	}
	e.mu.Unlock()
	if idx < 0 {
		return
	}

	p.unlinkAny()
	if p.source != nil {
		p.source.EndStream()
	}
	e.gst.RemovePad(p.gst)
	if err := p.inner.SetState(gst.StateNull); err != nil {
		log.Debug().Err(err).Str("module", "engine").Str("pad", p.name).Msg("stop pad element")
	}
	if err := e.bin.Remove(p.inner); err != nil {
		log.Debug().Err(err).Str("module", "engine").Str("pad", p.name).Msg("remove pad element")
	}
	e.en.forgetPad(p)
}

// Push sends pkt downstream from an application src pad.
func (p *Pad) Push(pkt *rtp.Packet) error {
	if p.source == nil {
		return ErrNotAppPad
	}
	raw, err := pkt.Marshal()
	if err != nil {
		return err
	}
	return flowError(p.source.PushBuffer(gst.NewBufferFromBytes(raw)))
}

func flowError(ret gst.FlowReturn) error {
	switch ret {
	case gst.FlowOK:
		return nil
	case gst.FlowFlushing:
		return ErrFlushing
	case gst.FlowNotLinked:
		return ErrNotLinked
	case gst.FlowEOS:
		return ErrEOS
	default:
		return fmt.Errorf("push: %s", ret.String())
	}
}

// onSample copies the buffer out of GStreamer before parsing; GStreamer
// reuses it once unmapped.
func onSample(sink *app.Sink, owner string, chain ChainFunc) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}
	mapInfo := buffer.Map(gst.MapRead)
	data := make([]byte, len(mapInfo.Bytes()))
	copy(data, mapInfo.Bytes())
	buffer.Unmap()

	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(data); err != nil {
		log.Debug().Err(err).Str("module", "engine").Str("element", owner).Msg("drop non-RTP buffer")
		return gst.FlowOK
	}
	if err := chain(pkt); err != nil {
		log.Debug().Err(err).Str("module", "engine").Str("element", owner).Msg("chain refused packet")
	}
	return gst.FlowOK
}

var _ core.Pad = (*Pad)(nil)
