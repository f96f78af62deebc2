package rtc

import (
	"context"
	"sync/atomic"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/freedesktop/telepathy-phoenix/internal/adapters/engine"
)

// rtpReader is the part of *webrtc.TrackRemote a relay needs.
type rtpReader interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

var _ rtpReader = (*webrtc.TrackRemote)(nil)

// relay pumps one remote track into a conference src pad.
type relay struct {
	src    rtpReader
	pad    *engine.Pad
	cancel context.CancelFunc

	forwarded atomic.Uint64
	dropped   atomic.Uint64
}

func newRelay(src rtpReader, pad *engine.Pad, cancel context.CancelFunc) *relay {
	return &relay{src: src, pad: pad, cancel: cancel}
}

// loop reads until the track ends or ctx is cancelled.
func (r *relay) loop(ctx context.Context, logger *zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Str("pad", r.pad.Name()).Msg("relay ctx done")
			return
		default:
		}
		pkt, _, err := r.src.ReadRTP()
		if err != nil {
			logger.Debug().Err(err).Str("pad", r.pad.Name()).
				Uint64("forwarded", r.forwarded.Load()).Uint64("dropped", r.dropped.Load()).
				Msg("relay read RTP ended")
			return
		}
		r.forward(pkt)
	}
}

// forward pushes pkt downstream; packets with nowhere to go are counted.
func (r *relay) forward(pkt *rtp.Packet) {
	if err := r.pad.Push(pkt); err != nil {
		r.dropped.Add(1)
		return
	}
	r.forwarded.Add(1)
}
