package rtc

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedesktop/telepathy-phoenix/internal/adapters/engine"
	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

type scriptedReader struct {
	pkts chan *rtp.Packet
}

func newScriptedReader() *scriptedReader {
	return &scriptedReader{pkts: make(chan *rtp.Packet)}
}

func (r *scriptedReader) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	p, ok := <-r.pkts
	if !ok {
		return nil, nil, io.EOF
	}
	return p, nil, nil
}

type channelRig struct {
	channel *Channel
	graph   core.Graph
	capture *engine.Element

	mu       sync.Mutex
	received []*rtp.Packet
}

func newChannelRig(t *testing.T) *channelRig {
	t.Helper()
	en := engine.New(inline)
	g, err := en.NewGraph("rig")
	require.NoError(t, err)
	t.Cleanup(g.Release)

	rig := &channelRig{graph: g, capture: en.NewBin("capture")}
	_, err = rig.capture.AddSinkPad("sink", func(pkt *rtp.Packet) error {
		rig.mu.Lock()
		defer rig.mu.Unlock()
		rig.received = append(rig.received, pkt)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, g.Add(rig.capture))

	ch, err := newChannel(en, inline, []mediaSection{{Mid: "0", Kind: domain.MediaKindAudio}}, "stream", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, g.Add(ch.conference))
	require.NoError(t, g.SetState(core.StatePlaying))
	rig.channel = ch
	return rig
}

func (r *channelRig) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.received)
}

// linkOnAdd links every new src pad to the capture bin and signals its unlink.
func (r *channelRig) linkOnAdd(t *testing.T) (<-chan core.Codec, <-chan struct{}) {
	codecs := make(chan core.Codec, 1)
	unlinked := make(chan struct{})
	r.channel.contents[0].OnSrcPadAdded(func(pad core.Pad, codec core.Codec) {
		require.NoError(t, pad.Link(r.capture.StaticPad("sink")))
		pad.OnUnlinked(func(core.Pad, core.Pad) { close(unlinked) })
		codecs <- codec
	})
	return codecs, unlinked
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestChannel_RelayForwardsUntilTrackEnds(t *testing.T) {
	rig := newChannelRig(t)
	codecs, unlinked := rig.linkOnAdd(t)

	reader := newScriptedReader()
	rig.channel.startRelay(rig.channel.contents[0], reader, "src_0_1", core.Codec{Name: "PCMU", ClockRate: 8000})
	assert.Equal(t, "PCMU", (<-codecs).Name)

	for i := 0; i < 3; i++ {
		reader.pkts <- &rtp.Packet{Header: rtp.Header{Version: 2, SequenceNumber: uint16(i)}, Payload: []byte{1, 2}}
	}
	require.Eventually(t, func() bool { return rig.count() == 3 }, 5*time.Second, 10*time.Millisecond)

	close(reader.pkts)
	waitClosed(t, unlinked)

	rig.mu.Lock()
	assert.Equal(t, uint16(2), rig.received[2].SequenceNumber)
	rig.mu.Unlock()
	assert.Nil(t, rig.channel.conference.StaticPad("src_0_1"), "pad removed at track end")
}

func TestChannel_CloseDropsRelaysAndAnnouncesRemoval(t *testing.T) {
	rig := newChannelRig(t)
	_, unlinked := rig.linkOnAdd(t)

	var removed []core.Element
	rig.channel.OnConferenceRemoved(func(conf core.Element) { removed = append(removed, conf) })

	reader := newScriptedReader()
	t.Cleanup(func() { close(reader.pkts) })
	rig.channel.startRelay(rig.channel.contents[0], reader, "src_0_2", core.Codec{})

	rig.channel.close()
	rig.channel.close()
	waitClosed(t, unlinked)

	require.Len(t, removed, 1)
	assert.Equal(t, rig.channel.conference.Name(), removed[0].Name())

	rig.channel.startRelay(rig.channel.contents[0], newScriptedReader(), "src_0_3", core.Codec{})
	assert.Nil(t, rig.channel.conference.StaticPad("src_0_3"), "no relays after close")
}

func TestChannel_BusMessage(t *testing.T) {
	rig := newChannelRig(t)

	rig.channel.BusMessage(core.Message{Kind: core.MessageError, Source: "other", Err: assert.AnError})
	assert.NoError(t, rig.channel.LastError())

	rig.channel.BusMessage(core.Message{Kind: core.MessageError, Source: rig.channel.conference.Name(), Err: assert.AnError})
	assert.ErrorIs(t, rig.channel.LastError(), assert.AnError)
}

func TestRTPCaps(t *testing.T) {
	assert.Equal(t, engine.RTPCaps, rtpCaps(domain.MediaKindAudio, core.Codec{}))
	assert.Equal(t,
		"application/x-rtp,media=video,encoding-name=VP8,clock-rate=90000,payload=96",
		rtpCaps(domain.MediaKindVideo, core.Codec{Name: "VP8", PayloadType: 96, ClockRate: 90000}))
}

func TestChannel_ContentFor(t *testing.T) {
	en := engine.New(inline)
	ch, err := newChannel(en, inline, []mediaSection{
		{Mid: "a", Kind: domain.MediaKindAudio},
		{Mid: "v", Kind: domain.MediaKindVideo},
	}, "stream", zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "v", ch.contentFor("v", domain.MediaKindAudio).ID())
	assert.Equal(t, "v", ch.contentFor("", domain.MediaKindVideo).ID(), "falls back to kind")
	assert.Nil(t, ch.contentFor("", domain.MediaKindUnknown))
}
