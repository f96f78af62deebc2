package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinyzimmer/go-gst/gst"

	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

var inline = core.DispatchFunc(func(fn func()) { fn() })

type busRecorder struct {
	mu   sync.Mutex
	msgs []core.Message
}

func (r *busRecorder) watch(m core.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return true
}

func (r *busRecorder) find(kind core.MessageKind, source string) (core.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.Kind == kind && m.Source == source {
			return m, true
		}
	}
	return core.Message{}, false
}

func newTestGraph(t *testing.T, name string) (*Engine, *Pipeline) {
	t.Helper()
	en := New(inline)
	g, err := en.NewGraph(name)
	require.NoError(t, err)
	t.Cleanup(g.Release)
	return en, g.(*Pipeline)
}

func mustElement(t *testing.T, en *Engine, g *Pipeline, factory string) *Element {
	t.Helper()
	el, err := en.NewElement(factory)
	require.NoError(t, err)
	require.NoError(t, g.Add(el))
	return el.(*Element)
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "channel-abc", objectName("/channel/abc"))
	assert.Equal(t, "plain", objectName("plain"))
	assert.Empty(t, objectName("/"))
}

func TestStateMapping(t *testing.T) {
	for _, s := range []core.State{core.StateNull, core.StateReady, core.StatePaused, core.StatePlaying} {
		assert.Equal(t, s, fromGst(toGst(s)))
	}
}

func TestResultMapping(t *testing.T) {
	assert.NoError(t, flowError(gst.FlowOK))
	assert.ErrorIs(t, flowError(gst.FlowFlushing), ErrFlushing)
	assert.ErrorIs(t, flowError(gst.FlowNotLinked), ErrNotLinked)
	assert.ErrorIs(t, flowError(gst.FlowEOS), ErrEOS)
	assert.Error(t, flowError(gst.FlowError))

	assert.ErrorIs(t, linkError(gst.PadLinkWasLinked), ErrWasLinked)
	assert.ErrorIs(t, linkError(gst.PadLinkWrongHierarchy), ErrLinkWrongHierarchy)
	assert.ErrorIs(t, linkError(gst.PadLinkNoFormat), ErrLinkNoFormat)
	assert.ErrorIs(t, linkError(gst.PadLinkRefused), ErrLinkRefused)
}

func TestGraphNameFromCallPath(t *testing.T) {
	_, g := newTestGraph(t, "/channel/abc")
	assert.Equal(t, "channel-abc", g.Name())
}

func TestBinNaming(t *testing.T) {
	en := New(inline)
	a, b := en.NewBin("rtpconference"), en.NewBin("rtpconference")
	t.Cleanup(a.Release)
	t.Cleanup(b.Release)
	assert.Equal(t, "rtpconference0", a.Name())
	assert.Equal(t, "rtpconference1", b.Name())
	assert.Equal(t, "rtpconference", a.Factory())
}

func TestNewElementUnknownFactory(t *testing.T) {
	en := New(inline)
	_, err := en.NewElement("no-such-factory")
	assert.ErrorIs(t, err, ErrNoSuchFactory)
}

func TestPadsKeepIdentity(t *testing.T) {
	en, g := newTestGraph(t, "identity")
	q := mustElement(t, en, g, "queue")
	sink := mustElement(t, en, g, "fakesink")

	src := q.StaticPad("src")
	require.NotNil(t, src)
	assert.Same(t, src, q.StaticPad("src"))
	assert.Equal(t, core.PadSrc, src.Direction())
	assert.Same(t, q, src.Parent())

	require.NoError(t, src.Link(sink.StaticPad("sink")))
	assert.Same(t, sink.StaticPad("sink"), src.Peer())
	assert.Same(t, src, sink.StaticPad("sink").Peer())
}

func TestPadLinkRules(t *testing.T) {
	en, g := newTestGraph(t, "rules")
	q := mustElement(t, en, g, "queue")
	sink := mustElement(t, en, g, "fakesink")

	assert.ErrorIs(t, sink.StaticPad("sink").Link(q.StaticPad("src")), ErrLinkWrongDirection)
	require.NoError(t, q.StaticPad("src").Link(sink.StaticPad("sink")))
	assert.ErrorIs(t, q.StaticPad("src").Link(sink.StaticPad("sink")), ErrWasLinked)

	_, other := newTestGraph(t, "other")
	far := mustElement(t, en, other, "fakesink")
	q2 := mustElement(t, en, g, "queue")
	assert.ErrorIs(t, q2.StaticPad("src").Link(far.StaticPad("sink")), ErrLinkWrongHierarchy)
}

func TestUnlinkNotifiesBothPads(t *testing.T) {
	en, g := newTestGraph(t, "unlink")
	q := mustElement(t, en, g, "queue")
	sink := mustElement(t, en, g, "fakesink")
	src, in := q.StaticPad("src"), sink.StaticPad("sink")
	require.NoError(t, src.Link(in))

	var seen []string
	src.OnUnlinked(func(pad, peer core.Pad) { seen = append(seen, pad.Name()+">"+peer.Name()) })
	unsub := in.OnUnlinked(func(pad, peer core.Pad) { seen = append(seen, pad.Name()+">"+peer.Name()) })
	unsub()

	assert.True(t, in.Unlink(src))
	assert.False(t, src.IsLinked())
	assert.Equal(t, []string{"src>sink"}, seen)
	assert.False(t, src.Unlink(in))
}

func TestRemoveUnlinksPads(t *testing.T) {
	en, g := newTestGraph(t, "remove")
	q := mustElement(t, en, g, "queue")
	sink := mustElement(t, en, g, "fakesink")
	require.NoError(t, q.StaticPad("src").Link(sink.StaticPad("sink")))

	unlinked := false
	q.StaticPad("src").OnUnlinked(func(core.Pad, core.Pad) { unlinked = true })

	require.NoError(t, g.Remove(sink))
	assert.True(t, unlinked)
	assert.Nil(t, q.StaticPad("src").Peer())
	assert.ErrorIs(t, g.Remove(sink), ErrNotInGraph)
	sink.Release()
}

func TestPipelineStateSkipsLockedElements(t *testing.T) {
	en, g := newTestGraph(t, "locked")
	free := mustElement(t, en, g, "fakesink")
	locked := mustElement(t, en, g, "fakesink")
	locked.SetLockedState(true)
	assert.True(t, locked.LockedState())

	require.NoError(t, g.SetState(core.StatePaused))
	assert.Equal(t, core.StatePaused, g.State())
	assert.Equal(t, core.StatePaused, free.State())
	assert.Equal(t, core.StateNull, locked.State())
}

func TestReleasedElementRefusesStateChange(t *testing.T) {
	en := New(inline)
	el, err := en.NewElement("queue")
	require.NoError(t, err)
	el.Release()
	el.Release()
	assert.ErrorIs(t, el.SetState(core.StatePlaying), ErrReleased)
}

func TestSetPropertyCoercesConfigValues(t *testing.T) {
	en := New(inline)
	q, err := en.NewElement("queue")
	require.NoError(t, err)
	t.Cleanup(q.Release)

	require.NoError(t, q.SetProperty("max-size-buffers", "7"))
	v, ok := q.Property("max-size-buffers")
	require.True(t, ok)
	assert.EqualValues(t, 7, v)

	require.NoError(t, q.SetProperty("silent", "true"))
	v, _ = q.Property("silent")
	assert.Equal(t, true, v)

	assert.ErrorIs(t, q.SetProperty("no-such-property", 1), ErrNoSuchProperty)
	assert.ErrorIs(t, q.SetProperty("max-size-buffers", "many"), ErrBadProperty)
	assert.ErrorIs(t, q.SetProperty("name", "renamed"), ErrNoSuchProperty)
}

func TestAppPadsCarryRTP(t *testing.T) {
	en, g := newTestGraph(t, "apppads")
	got := make(chan *rtp.Packet, 4)

	out := en.NewBin("sender")
	src, err := out.AddSrcPad("src_0", "application/x-rtp,media=audio,encoding-name=PCMU,clock-rate=8000,payload=0")
	require.NoError(t, err)
	in := en.NewBin("receiver")
	sink, err := in.AddSinkPad("sink_0", func(pkt *rtp.Packet) error {
		got <- pkt
		return nil
	})
	require.NoError(t, err)

	_, err = in.AddSinkPad("sink_0", func(*rtp.Packet) error { return nil })
	assert.ErrorIs(t, err, ErrDuplicatePad)
	assert.Same(t, sink, in.StaticPad("sink_0"))

	require.NoError(t, g.Add(out))
	require.NoError(t, g.Add(in))
	require.NoError(t, src.Link(sink))
	require.NoError(t, g.SetState(core.StatePlaying))

	want := &rtp.Packet{Header: rtp.Header{Version: 2, PayloadType: 0, SequenceNumber: 42, SSRC: 7}, Payload: []byte{1, 2, 3}}
	require.NoError(t, src.Push(want))

	select {
	case pkt := <-got:
		assert.Equal(t, uint16(42), pkt.SequenceNumber)
		assert.Equal(t, uint32(7), pkt.SSRC)
		assert.Equal(t, []byte{1, 2, 3}, pkt.Payload)
	case <-time.After(5 * time.Second):
		t.Fatal("packet did not reach the sink pad")
	}

	assert.True(t, out.Owns(out.Name()))
	assert.False(t, out.Owns("elsewhere"))

	unlinked := false
	src.OnUnlinked(func(core.Pad, core.Pad) { unlinked = true })
	out.RemovePad(src)
	assert.True(t, unlinked)
	assert.Nil(t, out.StaticPad("src_0"))
	assert.Empty(t, out.Pads())
	assert.ErrorIs(t, (&Pad{}).Push(want), ErrNotAppPad)
}

func TestAppPadsNeedABin(t *testing.T) {
	en := New(inline)
	q, err := en.NewElement("queue")
	require.NoError(t, err)
	t.Cleanup(q.Release)
	_, err = q.(*Element).AddSrcPad("src_0", "")
	assert.ErrorIs(t, err, ErrNotABin)
}

func TestParseBin(t *testing.T) {
	en := New(inline)
	el, err := en.ParseBin("audiotestsrc is-live=true ! audioconvert")
	require.NoError(t, err)
	t.Cleanup(el.Release)
	assert.Equal(t, "audiotestsrc", el.Factory())
	require.NotNil(t, el.StaticPad("src"))
	assert.Equal(t, core.PadSrc, el.StaticPad("src").Direction())

	_, err = en.ParseBin("no-such-element ! queue")
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestBusReportsPipelineStateChanges(t *testing.T) {
	en, g := newTestGraph(t, "bus")
	rec := &busRecorder{}
	g.Bus().AddWatch(rec.watch)

	src, err := en.ParseBin("audiotestsrc is-live=true")
	require.NoError(t, err)
	require.NoError(t, g.Add(src))
	sink := mustElement(t, en, g, "fakesink")
	require.NoError(t, src.StaticPad("src").Link(sink.StaticPad("sink")))
	require.NoError(t, g.SetState(core.StatePlaying))

	require.Eventually(t, func() bool {
		m, ok := rec.find(core.MessageStateChanged, g.Name())
		return ok && m.NewState != core.StateNull
	}, 5*time.Second, 20*time.Millisecond)
}

func TestBusPostAndWatchRemoval(t *testing.T) {
	_, g := newTestGraph(t, "post")
	var first, second int
	g.Bus().AddWatch(func(core.Message) bool { first++; return false })
	g.Bus().AddWatch(func(core.Message) bool { second++; return true })

	g.Bus().Post(core.Message{Kind: core.MessageError, Source: "x", Err: assert.AnError})
	g.Bus().Post(core.Message{Kind: core.MessageWarning, Source: "x"})
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)

	g.Release()
	g.Bus().Post(core.Message{Kind: core.MessageInfo})
	assert.Equal(t, 2, second)
	assert.ErrorIs(t, g.Add(New(inline).NewBin("late")), ErrReleased)
}

func TestPropertyNotifier(t *testing.T) {
	en, g := newTestGraph(t, "notifier")
	early := mustElement(t, en, g, "queue")

	n, ok := DefaultProperties{
		"rtpconference": {"queue": {"max-size-buffers": 3, "no-such-property": 1}},
	}.DefaultNotifier(en.NewBin("rtpconference"))
	require.True(t, ok)
	n.Attach(g)
	late := mustElement(t, en, g, "queue")

	for _, el := range []*Element{early, late} {
		v, _ := el.Property("max-size-buffers")
		assert.EqualValues(t, 3, v, el.Name())
	}

	n.Release()
	after := mustElement(t, en, g, "queue")
	v, _ := after.Property("max-size-buffers")
	assert.EqualValues(t, 200, v, "queue default")

	_, ok = DefaultProperties{}.DefaultNotifier(en.NewBin("other"))
	assert.False(t, ok)
}
