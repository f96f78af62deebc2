package orch

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

var (
	errAlreadyLinked = errors.New("already linked")
	errReleased      = errors.New("released")
	errNotInGraph    = errors.New("not in graph")
)

// journal records teardown-relevant events in order.
type journal struct{ events []string }

func (j *journal) add(format string, args ...any) {
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) index(event string) int { return slices.Index(j.events, event) }

type fakePad struct {
	name     string
	dir      core.PadDirection
	parent   core.Element
	peer     *fakePad
	linkErr  error
	unlinked core.Handlers[func(pad, peer core.Pad)]
}

func (p *fakePad) Name() string                 { return p.name }
func (p *fakePad) Direction() core.PadDirection { return p.dir }
func (p *fakePad) Parent() core.Element         { return p.parent }

func (p *fakePad) Link(sink core.Pad) error {
	s := sink.(*fakePad)
	if p.linkErr != nil {
		return p.linkErr
	}
	if s.linkErr != nil {
		return s.linkErr
	}
	if p.peer != nil || s.peer != nil {
		return errAlreadyLinked
	}
	p.peer, s.peer = s, p
	return nil
}

func (p *fakePad) Unlink(peer core.Pad) bool {
	other, ok := peer.(*fakePad)
	if !ok || p.peer != other {
		return false
	}
	p.peer, other.peer = nil, nil
	for _, fn := range p.unlinked.Snapshot() {
		fn(p, other)
	}
	for _, fn := range other.unlinked.Snapshot() {
		fn(other, p)
	}
	return true
}

func (p *fakePad) Peer() core.Pad {
	if p.peer == nil {
		return nil
	}
	return p.peer
}

func (p *fakePad) IsLinked() bool { return p.peer != nil }

func (p *fakePad) OnUnlinked(fn func(pad, peer core.Pad)) func() { return p.unlinked.Add(fn) }

type fakeElement struct {
	name     string
	factory  string
	pads     map[string]*fakePad
	state    core.State
	locked   bool
	released int
	stateErr error
	props    map[string]any
	journal  *journal
}

func newFakeElement(j *journal, name, factory string, padNames ...string) *fakeElement {
	e := &fakeElement{name: name, factory: factory, pads: map[string]*fakePad{}, props: map[string]any{}, journal: j}
	for _, n := range padNames {
		dir := core.PadSrc
		if strings.HasPrefix(n, "sink") {
			dir = core.PadSink
		}
		e.pads[n] = &fakePad{name: n, dir: dir, parent: e}
	}
	return e
}

func (e *fakeElement) Name() string    { return e.name }
func (e *fakeElement) Factory() string { return e.factory }

func (e *fakeElement) StaticPad(name string) core.Pad {
	if p, ok := e.pads[name]; ok {
		return p
	}
	return nil
}

func (e *fakeElement) SetState(s core.State) error {
	if e.released > 0 {
		return errReleased
	}
	if e.stateErr != nil && s == core.StatePlaying {
		return e.stateErr
	}
	e.state = s
	return nil
}

func (e *fakeElement) State() core.State     { return e.state }
func (e *fakeElement) SetLockedState(l bool) { e.locked = l }
func (e *fakeElement) LockedState() bool     { return e.locked }
func (e *fakeElement) Property(k string) (any, bool) {
	v, ok := e.props[k]
	return v, ok
}

func (e *fakeElement) SetProperty(k string, v any) error {
	e.props[k] = v
	return nil
}

func (e *fakeElement) Release() {
	e.released++
	e.journal.add("release %s", e.name)
}

type fakeBus struct {
	watches core.Handlers[func(core.Message) bool]
}

func (b *fakeBus) AddWatch(fn func(core.Message) bool) func() { return b.watches.Add(fn) }

func (b *fakeBus) Post(m core.Message) {
	for _, fn := range b.watches.Snapshot() {
		fn(m)
	}
}

type fakeGraph struct {
	elements []core.Element
	state    core.State
	startErr error
	addErr   map[string]error
	released bool
	bus      fakeBus
	added    core.Handlers[func(core.Element)]
	journal  *journal
}

func (g *fakeGraph) Name() string { return "fake" }

func (g *fakeGraph) Add(el core.Element) error {
	if err := g.addErr[el.Factory()]; err != nil {
		return err
	}
	g.elements = append(g.elements, el)
	for _, fn := range g.added.Snapshot() {
		fn(el)
	}
	return nil
}

func (g *fakeGraph) Remove(el core.Element) error {
	idx := slices.Index(g.elements, el)
	if idx < 0 {
		return errNotInGraph
	}
	g.elements = slices.Delete(g.elements, idx, idx+1)
	if fe, ok := el.(*fakeElement); ok {
		for _, p := range fe.pads {
			if p.peer != nil {
				p.Unlink(p.peer)
			}
		}
	}
	g.journal.add("remove %s", el.Name())
	return nil
}

func (g *fakeGraph) has(el core.Element) bool { return slices.Contains(g.elements, el) }

func (g *fakeGraph) Elements() []core.Element { return slices.Clone(g.elements) }

func (g *fakeGraph) SetState(s core.State) error {
	if s == core.StatePlaying && g.startErr != nil {
		return g.startErr
	}
	g.state = s
	return nil
}

func (g *fakeGraph) State() core.State { return g.state }
func (g *fakeGraph) Bus() core.Bus     { return &g.bus }

func (g *fakeGraph) OnElementAdded(fn func(core.Element)) func() { return g.added.Add(fn) }

func (g *fakeGraph) Release() {
	g.released = true
	g.journal.add("release graph")
}

type fakeEngine struct {
	graph     *fakeGraph
	created   []*fakeElement
	parsed    []string
	parseErr  error
	configure func(*fakeElement)
	journal   *journal
}

func (en *fakeEngine) NewGraph(string) (core.Graph, error) { return en.graph, nil }

func (en *fakeEngine) NewElement(factory string) (core.Element, error) {
	var pads []string
	switch factory {
	case "queue":
		pads = []string{"sink", "src"}
	case "fakesink":
		pads = []string{"sink"}
	default:
		return nil, fmt.Errorf("no factory %q", factory)
	}
	return en.add(newFakeElement(en.journal, fmt.Sprintf("%s%d", factory, len(en.created)), factory, pads...)), nil
}

func (en *fakeEngine) ParseBin(desc string) (core.Element, error) {
	if en.parseErr != nil {
		return nil, en.parseErr
	}
	en.parsed = append(en.parsed, desc)
	factory := strings.Fields(desc)[0]
	return en.add(newFakeElement(en.journal, fmt.Sprintf("%s%d", factory, len(en.created)), factory, "src")), nil
}

func (en *fakeEngine) add(e *fakeElement) *fakeElement {
	if en.configure != nil {
		en.configure(e)
	}
	en.created = append(en.created, e)
	return e
}

func (en *fakeEngine) byFactory(factory string) []*fakeElement {
	var out []*fakeElement
	for _, e := range en.created {
		if e.factory == factory {
			out = append(out, e)
		}
	}
	return out
}

type fakeChannel struct {
	confAdded   core.Handlers[func(core.Element)]
	confRemoved core.Handlers[func(core.Element)]
	contents    core.Handlers[func(core.Content)]
	messages    []core.Message
}

func (c *fakeChannel) OnConferenceAdded(fn func(core.Element)) func()   { return c.confAdded.Add(fn) }
func (c *fakeChannel) OnConferenceRemoved(fn func(core.Element)) func() { return c.confRemoved.Add(fn) }
func (c *fakeChannel) OnContentAdded(fn func(core.Content)) func()      { return c.contents.Add(fn) }
func (c *fakeChannel) BusMessage(m core.Message)                        { c.messages = append(c.messages, m) }

func (c *fakeChannel) addConference(conf core.Element) {
	for _, fn := range c.confAdded.Snapshot() {
		fn(conf)
	}
}

func (c *fakeChannel) removeConference(conf core.Element) {
	for _, fn := range c.confRemoved.Snapshot() {
		fn(conf)
	}
}

func (c *fakeChannel) addContent(content core.Content) {
	for _, fn := range c.contents.Snapshot() {
		fn(content)
	}
}

type fakeContent struct {
	id           string
	kind         domain.MediaKind
	sink         *fakePad
	startSending core.Handlers[func() bool]
	srcPads      core.Handlers[func(core.Pad, core.Codec)]
}

func newFakeContent(conf *fakeElement, id string, kind domain.MediaKind) *fakeContent {
	sink := &fakePad{name: "sink_" + id, dir: core.PadSink, parent: conf}
	conf.pads[sink.name] = sink
	return &fakeContent{id: id, kind: kind, sink: sink}
}

func (c *fakeContent) ID() string                  { return c.id }
func (c *fakeContent) MediaKind() domain.MediaKind { return c.kind }

func (c *fakeContent) SinkPad() core.Pad {
	if c.sink == nil {
		return nil
	}
	return c.sink
}

func (c *fakeContent) OnStartSending(fn func() bool) func() { return c.startSending.Add(fn) }

func (c *fakeContent) OnSrcPadAdded(fn func(core.Pad, core.Codec)) func() { return c.srcPads.Add(fn) }

func (c *fakeContent) emitStartSending() []bool {
	var out []bool
	for _, fn := range c.startSending.Snapshot() {
		out = append(out, fn())
	}
	return out
}

// emitSrcPad creates a src pad on conf and announces it.
func (c *fakeContent) emitSrcPad(conf *fakeElement, name string) *fakePad {
	pad := &fakePad{name: name, dir: core.PadSrc, parent: conf}
	conf.pads[name] = pad
	for _, fn := range c.srcPads.Snapshot() {
		fn(pad, core.Codec{Name: "PCMU", PayloadType: 0, ClockRate: 8000})
	}
	return pad
}

type fakeExporter struct {
	published   []domain.CallInfo
	unpublished int
	current     map[domain.SessionID]domain.CallInfo
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{current: map[domain.SessionID]domain.CallInfo{}}
}

func (e *fakeExporter) Publish(id domain.SessionID, info domain.CallInfo) {
	e.published = append(e.published, info)
	e.current[id] = info
}

func (e *fakeExporter) Unpublish(id domain.SessionID) {
	e.unpublished++
	delete(e.current, id)
}

type fakeNotifier struct {
	attached []core.Graph
	released int
}

func (n *fakeNotifier) Attach(g core.Graph) { n.attached = append(n.attached, g) }
func (n *fakeNotifier) Release()            { n.released++ }
