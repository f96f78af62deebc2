package core

import "fmt"

// State is the lifecycle state of a graph or element.
type State int

const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "null"
	}
}

type PadDirection int

const (
	PadSrc PadDirection = iota
	PadSink
)

func (d PadDirection) String() string {
	if d == PadSink {
		return "sink"
	}
	return "src"
}

// Pad is a typed connection point on an element. Data flows src -> sink.
type Pad interface {
	Name() string
	Direction() PadDirection
	Parent() Element
	// Link connects this src pad to a sink pad.
	Link(sink Pad) error
	// Unlink breaks the link with peer. Reports false if they were not linked.
	Unlink(peer Pad) bool
	Peer() Pad
	IsLinked() bool
	// OnUnlinked registers a handler fired after the pad loses its peer.
	OnUnlinked(fn func(pad, peer Pad)) (unsubscribe func())
}

type Element interface {
	Name() string
	Factory() string
	StaticPad(name string) Pad
	SetState(State) error
	State() State
	// SetLockedState makes the element ignore state changes of its parent graph.
	SetLockedState(locked bool)
	LockedState() bool
	SetProperty(name string, value any) error
	Property(name string) (any, bool)
	// Release frees the element. Released elements refuse state changes.
	Release()
}

// Graph is a container of elements with a shared clock and bus.
type Graph interface {
	Name() string
	Add(Element) error
	Remove(Element) error
	Elements() []Element
	SetState(State) error
	State() State
	Bus() Bus
	// OnElementAdded fires for every element added to the graph afterwards.
	OnElementAdded(fn func(Element)) (unsubscribe func())
	Release()
}

type MessageKind int

const (
	MessageError MessageKind = iota
	MessageWarning
	MessageInfo
	MessageStateChanged
	MessageEOS
)

func (k MessageKind) String() string {
	switch k {
	case MessageError:
		return "error"
	case MessageWarning:
		return "warning"
	case MessageInfo:
		return "info"
	case MessageStateChanged:
		return "state-changed"
	case MessageEOS:
		return "eos"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Message is posted on a graph bus by the engine.
type Message struct {
	Kind     MessageKind
	Source   string
	Err      error
	Debug    string
	OldState State
	NewState State
}

type Bus interface {
	// AddWatch installs fn for every message. Returning false removes the watch.
	AddWatch(fn func(Message) bool) (remove func())
	Post(Message)
}

// Engine creates graphs and elements.
type Engine interface {
	NewGraph(name string) (Graph, error)
	NewElement(factory string) (Element, error)
	// ParseBin builds an element from a textual description such as
	// "videotestsrc is-live=1 ! video/x-raw,width=320,height=240".
	// The result exposes a single "src" pad.
	ParseBin(description string) (Element, error)
}
