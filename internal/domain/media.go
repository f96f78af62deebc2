package domain

type MediaKind int

const (
	MediaKindUnknown MediaKind = iota
	MediaKindAudio
	MediaKindVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaKindAudio:
		return "audio"
	case MediaKindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// ParseMediaKind maps an SDP media name onto a kind.
func ParseMediaKind(s string) MediaKind {
	switch s {
	case "audio":
		return MediaKindAudio
	case "video":
		return MediaKindVideo
	default:
		return MediaKindUnknown
	}
}

// Mode decides how a session wires its media. Chosen once at session creation.
type Mode int

const (
	ModeEcho Mode = iota
	ModeTestPattern
)

const (
	CallModeHint      = "call-mode"
	CallModeEcho      = "echo"
	CallModeTestInput = "test-inputs"
)

func (m Mode) String() string {
	switch m {
	case ModeTestPattern:
		return CallModeTestInput
	default:
		return CallModeEcho
	}
}

// Direction of a data path relative to the session.
type Direction int

const (
	DirectionIncoming Direction = iota
	DirectionOutgoing
)

func (d Direction) String() string {
	if d == DirectionOutgoing {
		return "outgoing"
	}
	return "incoming"
}
