package app

import (
	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

type WiringAction int

const (
	// WireNone leaves the data path alone.
	WireNone WiringAction = iota
	// WireLoopback relays incoming media back to the same content.
	WireLoopback
	// WireDiscard terminates incoming media in a passive sink.
	WireDiscard
	// WireSynthetic feeds a content from a generated source.
	WireSynthetic
)

func (a WiringAction) String() string {
	switch a {
	case WireLoopback:
		return "loopback"
	case WireDiscard:
		return "discard"
	case WireSynthetic:
		return "synthetic"
	default:
		return "none"
	}
}

const (
	FactoryQueue    = "queue"
	FactoryFakeSink = "fakesink"
)

type WiringRecipe struct {
	Action  WiringAction
	Factory string
}

type WiringPolicy interface {
	Recipe(mode domain.Mode, dir domain.Direction) WiringRecipe
}

type DefaultWiringPolicy struct{}

func (DefaultWiringPolicy) Recipe(mode domain.Mode, dir domain.Direction) WiringRecipe {
	switch {
	case mode == domain.ModeEcho && dir == domain.DirectionIncoming:
		return WiringRecipe{Action: WireLoopback, Factory: FactoryQueue}
	case mode == domain.ModeTestPattern && dir == domain.DirectionIncoming:
		return WiringRecipe{Action: WireDiscard, Factory: FactoryFakeSink}
	case mode == domain.ModeTestPattern && dir == domain.DirectionOutgoing:
		return WiringRecipe{Action: WireSynthetic}
	default:
		// Echo sends whatever it receives.
		return WiringRecipe{Action: WireNone}
	}
}

// Test sources end in an RTP payloader; conference sink pads carry RTP.
const (
	AudioTestSource = "audiotestsrc is-live=1 ! audioconvert ! audioresample ! " +
		"audio/x-raw,rate=8000,channels=1 ! mulawenc ! rtppcmupay pt=0"
	VideoTestSource = "videotestsrc is-live=1 ! video/x-raw,width=320,height=240,framerate=15/1 ! " +
		"videoconvert ! vp8enc deadline=1 ! rtpvp8pay pt=96"
)

// SyntheticSource returns the bin description of the generator for kind.
func SyntheticSource(kind domain.MediaKind) (string, bool) {
	switch kind {
	case domain.MediaKindAudio:
		return AudioTestSource, true
	case domain.MediaKindVideo:
		return VideoTestSource, true
	default:
		return "", false
	}
}

// SelectMode reads the call-mode hint of every satisfied request. Later
// recognized values win; unknown values keep the previous choice.
func SelectMode(requests []core.ChannelRequest) domain.Mode {
	mode := domain.ModeEcho
	for _, req := range requests {
		if req == nil {
			continue
		}
		v, ok := req.Hint(domain.CallModeHint)
		if !ok {
			continue
		}
		switch v {
		case domain.CallModeEcho:
			mode = domain.ModeEcho
		case domain.CallModeTestInput:
			mode = domain.ModeTestPattern
		}
	}
	return mode
}
