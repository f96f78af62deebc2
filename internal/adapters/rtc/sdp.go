package rtc

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pion/sdp/v3"

	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

var ErrNoMedia = errors.New("rtc: offer has no audio or video section")

// mediaSection is one audio or video m-line of an offer.
type mediaSection struct {
	Mid       string
	Kind      domain.MediaKind
	Direction string
	Codecs    []string
}

var directions = []string{"sendrecv", "sendonly", "recvonly", "inactive"}

func parseMediaSections(raw string) ([]mediaSection, error) {
	var sd sdp.SessionDescription
	if err := sd.Unmarshal([]byte(raw)); err != nil {
		return nil, fmt.Errorf("rtc: parse offer: %w", err)
	}

	var out []mediaSection
	for i, md := range sd.MediaDescriptions {
		kind := domain.ParseMediaKind(md.MediaName.Media)
		if kind == domain.MediaKindUnknown {
			continue
		}
		mid, ok := md.Attribute("mid")
		if !ok {
			mid = strconv.Itoa(i)
		}
		dir := "sendrecv"
		for _, d := range directions {
			if _, ok := md.Attribute(d); ok {
				dir = d
			}
		}
		var codecs []string
		for _, a := range md.Attributes {
			if a.Key == "rtpmap" {
				codecs = append(codecs, a.Value)
			}
		}
		out = append(out, mediaSection{Mid: mid, Kind: kind, Direction: dir, Codecs: codecs})
	}
	if len(out) == 0 {
		return nil, ErrNoMedia
	}
	return out, nil
}
