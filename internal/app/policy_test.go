package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freedesktop/telepathy-phoenix/internal/core"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

func TestDefaultWiringPolicyRecipes(t *testing.T) {
	p := DefaultWiringPolicy{}
	cases := []struct {
		mode domain.Mode
		dir  domain.Direction
		want WiringRecipe
	}{
		{domain.ModeEcho, domain.DirectionIncoming, WiringRecipe{Action: WireLoopback, Factory: FactoryQueue}},
		{domain.ModeEcho, domain.DirectionOutgoing, WiringRecipe{Action: WireNone}},
		{domain.ModeTestPattern, domain.DirectionIncoming, WiringRecipe{Action: WireDiscard, Factory: FactoryFakeSink}},
		{domain.ModeTestPattern, domain.DirectionOutgoing, WiringRecipe{Action: WireSynthetic}},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String()+"/"+tc.dir.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, p.Recipe(tc.mode, tc.dir))
		})
	}
}

func TestSyntheticSource(t *testing.T) {
	desc, ok := SyntheticSource(domain.MediaKindAudio)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(desc, "audiotestsrc is-live=1 "))
	assert.True(t, strings.HasSuffix(desc, "rtppcmupay pt=0"))

	desc, ok = SyntheticSource(domain.MediaKindVideo)
	assert.True(t, ok)
	assert.Contains(t, desc, "width=320")
	assert.Contains(t, desc, "height=240")
	assert.Contains(t, desc, "vp8enc")
	assert.True(t, strings.HasSuffix(desc, "rtpvp8pay pt=96"))

	_, ok = SyntheticSource(domain.MediaKindUnknown)
	assert.False(t, ok)
}

func TestSelectMode(t *testing.T) {
	cases := []struct {
		name string
		reqs []core.ChannelRequest
		want domain.Mode
	}{
		{"no requests", nil, domain.ModeEcho},
		{"no hint", []core.ChannelRequest{core.Hints{}}, domain.ModeEcho},
		{"test inputs", []core.ChannelRequest{core.Hints{"call-mode": "test-inputs"}}, domain.ModeTestPattern},
		{"explicit echo", []core.ChannelRequest{core.Hints{"call-mode": "echo"}}, domain.ModeEcho},
		{"unknown keeps previous", []core.ChannelRequest{
			core.Hints{"call-mode": "test-inputs"},
			core.Hints{"call-mode": "karaoke"},
		}, domain.ModeTestPattern},
		{"last recognized wins", []core.ChannelRequest{
			core.Hints{"call-mode": "test-inputs"},
			core.Hints{"call-mode": "echo"},
		}, domain.ModeEcho},
		{"nil request skipped", []core.ChannelRequest{nil, core.Hints{"call-mode": "test-inputs"}}, domain.ModeTestPattern},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SelectMode(tc.reqs))
		})
	}
}
