package core

import "github.com/freedesktop/telepathy-phoenix/internal/domain"

// ChannelRequest is one request satisfied by a handed-off call.
type ChannelRequest interface {
	Hint(key string) (string, bool)
}

// Call is the signaling-side view of one call. Accept and Close are
// fire-and-forget: outcomes arrive later as state changes or invalidation.
type Call interface {
	Path() domain.CallPath
	Requested() bool
	State() domain.CallState
	Accept()
	Close()
	OnStateChanged(fn func(domain.CallState)) (unsubscribe func())
	OnInvalidated(fn func(reason error)) (unsubscribe func())
	Media() MediaChannel
}

// CallHandler receives calls from the signaling layer.
type CallHandler interface {
	OnNewCall(call Call, satisfied []ChannelRequest) error
}

// Hints is a ChannelRequest backed by a map.
type Hints map[string]string

func (h Hints) Hint(key string) (string, bool) {
	v, ok := h[key]
	return v, ok
}
