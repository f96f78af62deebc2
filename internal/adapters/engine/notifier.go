package engine

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

// ElementDefaults maps element factory -> property -> value.
type ElementDefaults map[string]map[string]any

// PropertyNotifier sets default properties on every element of a graph,
// including elements added after Attach.
type PropertyNotifier struct {
	defaults ElementDefaults

	mu     sync.Mutex
	unsubs []func()
}

func NewPropertyNotifier(defaults ElementDefaults) *PropertyNotifier {
	return &PropertyNotifier{defaults: defaults}
}

func (n *PropertyNotifier) Attach(g core.Graph) {
	for _, el := range g.Elements() {
		n.apply(el)
	}
	unsub := g.OnElementAdded(n.apply)
	n.mu.Lock()
	n.unsubs = append(n.unsubs, unsub)
	n.mu.Unlock()
}

func (n *PropertyNotifier) apply(el core.Element) {
	for k, v := range n.defaults[el.Factory()] {
		if err := el.SetProperty(k, v); err != nil {
			log.Debug().Err(err).Str("module", "engine.notifier").Str("element", el.Name()).Str("property", k).Msg("default property not applied")
		}
	}
}

func (n *PropertyNotifier) Release() {
	n.mu.Lock()
	unsubs := n.unsubs
	n.unsubs = nil
	n.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

// DefaultProperties is keyed by conference factory.
type DefaultProperties map[string]ElementDefaults

func (d DefaultProperties) DefaultNotifier(conference core.Element) (core.PropertyNotifier, bool) {
	defaults, ok := d[conference.Factory()]
	if !ok || len(defaults) == 0 {
		return nil, false
	}
	return NewPropertyNotifier(defaults), true
}
