package core

import (
	"slices"
	"sync"
)

// Dispatcher serializes work onto the controller loop. Adapters post every
// notification through it.
type Dispatcher interface {
	Post(fn func())
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(fn func())

func (f DispatchFunc) Post(fn func()) { f(fn) }

// Handlers is a set of subscribers with unsubscribe closures.
type Handlers[F any] struct {
	mu   sync.Mutex
	next int
	ids  []int
	fns  map[int]F
}

func (h *Handlers[F]) Add(fn F) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fns == nil {
		h.fns = make(map[int]F)
	}
	id := h.next
	h.next++
	h.ids = append(h.ids, id)
	h.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.fns, id)
			h.ids = slices.DeleteFunc(h.ids, func(v int) bool { return v == id })
		})
	}
}

// Snapshot returns the current subscribers in registration order.
func (h *Handlers[F]) Snapshot() []F {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]F, 0, len(h.ids))
	for _, id := range h.ids {
		out = append(out, h.fns[id])
	}
	return out
}

func (h *Handlers[F]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ids)
}

// Clear drops every subscriber.
func (h *Handlers[F]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = nil
	h.fns = nil
}
