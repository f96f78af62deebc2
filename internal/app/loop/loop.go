// Package loop runs every controller handler on one goroutine, in posting order.
package loop

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
)

var ErrStopped = errors.New("loop stopped")

type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
	done    chan struct{}
}

func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post enqueues fn. It never blocks, so handlers may post to their own loop.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		log.Debug().Str("module", "app.loop").Msg("post after stop dropped")
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do posts fn and waits for it to run.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	l.Post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is done. Pending work is dropped on exit.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	}()

	log.Info().Str("module", "app.loop").Msg("controller loop started")
	for {
		for {
			fn, ok := l.pop()
			if !ok {
				break
			}
			l.exec(fn)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.loop").Msg("controller loop stopped")
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) exec(fn func()) {
	var pc panics.Catcher
	pc.Try(fn)
	if r := pc.Recovered(); r != nil {
		log.Error().
			Str("module", "app.loop").
			Err(r.AsError()).
			Bytes("stack", r.Stack).
			Msg("handler panicked")
	}
}
