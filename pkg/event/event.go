// Package event is nearcart's in-process event bus. Services fire named
// events after their transaction commits; listeners (app/listeners) react
// on a bounded worker pool so the request path never waits on them.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/nearcart/pkg/logger"
	"github.com/shashiranjanraj/nearcart/pkg/workerpool"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any) error

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}
	pool     *workerpool.Pool
)

// Listen registers a handler for the given event name.
func Listen(event string, handler Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[event] = append(handlers[event], handler)
}

// UsePool routes FireAsync through p. Without a pool FireAsync runs
// listeners inline.
func UsePool(p *workerpool.Pool) {
	mu.Lock()
	pool = p
	mu.Unlock()
}

func snapshot(event string) ([]Handler, *workerpool.Pool) {
	mu.RLock()
	defer mu.RUnlock()
	hs := make([]Handler, len(handlers[event]))
	copy(hs, handlers[event])
	return hs, pool
}

// Fire dispatches an event synchronously and joins every listener error.
func Fire(ctx context.Context, event string, payload any) error {
	hs, _ := snapshot(event)
	var errs []error
	for _, h := range hs {
		if err := h(ctx, payload); err != nil {
			errs = append(errs, fmt.Errorf("event %s: %w", event, err))
		}
	}
	return errors.Join(errs...)
}

// FireAsync hands each listener to the worker pool and returns immediately.
// Listener errors are logged. The request's cancellation does not reach
// listeners. A full pool runs the listener in the caller's goroutine.
func FireAsync(ctx context.Context, event string, payload any) {
	hs, p := snapshot(event)
	ctx = context.WithoutCancel(ctx)
	log := logger.WithCtx(ctx)

	for _, h := range hs {
		run := func() {
			if err := h(ctx, payload); err != nil {
				log.Error("event: listener failed", "event", event, "error", err)
			}
		}
		if p == nil {
			run()
			continue
		}
		if err := p.Submit(run); err != nil {
			log.Warn("event: pool unavailable, running inline", "event", event, "error", err)
			run()
		}
	}
}

// Flush removes all listeners and the pool (useful in tests).
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
	pool = nil
}
