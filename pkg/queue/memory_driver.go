package queue

import (
	"context"
	"time"
)

// MemoryDriver is an in-process, channel-backed queue driver. Not durable
// across restarts.
type MemoryDriver struct {
	ch chan []byte
}

// NewMemoryDriver creates an in-memory queue with a buffer of 1000 jobs.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{ch: make(chan []byte, 1000)}
}

// Push blocks while the buffer is full, until ctx ends.
func (d *MemoryDriver) Push(ctx context.Context, payload []byte) error {
	select {
	case d.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *MemoryDriver) Later(_ context.Context, payload []byte, delay time.Duration) error {
	time.AfterFunc(delay, func() { d.ch <- payload })
	return nil
}

func (d *MemoryDriver) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-d.ch:
		return payload, nil
	}
}

// Len is the number of buffered payloads.
func (d *MemoryDriver) Len() int { return len(d.ch) }
