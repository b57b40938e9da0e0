package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster is an in-process Broadcaster for single-instance
// deployments and tests
type MemoryBroadcaster struct {
	mu        sync.Mutex
	callbacks map[int]func(msg RefreshMessage)
	nextID    int
	closed    bool
}

// NewMemoryBroadcaster creates an in-process broadcaster
func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{callbacks: make(map[int]func(msg RefreshMessage))}
}

// Publish delivers the message synchronously to all subscribers
func (b *MemoryBroadcaster) Publish(_ context.Context, msg RefreshMessage) error {
	msg = stamp(msg)

	b.mu.Lock()
	callbacks := make([]func(msg RefreshMessage), 0, len(b.callbacks))
	for _, cb := range b.callbacks {
		callbacks = append(callbacks, cb)
	}
	b.mu.Unlock()

	for _, cb := range callbacks {
		cb(msg)
	}
	return nil
}

// Subscribe registers the callback and blocks until ctx is cancelled
func (b *MemoryBroadcaster) Subscribe(ctx context.Context, callback func(msg RefreshMessage)) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return context.Canceled
	}
	id := b.nextID
	b.nextID++
	b.callbacks[id] = callback
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.callbacks, id)
	b.mu.Unlock()
	return ctx.Err()
}

// Close drops all subscribers
func (b *MemoryBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.callbacks = make(map[int]func(msg RefreshMessage))
	return nil
}

var _ Broadcaster = (*MemoryBroadcaster)(nil)
