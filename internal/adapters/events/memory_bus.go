package events

import (
	"context"
	"sync"

	"delivery-dispatch-service/internal/ports"
)

// MemoryBus is an in-process EventBus for tests and single-node runs.
// Delivery is synchronous and in publication order.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(ports.Change)
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]func(ports.Change))}
}

func (b *MemoryBus) Publish(ctx context.Context, ch ports.Change) error {
	b.mu.Lock()
	handlers := make([]func(ports.Change), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(ch)
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, fn func(ports.Change)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}, nil
}
