// Package events carries invalidation notices between components and,
// through the redis bus, between nodes.
package events

import (
	"context"
	"sync"
)

// TopicSettingsInvalidated is published after any settings write. The
// payload is the changed setting key, or "*" for a full reload.
const TopicSettingsInvalidated = "wisp:settings:invalidate"

// PayloadAll requests a full reload of the subscriber's state.
const PayloadAll = "*"

// Handler consumes one message payload.
type Handler func(payload string)

// Bus publishes and subscribes to named topics.
type Bus interface {
	Publish(ctx context.Context, topic, payload string) error
	Subscribe(topic string, h Handler) (unsubscribe func())
	Close() error
}

// MemoryBus is an in-process Bus. Publish dispatches synchronously, so a
// settings write observes its own invalidation before returning.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int64
	subs   map[string]map[int64]Handler
	closed bool
}

var _ Bus = (*MemoryBus)(nil)

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int64]Handler)}
}

// Publish delivers payload to every handler subscribed to topic.
func (b *MemoryBus) Publish(_ context.Context, topic, payload string) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
	return nil
}

// Subscribe registers h for topic and returns a function removing the
// subscription.
func (b *MemoryBus) Subscribe(topic string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int64]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Close drops every subscription.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string]map[int64]Handler)
	b.closed = true
	return nil
}
