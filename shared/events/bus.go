package events

import (
	"context"
	"log"
	"sync"
	"time"
)

// LocalBus is an in-process stand-in for Redis Streams. Publish dispatches
// synchronously to every handler subscribed to the stream; handler errors
// are logged, never returned to the publisher.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[string][]Handler)}
}

func (b *LocalBus) Subscribe(stream string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[stream] = append(b.handlers[stream], handler)
}

func (b *LocalBus) Publish(ctx context.Context, stream, eventType string, data any) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[stream]...)
	b.mu.RUnlock()

	event := Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data}
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			log.Printf("LocalBus: handler for %s failed on %s: %v", stream, eventType, err)
		}
	}
	return nil
}
