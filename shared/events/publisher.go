package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultStreamMaxLen caps each stream approximately; consumers that fall
// further behind than this lose the oldest entries.
const defaultStreamMaxLen = 10000

// Publisher appends events to Redis Streams.
type Publisher struct {
	client redis.Cmdable
	maxLen int64
	now    func() time.Time
}

func NewPublisher(client redis.Cmdable) *Publisher {
	return &Publisher{client: client, maxLen: defaultStreamMaxLen, now: time.Now}
}

// Publish wraps data in an Event envelope and XADDs it to stream.
func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	payload, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: p.now().UTC(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"event": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", eventType, stream, err)
	}
	return nil
}
