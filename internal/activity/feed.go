package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	goredis "github.com/redis/go-redis/v9"
)

const feedKey = "activity:feed"

// Feed is a capped, newest-first list of activity entries.
type Feed interface {
	Append(ctx context.Context, a models.Activity) error
	// Recent returns at most limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
}

// MemoryFeed keeps the newest size entries in process memory.
type MemoryFeed struct {
	mu      sync.RWMutex
	size    int
	entries []models.Activity
}

func NewMemoryFeed(size int) *MemoryFeed {
	return &MemoryFeed{size: size}
}

func (f *MemoryFeed) Append(ctx context.Context, a models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append([]models.Activity{a}, f.entries...)
	if len(f.entries) > f.size {
		f.entries = f.entries[:f.size]
	}
	return nil
}

func (f *MemoryFeed) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if limit <= 0 || limit > len(f.entries) {
		limit = len(f.entries)
	}
	return append([]models.Activity{}, f.entries[:limit]...), nil
}

// RedisFeed stores the feed as a Redis list trimmed to size on every push.
type RedisFeed struct {
	client goredis.Cmdable
	size   int64
}

func NewRedisFeed(client goredis.Cmdable, size int) *RedisFeed {
	return &RedisFeed{client: client, size: int64(size)}
}

func (f *RedisFeed) Append(ctx context.Context, a models.Activity) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode activity: %w", err)
	}
	_, err = f.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LPush(ctx, feedKey, data)
		pipe.LTrim(ctx, feedKey, 0, f.size-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

func (f *RedisFeed) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}
	raw, err := f.client.LRange(ctx, feedKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	entries := make([]models.Activity, 0, len(raw))
	for _, item := range raw {
		var a models.Activity
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("failed to decode activity: %w", err)
		}
		entries = append(entries, a)
	}
	return entries, nil
}
