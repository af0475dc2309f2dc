package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrMiss is returned by ViewCache.Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// ViewCache is a generic JSON-backed Redis store for records of type T.
// Pass a zero TTL for keys that should not expire.
type ViewCache[T any] struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewViewCache[T any](client goredis.Cmdable, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, ttl: ttl}
}

// Get loads and unmarshals the value stored under key.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return &v, nil
}

// Set marshals value and stores it under key, resetting the TTL.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Replace stores value only if key already exists (SET XX) and returns
// ErrMiss otherwise.
func (c *ViewCache[T]) Replace(ctx context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	replaced, err := c.client.SetXX(ctx, key, data, c.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if !replaced {
		return ErrMiss
	}
	return nil
}

func (c *ViewCache[T]) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
