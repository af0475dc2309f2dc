package session

import (
	"context"
	"errors"
	"sync"
	"time"

	sharedredis "github.com/GoldenTiger720/chroma-money-link-44/shared/redis"
	goredis "github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// MemoryStore keeps sessions in process memory. Copies are stored and
// returned so callers never share a Session value.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	return &s, nil
}

func (m *MemoryStore) Set(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return ErrNoSession
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// RedisStore serialises each session as JSON under "session:<id>".
// A zero ttl keeps sessions until logout.
type RedisStore struct {
	cache *sharedredis.ViewCache[Session]
}

func NewRedisStore(client goredis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: sharedredis.NewViewCache[Session](client, ttl)}
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	s, err := r.cache.Get(ctx, sessionKeyPrefix+id)
	if errors.Is(err, sharedredis.ErrMiss) {
		return nil, ErrNoSession
	}
	return s, err
}

func (r *RedisStore) Set(ctx context.Context, s *Session) error {
	return r.cache.Set(ctx, sessionKeyPrefix+s.ID, s)
}

func (r *RedisStore) Update(ctx context.Context, s *Session) error {
	err := r.cache.Replace(ctx, sessionKeyPrefix+s.ID, s)
	if errors.Is(err, sharedredis.ErrMiss) {
		return ErrNoSession
	}
	return err
}

func (r *RedisStore) Clear(ctx context.Context, id string) error {
	return r.cache.Delete(ctx, sessionKeyPrefix+id)
}
