package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ErrNoRecord indicates that nothing is persisted under a key.
var ErrNoRecord = errors.New("session: no record")

// Store persists at most one record per key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// RedisStore keeps records in Redis with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore. A zero ttl keeps records forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("session: redis get: %w", err)
	}
	return data, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store for development and tests. Records
// expire after the configured TTL; expired entries are dropped on access and
// swept on every Save.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	records map[string]memoryRecord
}

type memoryRecord struct {
	data    []byte
	expires time.Time
}

func (r memoryRecord) expired(now time.Time) bool {
	return !r.expires.IsZero() && !now.Before(r.expires)
}

// NewMemoryStore constructs an empty MemoryStore whose records never expire.
func NewMemoryStore() *MemoryStore {
	return NewExpiringMemoryStore(0)
}

// NewExpiringMemoryStore constructs an empty MemoryStore. A zero ttl keeps
// records forever.
func NewExpiringMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, records: make(map[string]memoryRecord)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoRecord
	}
	if rec.expired(s.now()) {
		s.mu.Lock()
		if cur, ok := s.records[key]; ok && cur.expired(s.now()) {
			delete(s.records, key)
		}
		s.mu.Unlock()
		return nil, ErrNoRecord
	}
	return append([]byte(nil), rec.data...), nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, rec := range s.records {
		if rec.expired(now) {
			delete(s.records, k)
		}
	}
	rec := memoryRecord{data: append([]byte(nil), data...)}
	if s.ttl > 0 {
		rec.expires = now.Add(s.ttl)
	}
	s.records[key] = rec
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Len reports how many records are held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// sharedLoads collapses concurrent loads of the same key into one backend call.
// The shared call ignores the first caller's cancellation; each caller still
// stops waiting when its own context ends.
type sharedLoads struct {
	Store
	group singleflight.Group
}

func (s *sharedLoads) Load(ctx context.Context, key string) ([]byte, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.Store.Load(shared, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*sharedLoads)(nil)
)
