package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker is stored while the first request for a key is still running
const pendingMarker = "\x00pending"

// ErrRequestInProgress is returned when a key is claimed but not completed
var ErrRequestInProgress = errors.New("request with this idempotency key is in progress")

// RedisIdempotencyStore remembers checkout results per idempotency key
type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisIdempotencyStore creates a Redis-backed store
func NewRedisIdempotencyStore(client redis.UniversalClient) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: "checkout:idempotency:"}
}

// Claim reserves key for a new request. If the key was completed before,
// the stored result is returned with claimed=false.
func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	k := s.prefix + key
	ok, err := s.client.SetNX(ctx, k, pendingMarker, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return nil, true, nil
	}
	v, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Claim(ctx, key, ttl)
	}
	if err != nil {
		return nil, false, fmt.Errorf("read idempotency key: %w", err)
	}
	if string(v) == pendingMarker {
		return nil, false, ErrRequestInProgress
	}
	return v, false, nil
}

// Complete stores the result of a claimed key
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, result []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, result, ttl).Err(); err != nil {
		return fmt.Errorf("store idempotency result: %w", err)
	}
	return nil
}

// Release frees a claimed key after a failed request so it can be retried
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

type idemEntry struct {
	value     []byte
	pending   bool
	expiresAt time.Time
}

// InMemoryIdempotencyStore is a process-local store for development and tests
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idemEntry
}

// NewInMemoryIdempotencyStore creates an empty in-memory store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{entries: make(map[string]idemEntry)}
}

// Claim implements the idempotency store contract
func (s *InMemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		if e.pending {
			return nil, false, ErrRequestInProgress
		}
		return e.value, false, nil
	}
	s.entries[key] = idemEntry{pending: true, expiresAt: now.Add(ttl)}
	return nil, true, nil
}

// Complete implements the idempotency store contract
func (s *InMemoryIdempotencyStore) Complete(_ context.Context, key string, result []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = idemEntry{value: result, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Release implements the idempotency store contract
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
