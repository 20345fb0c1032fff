package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/redis/go-redis/v9"
)

const catalogListingsKey = "catalog:listings:v1"

// RedisCatalogCache stores the active listing read model as one JSON document
type RedisCatalogCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCatalogCache creates a Redis-backed listing cache
func NewRedisCatalogCache(client redis.UniversalClient, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{client: client, ttl: ttl}
}

// Get returns the cached listings; ok is false on a miss
func (c *RedisCatalogCache) Get(ctx context.Context) ([]catalog.Listing, bool, error) {
	raw, err := c.client.Get(ctx, catalogListingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read catalog cache: %w", err)
	}
	var listings []catalog.Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		// a corrupt entry behaves like a miss and is overwritten on the next Set
		return nil, false, nil
	}
	return listings, true, nil
}

// Set replaces the cached listings
func (c *RedisCatalogCache) Set(ctx context.Context, listings []catalog.Listing) error {
	raw, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("encode catalog cache: %w", err)
	}
	if err := c.client.Set(ctx, catalogListingsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write catalog cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached listings
func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, catalogListingsKey).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

// InMemoryCatalogCache is a process-local listing cache
type InMemoryCatalogCache struct {
	mu        sync.RWMutex
	listings  []catalog.Listing
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewInMemoryCatalogCache creates an in-memory listing cache
func NewInMemoryCatalogCache(ttl time.Duration) *InMemoryCatalogCache {
	return &InMemoryCatalogCache{ttl: ttl, now: time.Now}
}

// Get returns the cached listings; ok is false on a miss
func (c *InMemoryCatalogCache) Get(_ context.Context) ([]catalog.Listing, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.listings == nil || !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	out := make([]catalog.Listing, len(c.listings))
	copy(out, c.listings)
	return out, true, nil
}

// Set replaces the cached listings
func (c *InMemoryCatalogCache) Set(_ context.Context, listings []catalog.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listings = make([]catalog.Listing, len(listings))
	copy(c.listings, listings)
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

// Invalidate drops the cached listings
func (c *InMemoryCatalogCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listings = nil
	return nil
}
