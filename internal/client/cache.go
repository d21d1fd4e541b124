package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/redis/go-redis/v9"

	"github.com/vexeviet/seat-hold/internal/model"
)

// ErrCacheMiss is returned by AvailabilityCache.Get for absent or
// expired entries.
var ErrCacheMiss = errors.New("cache miss")

// AvailabilityCache memoises seat availability reads per route and date.
// It is a read cache only; holds are never derived from it.
type AvailabilityCache interface {
	Get(ctx context.Context, key string) (model.AvailabilitySnapshot, error)
	Set(ctx context.Context, key string, snap model.AvailabilitySnapshot) error
	Delete(ctx context.Context, key string) error
}

// AvailabilityKey is the cache key for one departure's seat map.
func AvailabilityKey(routeID, departureDate string) string {
	return fmt.Sprintf("vexeviet:availability:%s:%s", routeID, departureDate)
}

type memEntry struct {
	snap    model.AvailabilitySnapshot
	expires time.Time
}

// MemoryCache is an in-process AvailabilityCache with TTL expiry.
type MemoryCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	clock clock.Clock
	items map[string]memEntry
}

func NewMemoryCache(ttl time.Duration, clk clock.Clock) *MemoryCache {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryCache{ttl: ttl, clock: clk, items: make(map[string]memEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (model.AvailabilitySnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return model.AvailabilitySnapshot{}, ErrCacheMiss
	}
	if !c.clock.Now().Before(e.expires) {
		delete(c.items, key)
		return model.AvailabilitySnapshot{}, ErrCacheMiss
	}
	return e.snap, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, snap model.AvailabilitySnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memEntry{snap: snap, expires: c.clock.Now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// RedisCache stores snapshots as JSON with a Redis TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (model.AvailabilitySnapshot, error) {
	var snap model.AvailabilitySnapshot
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return snap, ErrCacheMiss
		}
		return snap, fmt.Errorf("cache get error: %w", err)
	}
	if err := json.Unmarshal(val, &snap); err != nil {
		return snap, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return snap, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, snap model.AvailabilitySnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}
