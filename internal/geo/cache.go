package geo

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryCache keeps results in process memory for TTL.
type MemoryCache struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	loc     *Location
	expires time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{TTL: ttl, entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *MemoryCache) Get(_ context.Context, ip string) (*Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[ip]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, ip)
		return nil, false
	}
	return e.loc, true
}

func (c *MemoryCache) Set(_ context.Context, ip string, loc *Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ip] = memoryEntry{loc: loc, expires: c.now().Add(c.TTL)}
}

// RedisCache shares results between server instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func redisKey(ip string) string { return "hp:geo:" + ip }

func (c *RedisCache) Get(ctx context.Context, ip string) (*Location, bool) {
	raw, err := c.client.Get(ctx, redisKey(ip)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("geolocation cache read failed", "err", err)
		}
		return nil, false
	}
	var loc Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, false
	}
	return &loc, true
}

func (c *RedisCache) Set(ctx context.Context, ip string, loc *Location) {
	raw, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKey(ip), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("geolocation cache write failed", "err", err)
	}
}
