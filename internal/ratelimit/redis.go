package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucket refills capacity tokens evenly over the window. It returns
// {allowed, remaining}.
var tokenBucket = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local interval_ms = tonumber(ARGV[3])
	local ttl_seconds = tonumber(ARGV[4])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + intervals)
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens }
`)

// Redis is a token-bucket limiter shared by every server instance.
type Redis struct {
	client   *redis.Client
	prefix   string
	capacity int
	window   time.Duration
}

func NewRedis(client *redis.Client, capacity int, window time.Duration) *Redis {
	return &Redis{client: client, prefix: "hp:rl:", capacity: capacity, window: window}
}

func (l *Redis) key(k string) string { return l.prefix + k }

// interval is the time it takes to refill one token.
func (l *Redis) interval() time.Duration {
	if l.capacity <= 0 {
		return l.window
	}
	return l.window / time.Duration(l.capacity)
}

func (l *Redis) Allow(ctx context.Context, key string, now time.Time) (bool, error) {
	ttl := int64(l.window/time.Second) + 1
	vals, err := tokenBucket.Run(ctx, l.client, []string{l.key(key)},
		now.UnixMilli(), l.capacity, l.interval().Milliseconds(), ttl,
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 2 {
		return false, fmt.Errorf("rate limit script: unexpected result length %d", len(vals))
	}
	return vals[0] == 1, nil
}

// NewRedisClient connects to addr and returns nil when the server does not
// answer a ping, so callers fall back to in-process implementations.
func NewRedisClient(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
