package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// INCR and PEXPIRE on the first hit keep the window atomic across instances.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if tonumber(current) == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if tonumber(ttl) < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisStore shares fixed-window counters through Redis.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore wraps an existing client. Keys are written under namespace.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "folio:ratelimit"
	}
	return &RedisStore{client: client, namespace: namespace}
}

// OpenRedis connects to a redis:// URL and verifies the connection.
func OpenRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Increment runs the fixed window script for key.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration, now time.Time) (Bucket, error) {
	if s == nil || s.client == nil {
		return Bucket{}, errors.New("redis store is not initialized")
	}

	windowMs := window.Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}

	values, err := fixedWindowScript.Run(ctx, s.client, []string{s.namespace + ":" + key}, windowMs).Int64Slice()
	if err != nil {
		return Bucket{}, err
	}
	if len(values) != 2 {
		return Bucket{}, fmt.Errorf("unexpected script reply length %d", len(values))
	}

	return Bucket{
		Count:   int(values[0]),
		ResetAt: now.Add(time.Duration(values[1]) * time.Millisecond),
	}, nil
}

// CheckHealth pings the backing server.
func (s *RedisStore) CheckHealth(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("redis store is not initialized")
	}
	return s.client.Ping(ctx).Err()
}
