package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior.
// Zero values fall back to conservative defaults.
type RedisConfig struct {
	Addr string

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	PoolSize        int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 10
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = 4 * time.Second
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	})

	if err := PingRedis(ctx, rdb, cfg.PingTimeout); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// PingRedis pings Redis with a timeout.
func PingRedis(ctx context.Context, rdb *redis.Client, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// The TTL is pushed out on every granted slot, so the counter only lapses
// after ttl with no acquisitions at all.
var concurrencyAcquireScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
  end
  return 0
end
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

var concurrencyReleaseScript = redis.NewScript(`
-- KEYS[1] = counter key
local current = redis.call('DECR', KEYS[1])
if current <= 0 then
  redis.call('DEL', KEYS[1])
end
return 1
`)

// AcquireConcurrencyCap takes one slot of a counter shared by every process
// using the same Redis. The TTL releases slots leaked by crashed holders.
func AcquireConcurrencyCap(ctx context.Context, rdb *redis.Client, key string, limit int, ttl time.Duration) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return false, fmt.Errorf("key is required")
	}
	if limit <= 0 {
		return false, fmt.Errorf("limit must be > 0")
	}
	if ttl <= 0 {
		return false, fmt.Errorf("ttl must be > 0")
	}

	res, err := concurrencyAcquireScript.Run(ctx, rdb, []string{key}, limit, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// ReleaseConcurrencyCap releases a previously acquired slot.
func ReleaseConcurrencyCap(ctx context.Context, rdb *redis.Client, key string) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	return concurrencyReleaseScript.Run(ctx, rdb, []string{key}).Err()
}
