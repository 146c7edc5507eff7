package auth

import (
	"context"
	"time"

	"bookstore/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const (
	hashSlotsKey = "bookstore:hash_slots"
	hashSlotsTTL = 30 * time.Second
)

// RedisSlots caps concurrent password hashing across every API process that
// shares one Redis.
type RedisSlots struct {
	rdb   *redis.Client
	key   string
	limit int
	ttl   time.Duration
}

func NewRedisSlots(rdb *redis.Client, limit int) *RedisSlots {
	return &RedisSlots{rdb: rdb, key: hashSlotsKey, limit: limit, ttl: hashSlotsTTL}
}

func (s *RedisSlots) Acquire(ctx context.Context) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, s.rdb, s.key, s.limit, s.ttl)
}

func (s *RedisSlots) Release(ctx context.Context) error {
	return utils.ReleaseConcurrencyCap(ctx, s.rdb, s.key)
}
