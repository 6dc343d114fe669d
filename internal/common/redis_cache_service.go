package common

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"jirapulse/internal/logging"
)

// RedisCacheService caches through Redis so multiple replicas share state.
type RedisCacheService struct {
	client *redis.Client
}

// NewRedisCacheService connects to Redis. Returns nil on failure so callers
// can fall back to the in-process cache.
func NewRedisCacheService(addr, password string, db int) *RedisCacheService {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.Warn("redis unavailable, falling back to in-process cache",
			"addr", addr,
			"error", err.Error(),
		)
		return nil
	}

	logging.Info("connected to redis", "addr", addr)
	return &RedisCacheService{client: client}
}

func (s *RedisCacheService) Get(ctx context.Context, key string) (string, bool) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logging.Warn("redis get failed", "key", key, "error", err.Error())
		}
		return "", false
	}
	return value, true
}

func (s *RedisCacheService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisCacheService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
