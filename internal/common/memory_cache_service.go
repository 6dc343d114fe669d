package common

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCacheService is the in-process fallback cache.
type MemoryCacheService struct {
	store *gocache.Cache
}

func NewMemoryCacheService() *MemoryCacheService {
	return &MemoryCacheService{
		store: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *MemoryCacheService) Get(ctx context.Context, key string) (string, bool) {
	if value, ok := s.store.Get(key); ok {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

func (s *MemoryCacheService) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.store.Set(key, value, ttl)
	return nil
}

func (s *MemoryCacheService) Delete(ctx context.Context, key string) error {
	s.store.Delete(key)
	return nil
}
