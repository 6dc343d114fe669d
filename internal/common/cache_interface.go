package common

import (
	"context"
	"time"
)

// CacheService is the small cache surface the services depend on. Both the
// Redis-backed and the in-process implementations satisfy it, so deployments
// without Redis degrade gracefully.
type CacheService interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
