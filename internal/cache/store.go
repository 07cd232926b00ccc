package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss indicates the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a minimal TTL'd key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
