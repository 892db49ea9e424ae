package cache

import (
	"context"
	"time"
)

// NullCache drops everything. It stands in for a real backend when
// caching is disabled (--no-cache, backend "none") so callers never
// branch on whether caching is on; every render and evaluation simply
// recomputes.
type NullCache struct{}

// NewNullCache returns the no-op cache.
func NewNullCache() *NullCache {
	return &NullCache{}
}

// Get always misses.
func (*NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the value.
func (*NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (*NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (*NullCache) Close() error {
	return nil
}

// Ensure NullCache implements Cache.
var _ Cache = (*NullCache)(nil)
