package cache

import "errors"

// Sentinel errors for caching operations.
var (
	// ErrCacheMiss is returned when an item is not found in cache by
	// callers that prefer an error over the (data, ok, err) triple.
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnavailable is returned when the backend cannot be reached
	// (e.g. the Redis server is down at connect time).
	ErrUnavailable = errors.New("cache backend unavailable")
)
