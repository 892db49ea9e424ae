// Package cache provides TTL-based caching for rendered artifacts and
// evaluation results.
//
// Graphviz rendering is the only expensive step in the pipeline, so the
// CLI and server cache artifacts keyed by a hash of the tree plus the
// render options. Entries are always recomputable from the input tree;
// the cache is a recompute shortcut, not a store of record.
//
// Backends:
//   - [FileCache]: XDG cache directory, used by the CLI
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: disables caching (--no-cache)
package cache

import (
	"context"
	"time"
)

// Cache is the interface all cache backends implement.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultArtifactTTL is how long rendered artifacts live before they are
// re-rendered. Diagrams are recomputable, so expiry only costs a redraw.
const DefaultArtifactTTL = 24 * time.Hour

// ArtifactKey builds the cache key for a rendered artifact.
// treeHash is the [Hash] of the serialized tree; format is the output
// format ("svg", "png", "dot"); overlay records whether the evaluation
// overlay was applied.
func ArtifactKey(treeHash, format string, overlay bool) string {
	return key(classArtifact, treeHash, format, overlay)
}

// ResultKey builds the cache key for a serialized evaluation result.
func ResultKey(treeHash string) string {
	return key(classResult, treeHash)
}
