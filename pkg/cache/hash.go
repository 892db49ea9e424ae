package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key classes. The class is the segment before the colon in every cache
// key and doubles as the on-disk grouping of the file backend.
const (
	classArtifact = "artifact"
	classResult   = "result"
)

// key builds a cache key of the form class:sha256(parts...). Parts are
// JSON-encoded before hashing, so ("svg", true) and ("svg", "true")
// produce distinct keys.
func key(class string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", class, hex.EncodeToString(sum[:]))
}

// Hash computes the sha256 hex digest of data. Callers hash the canonical
// JSON serialization of a tree and use the digest as the tree's identity
// in cache keys: same serialization, same artifacts.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
