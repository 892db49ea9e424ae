package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache stores rendered diagrams and evaluation results on disk,
// grouped by key class: <dir>/artifact/<hash>.json holds diagram bytes,
// <dir>/result/<hash>.json serialized results. It backs the CLI (XDG
// cache directory) and single-instance server deployments.
type FileCache struct {
	dir string
}

// NewFileCache opens a file cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// diskEntry is the stored form of one cache entry. Expiry travels with
// the payload so a stale diagram survives restarts only until it is next
// read.
type diskEntry struct {
	Payload   []byte `json:"payload"`
	ExpiresAt int64  `json:"expires_at,omitempty"` // unix seconds, 0 = no expiry
}

// Get retrieves a value. Expired or unreadable entries are removed and
// reported as misses; everything in this cache is recomputable.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.entryPath(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if entry.ExpiresAt != 0 && time.Now().Unix() >= entry.ExpiresAt {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Payload, true, nil
}

// Set stores a value with the given TTL. A TTL of 0 means no expiry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := diskEntry{Payload: data}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl).Unix()
	}
	blob, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.entryPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0644)
}

// Delete removes a value. Deleting a missing key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.entryPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Close does nothing; the file cache holds no open handles.
func (c *FileCache) Close() error { return nil }

// ClearStats reports what a Clear removed.
type ClearStats struct {
	Artifacts int   // rendered diagrams
	Results   int   // evaluation results
	Bytes     int64 // total file size freed
}

// Clear removes every cached entry and prunes the class directories.
func (c *FileCache) Clear() (ClearStats, error) {
	var stats ClearStats
	for _, class := range []string{classArtifact, classResult} {
		classDir := filepath.Join(c.dir, class)
		entries, err := os.ReadDir(classDir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return stats, err
		}

		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if info, err := e.Info(); err == nil {
				stats.Bytes += info.Size()
			}
			if err := os.Remove(filepath.Join(classDir, e.Name())); err != nil {
				return stats, err
			}
			if class == classArtifact {
				stats.Artifacts++
			} else {
				stats.Results++
			}
		}
		_ = os.Remove(classDir)
	}
	return stats, nil
}

// entryPath maps a key to its file: the class segment becomes the
// subdirectory, the hashed remainder the filename.
func (c *FileCache) entryPath(key string) string {
	class, rest, ok := strings.Cut(key, ":")
	if !ok {
		class, rest = "misc", Hash([]byte(key))
	}
	return filepath.Join(c.dir, class, rest+".json")
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
