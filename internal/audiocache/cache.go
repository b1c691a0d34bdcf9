// Package audiocache implements the content-addressed cache for generated
// audio (ambient beds, sound effects and voice lines): the same description
// or line never pays for regeneration twice.
package audiocache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Cache stores generated audio artifacts under a base directory, keyed by a
// hash of their (prefix, description) pair. Prefix separates ambient beds,
// one-shot SFX and voice lines (whose prefix is the voice ID) so identical
// descriptions in different categories or voices don't collide.
type Cache struct {
	dir string
}

// New creates a Cache rooted at dir, creating the directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audiocache: create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// key returns the cache file name for (prefix, description): the first 16
// hex characters of sha256(description), matching the original cache key
// scheme so a migrated cache directory stays valid.
func key(prefix, description string) string {
	sum := sha256.Sum256([]byte(description))
	return fmt.Sprintf("%s_%s.mp3", prefix, hex.EncodeToString(sum[:])[:16])
}

// Get returns the cached bytes for (prefix, description), or ok=false if
// nothing is cached yet. A zero-byte file (a torn write from a crash between
// create and rename, or a truncated entry) is treated the same as a miss, so
// the caller regenerates it and Put overwrites the corrupt entry.
func (c *Cache) Get(prefix, description string) (data []byte, ok bool, err error) {
	path := filepath.Join(c.dir, key(prefix, description))
	data, err = os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("audiocache: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

// Put stores data under (prefix, description). The write is atomic: data
// lands in a temp file in the same directory first, then gets renamed into
// place, so a concurrent Get never observes a partially written file and a
// crash mid-write never leaves a corrupt cache entry behind.
func (c *Cache) Put(prefix, description string, data []byte) error {
	finalPath := filepath.Join(c.dir, key(prefix, description))
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("audiocache: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("audiocache: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("audiocache: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("audiocache: rename into place: %w", err)
	}
	return nil
}
