// Package openingcache caches the wire messages produced by a campaign's
// opening turn, keyed by a fingerprint of the session log. Replaying a
// cached opening turn skips the model call entirely as long as the log
// hasn't changed since the turn was cached.
package openingcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const fileName = "opening-cache.json"

// document is the on-disk cache file shape: a fingerprint plus the
// ordered wire messages it was produced from.
type document struct {
	SessionLogHash string            `json:"session_log_hash"`
	Messages       []json.RawMessage `json:"messages"`
}

// Cache is the opening-turn cache for one campaign directory.
type Cache struct {
	path string
}

// New creates a Cache for the opening-turn cache file in dir.
func New(dir string) *Cache {
	return &Cache{path: filepath.Join(dir, fileName)}
}

// Fingerprint returns the session-log fingerprint used as the cache key:
// sha256 of the log's raw bytes, hex-encoded. An empty or missing log
// fingerprints the same as an explicit empty byte slice.
func Fingerprint(sessionLog []byte) string {
	sum := sha256.Sum256(sessionLog)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached messages if the cache exists and its stored
// fingerprint matches want. ok is false on any miss: no cache file, a
// corrupt cache file, or a fingerprint mismatch.
func (c *Cache) Lookup(want string) (messages []json.RawMessage, ok bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	if doc.SessionLogHash != want {
		return nil, false
	}
	return doc.Messages, true
}

// Store writes messages to the cache under fingerprint, atomically
// replacing any existing cache file.
func (c *Cache) Store(fingerprint string, messages []json.RawMessage) error {
	doc := document{SessionLogHash: fingerprint, Messages: messages}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("openingcache: encode: %w", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".opening-cache-*.tmp")
	if err != nil {
		return fmt.Errorf("openingcache: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("openingcache: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("openingcache: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("openingcache: rename into place: %w", err)
	}
	return nil
}
