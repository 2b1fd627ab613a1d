// Package cache stores select results on the local filesystem,
// content-addressed by the request that produced them.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// Cache is a directory of immutable result files keyed by request digest.
//
// Entries are best-effort: a miss, a corrupt entry or an unwritable
// directory never fails the lookup path, only the write path reports
// errors. Corrupt entries are evicted on read.
type Cache struct {
	dir string
}

// New opens (creating if needed) a cache rooted at dir.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

// Key digests the given request parts into a stable cache key.
//
// MD5 is a fingerprint here, not a security boundary: 32 hex characters
// keep file names short and collision odds negligible for cache purposes.
func Key(parts ...string) string {
	h := md5.New()
	for _, p := range parts {
		_, _ = io.WriteString(h, p)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Path returns the file path an entry with the given key and extension
// would occupy. The file may or may not exist.
func (c *Cache) Path(key, ext string) string {
	return filepath.Join(c.dir, key+ext)
}

// GetBytes returns the payload stored under key, or ok=false on a miss.
// Unreadable entries are evicted and reported as a miss.
func (c *Cache) GetBytes(key string) ([]byte, bool) {
	name := c.Path(key, ".gz")
	f, err := os.Open(name)
	if err != nil {
		return nil, false
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		c.evict(name)
		return nil, false
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		c.evict(name)
		return nil, false
	}
	if err := zr.Close(); err != nil {
		c.evict(name)
		return nil, false
	}
	return data, true
}

// PutBytes stores a payload under key.
//
// The entry is written to a temp file and renamed into place so readers
// never observe a partial entry.
func (c *Cache) PutBytes(key string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	zw := gzip.NewWriter(tmp)
	if _, err := zw.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache write: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.Path(key, ".gz")); err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

func (c *Cache) evict(name string) {
	_ = os.Remove(name)
}
