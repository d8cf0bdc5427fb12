package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Cache keeps downloaded model bytes in memory and, when dir is set, on disk
// so remote models survive restarts and network loss.
type Cache struct {
	dir  string
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a cache backed by dir. An empty dir keeps it in memory.
func NewCache(dir string) *Cache {
	return &Cache{
		dir:  dir,
		data: make(map[string][]byte),
	}
}

// Get retrieves the bytes stored for url.
func (c *Cache) Get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.data[url]; ok {
		c.hits++
		return data, true
	}
	if c.dir != "" {
		if data, err := os.ReadFile(c.path(url)); err == nil {
			c.data[url] = data
			c.hits++
			return data, true
		}
	}
	c.misses++
	return nil, false
}

// Set stores data for url. The disk copy is written atomically.
func (c *Cache) Set(url string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[url] = data

	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, "download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache: %w", err)
	}
	return os.Rename(tmp.Name(), c.path(url))
}

// Clear empties the in-memory layer.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *Cache) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".model")
}
