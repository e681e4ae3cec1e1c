package translate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
)

// DefaultCacheCapacity bounds the number of cached batches per client.
const DefaultCacheCapacity = 100

// Cache stores successful batch translations.
type Cache interface {
	Get(key string) ([]string, bool)
	Put(key string, outputs []string)
}

// CacheKey derives a deterministic key from the exact request triple.
func CacheKey(texts []string, sourceLang, targetLang string) string {
	raw, _ := json.Marshal(struct {
		Texts  []string `json:"t"`
		Source string   `json:"s"`
		Target string   `json:"d"`
	}{texts, sourceLang, targetLang})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// FIFOCache is a bounded cache that evicts the oldest inserted entry once
// capacity is exceeded. Reads do not refresh an entry's position.
type FIFOCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string][]string
	order    []string
}

func NewFIFOCache(capacity int) *FIFOCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &FIFOCache{
		capacity: capacity,
		entries:  make(map[string][]string, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (c *FIFOCache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return append([]string(nil), v...), true
}

func (c *FIFOCache) Put(key string, outputs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := append([]string(nil), outputs...)
	if _, ok := c.entries[key]; ok {
		c.entries[key] = stored
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = stored
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *FIFOCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
