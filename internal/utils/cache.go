package utils

import (
	"os"
	"sync"
	"time"
)

// Fingerprint identifies one version of a file on disk
type Fingerprint struct {
	ModTime time.Time
	Size    int64
}

// StatFingerprint returns the fingerprint of the file at path
func StatFingerprint(path string) (Fingerprint, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{ModTime: stat.ModTime(), Size: stat.Size()}, nil
}

// Matches reports whether the file at path still has this fingerprint
func (f Fingerprint) Matches(path string) bool {
	current, err := StatFingerprint(path)
	if err != nil {
		return false
	}
	return current.ModTime.Equal(f.ModTime) && current.Size == f.Size
}

// CacheItem represents a cached item with metadata for invalidation
type CacheItem[T any] struct {
	Value       T
	Fingerprint Fingerprint
}

// Cache provides a generic caching utility with file-based invalidation
type Cache[K comparable, V any] struct {
	items  map[K]*CacheItem[V]
	mutex  sync.RWMutex
	hits   int
	misses int
}

// NewCache creates a new generic cache
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]*CacheItem[V]),
	}
}

// Get retrieves an item from the cache
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if item, exists := c.items[key]; exists {
		c.hits++
		return item.Value, true
	}

	c.misses++
	var zero V
	return zero, false
}

// GetWithFileValidation retrieves an item from the cache with file-based validation.
// If the file has been modified since caching, the item is removed and false is returned.
func (c *Cache[K, V]) GetWithFileValidation(key K, filePath string) (V, bool) {
	c.mutex.RLock()
	item, exists := c.items[key]
	c.mutex.RUnlock()

	if exists && item.Fingerprint.Matches(filePath) {
		c.mutex.Lock()
		c.hits++
		c.mutex.Unlock()
		return item.Value, true
	}

	c.mutex.Lock()
	if exists {
		// only drop the entry we looked at; a concurrent refresh may have replaced it
		if current, ok := c.items[key]; ok && current == item {
			delete(c.items, key)
		}
	}
	c.misses++
	c.mutex.Unlock()

	var zero V
	return zero, false
}

// Set stores an item in the cache
func (c *Cache[K, V]) Set(key K, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &CacheItem[V]{
		Value: value,
	}
}

// SetWithFileInfo stores an item in the cache with file metadata for validation
func (c *Cache[K, V]) SetWithFileInfo(key K, value V, filePath string) error {
	fingerprint, err := StatFingerprint(filePath)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &CacheItem[V]{
		Value:       value,
		Fingerprint: fingerprint,
	}

	return nil
}

// GetOrLoad returns the cached value for key if filePath is unchanged, and
// otherwise calls load and caches its result. Errors are not cached.
func (c *Cache[K, V]) GetOrLoad(key K, filePath string, load func() (V, error)) (V, error) {
	if value, ok := c.GetWithFileValidation(key, filePath); ok {
		return value, nil
	}

	value, err := load()
	if err != nil {
		var zero V
		return zero, err
	}

	if err := c.SetWithFileInfo(key, value, filePath); err != nil {
		return value, err
	}
	return value, nil
}

// Delete removes an item from the cache
func (c *Cache[K, V]) Delete(key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache[K, V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[K]*CacheItem[V])
	c.hits, c.misses = 0, 0
}

// Size returns the number of items in the cache
func (c *Cache[K, V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}

// GetStats returns cache statistics
func (c *Cache[K, V]) GetStats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return CacheStats{
		Size:   len(c.items),
		Hits:   c.hits,
		Misses: c.misses,
	}
}

// CacheStats provides cache statistics
type CacheStats struct {
	Size   int
	Hits   int
	Misses int
}
