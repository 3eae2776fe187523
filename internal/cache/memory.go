package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryClient is an in-process Client with TTL expiry and bounded size.
type MemoryClient struct {
	mu      sync.RWMutex
	data    map[string]cacheEntry
	maxSize int
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryClient creates an in-memory cache holding at most maxSize entries.
func NewMemoryClient(maxSize int) *MemoryClient {
	if maxSize <= 0 {
		maxSize = 10000
	}

	c := &MemoryClient{
		data:    make(map[string]cacheEntry),
		maxSize: maxSize,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	go c.cleanup(time.Minute)

	return c
}

// Get retrieves a value from cache.
func (c *MemoryClient) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || entry.expired(c.now()) {
		return nil, ErrCacheMiss
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a value with TTL. A zero TTL never expires.
func (c *MemoryClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxSize {
		c.evictOldest()
	}

	entry := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.data[key] = entry

	return nil
}

// Delete removes a value from cache.
func (c *MemoryClient) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

// DeleteByPrefix removes all keys with the given prefix.
func (c *MemoryClient) DeleteByPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}

	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryClient) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Close stops the cleanup goroutine.
func (c *MemoryClient) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

// evictOldest removes the entry expiring first; entries without expiry go last.
func (c *MemoryClient) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.data {
		if entry.expiresAt.IsZero() {
			if oldestKey == "" {
				oldestKey = key
			}
			continue
		}
		if oldestTime.IsZero() || entry.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.expiresAt
		}
	}

	if oldestKey != "" {
		delete(c.data, oldestKey)
	}
}

func (c *MemoryClient) purgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.data {
		if entry.expired(now) {
			delete(c.data, key)
		}
	}
}

func (c *MemoryClient) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}
