package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/syssam/helix"
)

// entry is one cached value with its absolute expiry. A zero expiry
// never expires.
type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// LRU is an in-memory, size-bounded Cache. Eviction is least recently
// used; expiry is checked lazily on Get. Safe for concurrent use.
type LRU struct {
	mu  sync.Mutex
	lru *lru.Cache[string, entry]
	now func() time.Time
}

// NewLRU returns an LRU cache holding at most size entries. Size must be
// positive; a non-positive size falls back to 128.
func NewLRU(size int) *LRU {
	if size <= 0 {
		size = 128
	}
	// lru.New only fails on a non-positive size, which is handled above.
	c, _ := lru.New[string, entry](size)
	return &LRU{lru: c, now: time.Now}
}

// Get implements helix.Cache. Expired entries are removed and reported
// as a miss.
func (c *LRU) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, nil
	}
	if e.expired(c.now()) {
		c.lru.Remove(key)
		return nil, nil
	}
	return e.value, nil
}

// Set implements helix.Cache. A zero ttl stores the value without expiry.
func (c *LRU) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, e)
	return nil
}

// Delete implements helix.Cache.
func (c *LRU) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
	return nil
}

// DeletePrefix implements helix.Cache.
func (c *LRU) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
	return nil
}

// Clear implements helix.Cache.
func (c *LRU) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	return nil
}

// Len returns the number of live entries, counting expired ones that
// have not been swept yet.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

var _ helix.Cache = (*LRU)(nil)
