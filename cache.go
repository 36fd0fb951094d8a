package helix

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

// Cache is the interface for caching generation results.
// Users should implement this interface with their preferred caching solution
// (e.g., in-memory LRU, SQLite, Redis).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// Fingerprint is the deterministic cache key of one generation workload.
// Identical inputs always produce the same fingerprint regardless of module
// request order or variable map iteration order.
type Fingerprint struct {
	Framework    string
	TemplateType string
	Modules      []string
	Variables    map[string]string
}

// String returns the hex-encoded SHA-256 of the canonical fingerprint form.
func (f Fingerprint) String() string {
	modules := append([]string(nil), f.Modules...)
	sort.Strings(modules)

	keys := make([]string, 0, len(f.Variables))
	for k := range f.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	writeField := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	writeField(f.Framework)
	writeField(f.TemplateType)
	for _, m := range modules {
		writeField(m)
	}
	for _, k := range keys {
		writeField(k)
		writeField(f.Variables[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NopCache is a Cache that stores nothing. Every Get is a miss.
type NopCache struct{}

// Get implements Cache.
func (NopCache) Get(context.Context, string) ([]byte, error) { return nil, nil }

// Set implements Cache.
func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete implements Cache.
func (NopCache) Delete(context.Context, string) error { return nil }

// DeletePrefix implements Cache.
func (NopCache) DeletePrefix(context.Context, string) error { return nil }

// Clear implements Cache.
func (NopCache) Clear(context.Context) error { return nil }

var _ Cache = (*NopCache)(nil)
