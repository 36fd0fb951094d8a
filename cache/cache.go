// Package cache provides ready-made implementations of the helix.Cache
// interface: a bounded in-memory LRU for single-process use and a SQLite
// store for caches that survive restarts.
package cache
