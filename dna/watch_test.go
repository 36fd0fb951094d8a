package dna_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/helix/dna"
)

// TestWatcherReload tests that manifest changes trigger a debounced reload.
func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var got []*dna.Module
	var reloads int

	w, err := dna.NewWatcher(dir, func(mods []*dna.Module, err error) {
		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, err)
		got = mods
		reloads++
	})
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Give the event loop a moment to start before writing
	time.Sleep(50 * time.Millisecond)

	manifest := `
id: ui-tailwind
version: 3.0.0
frameworks:
  - framework: react
    files:
      - path: tailwind.config.js
        content: module.exports = {}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui-tailwind.yaml"), []byte(manifest), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloads >= 1 && len(got) == 1
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "ui-tailwind", got[0].ID())
	mu.Unlock()
}

// TestWatcherIgnoresUnrelatedFiles tests that non-manifest files do not
// trigger reloads.
func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var reloads int

	w, err := dna.NewWatcher(dir, func([]*dna.Module, error) {
		mu.Lock()
		defer mu.Unlock()
		reloads++
	})
	require.NoError(t, err)
	w.SetDebounce(30 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0o644))

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	assert.Zero(t, reloads)
	mu.Unlock()
}
