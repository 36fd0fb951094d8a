package dna

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/syssam/helix/internal/logger"
)

var watchLog = logger.ForComponent("dna.watcher")

// ReloadFunc receives the freshly loaded manifest modules after a change, or
// the load error when the directory no longer parses.
type ReloadFunc func(mods []*Module, err error)

// Watcher reloads a manifest directory when its files change. Bursts of
// events are coalesced into a single reload.
type Watcher struct {
	dir      string
	debounce time.Duration
	reload   ReloadFunc

	fw *fsnotify.Watcher

	mu      sync.Mutex
	pending *time.Timer
}

// NewWatcher watches dir for manifest changes. The default debounce window
// is 250ms.
func NewWatcher(dir string, reload ReloadFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		debounce: 250 * time.Millisecond,
		reload:   reload,
		fw:       fw,
	}, nil
}

// SetDebounce overrides the debounce window. Must be called before Run.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Run consumes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()
	watchLog.Info("watching manifests", "dir", w.dir)
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.pending != nil {
				w.pending.Stop()
			}
			w.mu.Unlock()
			return ctx.Err()

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !manifestPath(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			watchLog.Debug("manifest event", "path", event.Name, "op", event.Op.String())
			w.schedule()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			watchLog.Error("watch error", "error", err)
		}
	}
}

// schedule arms (or re-arms) the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, func() {
		mods, err := LoadDir(w.dir)
		if err != nil {
			watchLog.Error("manifest reload failed", "dir", w.dir, "error", err)
		} else {
			watchLog.Info("manifests reloaded", "dir", w.dir, "modules", len(mods))
		}
		w.reload(mods, err)
	})
}

func manifestPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
