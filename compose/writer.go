package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/helix"
)

// Writer materializes a composed tree under a root directory with
// parallel writes and rollback support.
type Writer struct {
	root    string
	workers int

	mu      sync.Mutex
	written []string
	metrics WriteMetrics
}

// WriteMetrics tracks write performance.
type WriteMetrics struct {
	FilesWritten int
	FilesSkipped int
	TotalBytes   int64
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{
		root:    dir,
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithWorkers sets the number of parallel writers.
func (w *Writer) WithWorkers(n int) *Writer {
	if n > 0 {
		w.workers = n
	}
	return w
}

// Metrics returns the write metrics.
func (w *Writer) Metrics() WriteMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// WriteAll writes every file in parallel. Files already present on disk
// fail the write unless overwrite is set, the file allows it, or its
// strategy keeps existing content. Paths created by this run are
// recorded for Rollback; overwritten files pre-existed and are not.
func (w *Writer) WriteAll(ctx context.Context, files []*helix.GeneratedFile, overwrite bool) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)

	for _, f := range files {
		eg.Go(func() error {
			select {
			case <-egCtx.Done():
				return egCtx.Err()
			default:
				return w.writeFile(f, overwrite)
			}
		})
	}

	return eg.Wait()
}

// writeFile writes a single file.
func (w *Writer) writeFile(f *helix.GeneratedFile, overwrite bool) error {
	if !filepath.IsLocal(filepath.FromSlash(f.Path)) {
		return helix.NewValidationError("file_path", fmt.Errorf("path %q escapes the output directory", f.Path))
	}
	target := filepath.Join(w.root, filepath.FromSlash(f.Path))

	existed := false
	if _, err := os.Stat(target); err == nil {
		existed = true
		if f.Merge == helix.MergeSkipIfExists {
			w.mu.Lock()
			w.metrics.FilesSkipped++
			w.mu.Unlock()
			return nil
		}
		if !overwrite && !f.Overwrite {
			return helix.NewValidationError("output",
				fmt.Errorf("write %s: file already exists", f.Path))
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", f.Path, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", f.Path, err)
	}

	mode := os.FileMode(0o644)
	if f.Executable {
		mode = 0o755
	}
	if err := os.WriteFile(target, f.Content, mode); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}

	w.mu.Lock()
	// Rollback only removes files this run created; an overwritten file
	// pre-existed and stays put.
	if !existed {
		w.written = append(w.written, f.Path)
	}
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(f.Content))
	w.mu.Unlock()

	return nil
}

// Written returns the files this run created, sorted by path.
func (w *Writer) Written() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := append([]string(nil), w.written...)
	sort.Strings(out)
	return out
}

// Rollback removes every file written in this run and prunes the
// directories left empty, up to and including the root when the run
// created it. Files that were present before the run are untouched.
func (w *Writer) Rollback() error {
	w.mu.Lock()
	written := append([]string(nil), w.written...)
	w.written = nil
	w.mu.Unlock()

	var failed error
	dirs := make(map[string]bool)
	for _, p := range written {
		target := filepath.Join(w.root, filepath.FromSlash(p))
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			failed = err
			continue
		}
		for dir := filepath.Dir(target); len(dir) >= len(w.root); dir = filepath.Dir(dir) {
			dirs[dir] = true
			if dir == w.root {
				break
			}
		}
	}

	// Longest paths first, so children go before parents.
	pruned := make([]string, 0, len(dirs))
	for dir := range dirs {
		pruned = append(pruned, dir)
	}
	sort.Slice(pruned, func(i, j int) bool { return len(pruned[i]) > len(pruned[j]) })
	for _, dir := range pruned {
		// Remove fails on non-empty directories, which is the stop condition.
		_ = os.Remove(dir)
	}

	if failed != nil {
		return &helix.RollbackError{Err: failed}
	}
	return nil
}
