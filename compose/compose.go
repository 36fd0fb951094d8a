// Package compose turns a resolved module set into the file tree of a
// new project.
//
// Each module generates its files independently, fanned out across a
// bounded worker pool. The composer then folds the per-module outputs
// into one tree in resolution order, applying the merge strategy each
// file declares when two modules emit the same path:
//
//	out, err := compose.New(compose.WithWorkers(4)).Compose(ctx, modules, gctx)
//	if err != nil {
//		return err
//	}
//	for _, f := range out.Files {
//		fmt.Println(f.Path, len(f.Content))
//	}
//
// Output files are sorted by path, so composing the same modules with
// the same inputs yields byte-identical results.
package compose

import (
	"context"
	"fmt"
	"path"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
	"github.com/syssam/helix/internal/logger"
)

var log = logger.ForComponent("compose")

// Composer merges per-module file outputs into a single project tree.
type Composer struct {
	workers  int
	parallel bool
	rules    []mergerRule
}

// Option configures a Composer.
type Option func(*Composer)

// WithWorkers bounds the number of modules generating concurrently.
func WithWorkers(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithParallel toggles concurrent generation. When disabled, modules
// generate one at a time in resolution order.
func WithParallel(enabled bool) Option {
	return func(c *Composer) { c.parallel = enabled }
}

// WithMerger installs a content merger for paths matching pattern.
// Patterns use doublestar syntax; a pattern without a slash matches the
// file base name. Custom mergers take precedence over the built-in
// JSON and line mergers.
func WithMerger(pattern string, m Merger) Option {
	return func(c *Composer) {
		c.rules = append(c.rules, mergerRule{pattern: pattern, merger: m})
	}
}

// New returns a Composer. By default it runs one worker per CPU and
// merges *.json files structurally and everything else line by line.
func New(opts ...Option) *Composer {
	c := &Composer{
		workers:  runtime.GOMAXPROCS(0),
		parallel: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Output is the composed project tree.
type Output struct {
	// Files holds the merged files sorted by path.
	Files []*helix.GeneratedFile

	// Warnings lists non-fatal collisions, such as files replaced by a
	// later module.
	Warnings []string
}

// TotalBytes sums the content length of all files.
func (o *Output) TotalBytes() int64 {
	var n int64
	for _, f := range o.Files {
		n += int64(len(f.Content))
	}
	return n
}

// Compose generates the files of every module and merges them in
// module order. Modules with no support for the target framework fail
// the run before any generator executes; partial support is reported as
// a warning.
func (c *Composer) Compose(ctx context.Context, modules []*dna.Module, gctx *helix.GenerateContext) (*Output, error) {
	out := &Output{}
	for _, m := range modules {
		switch m.Compatibility(gctx.Framework) {
		case helix.CompatibilityNone:
			return nil, helix.NewIncompatibleFrameworkError(m.ID(), gctx.Framework)
		case helix.CompatibilityPartial:
			impl, _ := m.Implementation(gctx.Framework)
			warning := fmt.Sprintf("module %s has partial support for %s", m.ID(), gctx.Framework)
			if impl.Limitations != "" {
				warning += ": " + impl.Limitations
			}
			out.Warnings = append(out.Warnings, warning)
		}
	}

	generated, err := c.generate(ctx, modules, gctx)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]*helix.GeneratedFile)
	for i, m := range modules {
		for _, f := range generated[i] {
			if err := c.fold(merged, m.ID(), f, out); err != nil {
				return nil, err
			}
		}
	}

	out.Files = make([]*helix.GeneratedFile, 0, len(merged))
	for _, f := range merged {
		out.Files = append(out.Files, f)
	}
	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].Path < out.Files[j].Path })

	log.Debug("composed project tree",
		"modules", len(modules), "files", len(out.Files), "bytes", out.TotalBytes())
	return out, nil
}

// generate fans the module generators out over the worker pool and
// collects their outputs indexed by module position.
func (c *Composer) generate(ctx context.Context, modules []*dna.Module, gctx *helix.GenerateContext) ([][]*helix.GeneratedFile, error) {
	generated := make([][]*helix.GeneratedFile, len(modules))

	eg, egCtx := errgroup.WithContext(ctx)
	limit := c.workers
	if !c.parallel {
		limit = 1
	}
	eg.SetLimit(limit)

	for i, m := range modules {
		eg.Go(func() error {
			select {
			case <-egCtx.Done():
				return egCtx.Err()
			default:
			}
			gen, ok := m.Generator(gctx.Framework)
			if !ok {
				return helix.NewIncompatibleFrameworkError(m.ID(), gctx.Framework)
			}
			files, err := gen.GenerateFiles(egCtx, gctx)
			if err != nil {
				return fmt.Errorf("compose: module %s: %w", m.ID(), err)
			}
			for _, f := range files {
				if err := checkPath(m.ID(), f.Path); err != nil {
					return err
				}
			}
			generated[i] = files
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return generated, nil
}

// fold merges one generated file into the tree under construction.
func (c *Composer) fold(merged map[string]*helix.GeneratedFile, moduleID string, f *helix.GeneratedFile, out *Output) error {
	incoming := f.Clone()
	incoming.Path = path.Clean(incoming.Path)
	if len(incoming.Modules) == 0 {
		incoming.Modules = []string{moduleID}
	}

	current, exists := merged[incoming.Path]
	if !exists {
		merged[incoming.Path] = incoming
		return nil
	}

	strategy := effective(incoming.Merge)
	// A replace declared by either side wins the collision; the later
	// module's content stands.
	if strategy == helix.MergeCombine && effective(current.Merge) == helix.MergeReplace {
		strategy = helix.MergeReplace
	}
	switch strategy {
	case helix.MergeReplace:
		out.Warnings = append(out.Warnings, fmt.Sprintf("file %s from %s replaced by %s",
			incoming.Path, strings.Join(current.Modules, ", "), moduleID))
		incoming.Modules = append(current.Modules, moduleID)
		merged[incoming.Path] = incoming

	case helix.MergeSkipIfExists:
		log.Debug("kept earlier file", "path", incoming.Path,
			"kept", strings.Join(current.Modules, ","), "skipped", moduleID)

	case helix.MergeCombine:
		contributors := append(append([]string(nil), current.Modules...), moduleID)
		if isBinary(current) || isBinary(incoming) {
			return helix.NewFileMergeConflictError(incoming.Path, contributors,
				fmt.Errorf("cannot merge binary content"))
		}
		content, err := c.mergerFor(incoming.Path).Merge(current.Content, incoming.Content)
		if err != nil {
			return helix.NewFileMergeConflictError(incoming.Path, contributors, err)
		}
		current.Content = content
		current.Modules = contributors
		current.Executable = current.Executable || incoming.Executable
		current.Overwrite = current.Overwrite || incoming.Overwrite
		current.Merge = helix.MergeCombine

	default:
		return helix.NewValidationError("merge_strategy",
			fmt.Errorf("module %s uses unknown merge strategy %q for %s", moduleID, strategy, incoming.Path))
	}
	return nil
}

// mergerFor selects the content merger for a path. Custom rules win in
// registration order, *.json falls back to the structural JSON merger,
// and everything else appends missing lines.
func (c *Composer) mergerFor(p string) Merger {
	for _, rule := range c.rules {
		if rule.match(p) {
			return rule.merger
		}
	}
	if path.Ext(p) == ".json" {
		return MergerFunc(MergeJSON)
	}
	return MergerFunc(MergeLines)
}

func checkPath(moduleID, p string) error {
	cleaned := path.Clean(p)
	if p == "" || path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return helix.NewValidationError("file_path",
			fmt.Errorf("module %s emitted invalid path %q", moduleID, p))
	}
	return nil
}

// effective resolves the collision strategy a file declares; files
// without one replace.
func effective(s helix.MergeStrategy) helix.MergeStrategy {
	if s == "" {
		return helix.MergeReplace
	}
	return s
}

func isBinary(f *helix.GeneratedFile) bool { return f.Encoding == "base64" }
