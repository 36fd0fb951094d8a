package helix

import (
	"context"
	"fmt"
)

// Severity describes how hard a declared module conflict is.
type Severity string

// Conflict severities.
const (
	// SeverityError blocks generation unless the conflict group is resolved
	// down to a single surviving module.
	SeverityError Severity = "error"

	// SeverityWarning keeps both modules and surfaces a warning on the result.
	SeverityWarning Severity = "warning"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s == SeverityError || s == SeverityWarning
}

// Compatibility describes how well a module supports a target framework.
type Compatibility string

// Compatibility levels.
const (
	// CompatibilityFull means the module is fully usable on the framework.
	CompatibilityFull Compatibility = "full"

	// CompatibilityPartial means the module works with documented limitations.
	// Resolution succeeds with a warning.
	CompatibilityPartial Compatibility = "partial"

	// CompatibilityNone means the module cannot be used on the framework.
	// Resolution fails.
	CompatibilityNone Compatibility = "none"
)

// Valid reports whether c is a known compatibility level.
func (c Compatibility) Valid() bool {
	switch c {
	case CompatibilityFull, CompatibilityPartial, CompatibilityNone:
		return true
	}
	return false
}

// MergeStrategy is the policy applied when two modules emit content for the
// same output path.
type MergeStrategy string

// Merge strategies.
const (
	// MergeReplace lets the later module (in resolved order) win the path.
	MergeReplace MergeStrategy = "replace"

	// MergeCombine merges both contents with a per-file-type merge function.
	MergeCombine MergeStrategy = "merge"

	// MergeSkipIfExists keeps the earlier content and drops the later one.
	MergeSkipIfExists MergeStrategy = "skip-if-exists"
)

// Valid reports whether m is a known merge strategy.
func (m MergeStrategy) Valid() bool {
	switch m {
	case MergeReplace, MergeCombine, MergeSkipIfExists:
		return true
	}
	return false
}

// ModuleMetadata identifies a DNA module. Metadata is immutable once the
// module is registered.
type ModuleMetadata struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Version  string   `json:"version" yaml:"version"`
	Category string   `json:"category" yaml:"category"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// String returns "id@version".
func (m ModuleMetadata) String() string {
	return fmt.Sprintf("%s@%s", m.ID, m.Version)
}

// ModuleDependency declares that a module requires (or suggests) another.
type ModuleDependency struct {
	ModuleID string `json:"moduleId" yaml:"moduleId"`
	Range    string `json:"range,omitempty" yaml:"range,omitempty"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ModuleConflict declares that a module cannot (or should not) be composed
// with another. Declarations are unioned across both directions; absence on
// one side does not cancel a declaration on the other.
type ModuleConflict struct {
	ModuleID   string   `json:"moduleId" yaml:"moduleId"`
	Severity   Severity `json:"severity" yaml:"severity"`
	Resolution string   `json:"resolution,omitempty" yaml:"resolution,omitempty"`
}

// FrameworkImplementation describes a module's support for one target
// framework. A module may be registered but unusable for a given framework.
type FrameworkImplementation struct {
	Framework       string        `json:"framework" yaml:"framework"`
	Supported       bool          `json:"supported" yaml:"supported"`
	Compatibility   Compatibility `json:"compatibility" yaml:"compatibility"`
	Dependencies    []string      `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	DevDependencies []string      `json:"devDependencies,omitempty" yaml:"devDependencies,omitempty"`
	TemplateGlobs   []string      `json:"templateGlobs,omitempty" yaml:"templateGlobs,omitempty"`
	Limitations     string        `json:"limitations,omitempty" yaml:"limitations,omitempty"`
}

// GeneratedFile is one output file produced by a module's generator.
// Content is held in memory until the finalize stage writes it to disk.
type GeneratedFile struct {
	// Path is the slash-separated path relative to the project root.
	Path string `json:"path"`

	// Content is the file body. Text files use UTF-8.
	Content []byte `json:"content"`

	// Encoding is "utf-8" (default) or "base64" for binary payloads.
	Encoding string `json:"encoding,omitempty"`

	// Executable marks the file for 0o755 permissions on disk.
	Executable bool `json:"executable,omitempty"`

	// Overwrite allows replacing a pre-existing file at the output path.
	Overwrite bool `json:"overwrite,omitempty"`

	// Merge is the collision policy when another module emits the same path.
	Merge MergeStrategy `json:"mergeStrategy,omitempty"`

	// Modules lists the module ids that contributed to this file.
	Modules []string `json:"modules,omitempty"`
}

// Clone returns a deep copy of the file. Merge operations never mutate the
// inputs they were given.
func (f *GeneratedFile) Clone() *GeneratedFile {
	c := *f
	c.Content = append([]byte(nil), f.Content...)
	c.Modules = append([]string(nil), f.Modules...)
	return &c
}

// GenerateContext carries the per-run inputs a module generator needs.
// It is immutable from the generator's point of view.
type GenerateContext struct {
	// ProjectName is the validated project name from the request.
	ProjectName string

	// PackageName is the ProjectName normalized to an identifier-safe form.
	PackageName string

	// Framework is the target framework id (e.g. "nextjs").
	Framework string

	// TemplateType is the template category (e.g. "web-app").
	TemplateType string

	// Modules is the full resolved module id list, in resolution order.
	Modules []string

	// Variables are the request's free-form template variables.
	Variables map[string]string
}

// HasModule reports whether id is part of the resolved set. Generators use
// it to emit integration glue only when a sibling module is present.
func (c *GenerateContext) HasModule(id string) bool {
	for _, m := range c.Modules {
		if m == id {
			return true
		}
	}
	return false
}

// Variable returns the named variable or fallback when unset.
func (c *GenerateContext) Variable(name, fallback string) string {
	if v, ok := c.Variables[name]; ok {
		return v
	}
	return fallback
}

// FileGenerator produces the files one module contributes to a project for
// one framework. Implementations must be safe for concurrent use; the
// instantiation engine fans generator calls out across modules.
type FileGenerator interface {
	GenerateFiles(ctx context.Context, gctx *GenerateContext) ([]*GeneratedFile, error)
}

// GeneratorFunc is an adapter allowing ordinary functions to be used as
// FileGenerators.
type GeneratorFunc func(ctx context.Context, gctx *GenerateContext) ([]*GeneratedFile, error)

// GenerateFiles calls f(ctx, gctx).
func (f GeneratorFunc) GenerateFiles(ctx context.Context, gctx *GenerateContext) ([]*GeneratedFile, error) {
	return f(ctx, gctx)
}

// ConflictEdge is one detected conflict between two candidate modules.
// Between and Against are candidate ids; declarations from either side
// produce the same edge.
type ConflictEdge struct {
	Between    string   `json:"between"`
	Against    string   `json:"against"`
	Severity   Severity `json:"severity"`
	Resolution string   `json:"resolution,omitempty"`
}
