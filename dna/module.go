package dna

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/syssam/helix"
)

// idPattern constrains module ids to lowercase kebab-case.
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// support couples one framework implementation with its file generator.
type support struct {
	impl      helix.FrameworkImplementation
	generator helix.FileGenerator
}

// Module is a sealed DNA module definition. Instances are immutable after
// Build and safe for concurrent use.
type Module struct {
	metadata     helix.ModuleMetadata
	dependencies []helix.ModuleDependency
	conflicts    []helix.ModuleConflict
	supports     map[string]support
}

// ID returns the module id.
func (m *Module) ID() string { return m.metadata.ID }

// Metadata returns a copy of the module metadata.
func (m *Module) Metadata() helix.ModuleMetadata {
	md := m.metadata
	md.Keywords = append([]string(nil), m.metadata.Keywords...)
	return md
}

// Dependencies returns a copy of the declared dependencies.
func (m *Module) Dependencies() []helix.ModuleDependency {
	return append([]helix.ModuleDependency(nil), m.dependencies...)
}

// Conflicts returns a copy of the declared conflicts.
func (m *Module) Conflicts() []helix.ModuleConflict {
	return append([]helix.ModuleConflict(nil), m.conflicts...)
}

// Frameworks returns the framework ids this module implements, sorted.
func (m *Module) Frameworks() []string {
	out := make([]string, 0, len(m.supports))
	for fw := range m.supports {
		out = append(out, fw)
	}
	sort.Strings(out)
	return out
}

// Implementation returns the implementation details for a framework.
func (m *Module) Implementation(framework string) (helix.FrameworkImplementation, bool) {
	s, ok := m.supports[framework]
	if !ok {
		return helix.FrameworkImplementation{}, false
	}
	impl := s.impl
	impl.Dependencies = append([]string(nil), s.impl.Dependencies...)
	impl.DevDependencies = append([]string(nil), s.impl.DevDependencies...)
	impl.TemplateGlobs = append([]string(nil), s.impl.TemplateGlobs...)
	return impl, true
}

// Generator returns the file generator for a framework.
func (m *Module) Generator(framework string) (helix.FileGenerator, bool) {
	s, ok := m.supports[framework]
	if !ok || s.generator == nil {
		return nil, false
	}
	return s.generator, true
}

// Compatibility returns the module's compatibility level for a framework.
// Unknown frameworks report CompatibilityNone.
func (m *Module) Compatibility(framework string) helix.Compatibility {
	s, ok := m.supports[framework]
	if !ok || !s.impl.Supported {
		return helix.CompatibilityNone
	}
	return s.impl.Compatibility
}

// Builder assembles a Module. Methods record mistakes instead of failing;
// Build surfaces them all at once.
type Builder struct {
	module Module
	errs   []error
}

// NewModule returns a builder for a module with the given id.
func NewModule(id string) *Builder {
	b := &Builder{}
	b.module.metadata.ID = id
	b.module.supports = make(map[string]support)
	if !idPattern.MatchString(id) {
		b.errs = append(b.errs, fmt.Errorf("dna: invalid module id %q", id))
	}
	return b
}

// Name sets the human-readable module name.
func (b *Builder) Name(name string) *Builder {
	b.module.metadata.Name = name
	return b
}

// Version sets the module's semantic version.
func (b *Builder) Version(version string) *Builder {
	if _, err := semver.NewVersion(version); err != nil {
		b.errs = append(b.errs, fmt.Errorf("dna: module %q: invalid version %q: %w", b.module.metadata.ID, version, err))
	}
	b.module.metadata.Version = version
	return b
}

// Category sets the module category (e.g. "auth", "payments").
func (b *Builder) Category(category string) *Builder {
	b.module.metadata.Category = category
	return b
}

// Keywords sets the search keywords.
func (b *Builder) Keywords(keywords ...string) *Builder {
	b.module.metadata.Keywords = keywords
	return b
}

// DependsOn declares a dependency on another module.
func (b *Builder) DependsOn(moduleID string, opts ...DependencyOption) *Builder {
	dep := helix.ModuleDependency{ModuleID: moduleID}
	for _, opt := range opts {
		opt(&dep)
	}
	if moduleID == b.module.metadata.ID {
		b.errs = append(b.errs, fmt.Errorf("dna: module %q depends on itself", moduleID))
	}
	if dep.Range != "" {
		if _, err := semver.NewConstraint(dep.Range); err != nil {
			b.errs = append(b.errs, fmt.Errorf("dna: module %q: invalid range %q for dependency %q: %w",
				b.module.metadata.ID, dep.Range, moduleID, err))
		}
	}
	b.module.dependencies = append(b.module.dependencies, dep)
	return b
}

// ConflictsWith declares a conflict with another module. Declarations are
// unioned across both modules at resolution time.
func (b *Builder) ConflictsWith(moduleID string, severity helix.Severity, resolution string) *Builder {
	if moduleID == b.module.metadata.ID {
		b.errs = append(b.errs, fmt.Errorf("dna: module %q conflicts with itself", moduleID))
	}
	if !severity.Valid() {
		b.errs = append(b.errs, fmt.Errorf("dna: module %q: invalid conflict severity %q", b.module.metadata.ID, severity))
	}
	b.module.conflicts = append(b.module.conflicts, helix.ModuleConflict{
		ModuleID:   moduleID,
		Severity:   severity,
		Resolution: resolution,
	})
	return b
}

// Framework declares an implementation for one target framework.
func (b *Builder) Framework(framework string, opts ...FrameworkOption) *Builder {
	if !KnownFramework(framework) {
		b.errs = append(b.errs, fmt.Errorf("dna: module %q: unknown framework %q", b.module.metadata.ID, framework))
	}
	if _, dup := b.module.supports[framework]; dup {
		b.errs = append(b.errs, fmt.Errorf("dna: module %q: framework %q declared twice", b.module.metadata.ID, framework))
	}
	s := support{impl: helix.FrameworkImplementation{
		Framework:     framework,
		Supported:     true,
		Compatibility: helix.CompatibilityFull,
	}}
	for _, opt := range opts {
		opt(&s)
	}
	for _, glob := range s.impl.TemplateGlobs {
		if !doublestar.ValidatePattern(glob) {
			b.errs = append(b.errs, fmt.Errorf("dna: module %q: invalid template glob %q", b.module.metadata.ID, glob))
		}
	}
	if s.impl.Supported && s.impl.Compatibility != helix.CompatibilityNone && s.generator == nil {
		b.errs = append(b.errs, fmt.Errorf("dna: module %q: framework %q has no generator", b.module.metadata.ID, framework))
	}
	b.module.supports[framework] = s
	return b
}

// Build seals the module, returning every recorded definition error.
func (b *Builder) Build() (*Module, error) {
	if b.module.metadata.Version == "" {
		b.errs = append(b.errs, fmt.Errorf("dna: module %q has no version", b.module.metadata.ID))
	}
	if err := helix.NewAggregateError(b.errs...); err != nil {
		return nil, err
	}
	m := b.module
	return &m, nil
}

// Must unwraps Build and panics on error. Intended for static catalogs.
func Must(m *Module, err error) *Module {
	if err != nil {
		panic(err)
	}
	return m
}

// DependencyOption customizes a DependsOn declaration.
type DependencyOption func(*helix.ModuleDependency)

// Range constrains the acceptable dependency versions.
func Range(constraint string) DependencyOption {
	return func(d *helix.ModuleDependency) { d.Range = constraint }
}

// Optional marks the dependency as a suggestion rather than a requirement.
// Optional dependencies are not pulled into the transitive closure.
func Optional() DependencyOption {
	return func(d *helix.ModuleDependency) { d.Optional = true }
}

// Because records the human-readable reason for the dependency.
func Because(reason string) DependencyOption {
	return func(d *helix.ModuleDependency) { d.Reason = reason }
}

// FrameworkOption customizes a Framework declaration.
type FrameworkOption func(*support)

// Full marks the implementation fully compatible.
func Full() FrameworkOption {
	return func(s *support) { s.impl.Compatibility = helix.CompatibilityFull }
}

// Partial marks the implementation usable with limitations. Resolution
// surfaces the limitations as a warning.
func Partial(limitations string) FrameworkOption {
	return func(s *support) {
		s.impl.Compatibility = helix.CompatibilityPartial
		s.impl.Limitations = limitations
	}
}

// Unsupported records an explicit non-implementation. Resolution fails when
// the request targets this framework.
func Unsupported(reason string) FrameworkOption {
	return func(s *support) {
		s.impl.Supported = false
		s.impl.Compatibility = helix.CompatibilityNone
		s.impl.Limitations = reason
	}
}

// Generator sets the file generator for the framework.
func Generator(g helix.FileGenerator) FrameworkOption {
	return func(s *support) { s.generator = g }
}

// GenerateWith is a convenience wrapper around Generator for plain functions.
func GenerateWith(f helix.GeneratorFunc) FrameworkOption {
	return Generator(f)
}

// Packages lists runtime packages the implementation adds to the project.
func Packages(pkgs ...string) FrameworkOption {
	return func(s *support) { s.impl.Dependencies = pkgs }
}

// DevPackages lists development-time packages.
func DevPackages(pkgs ...string) FrameworkOption {
	return func(s *support) { s.impl.DevDependencies = pkgs }
}

// Templates records the doublestar globs of the template files the
// implementation owns.
func Templates(globs ...string) FrameworkOption {
	return func(s *support) { s.impl.TemplateGlobs = globs }
}
