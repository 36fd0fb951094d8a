// Package validate implements the validation engine consumed by the
// generation pipeline: request checks before anything runs, environment
// checks, module template metadata checks, and quality checks over the
// generated output.
//
// Every entry point returns a Result. Errors are fatal for the calling
// stage; warnings and suggestions pass through to the generation result
// untouched.
package validate

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
)

// Result is the outcome of one validation pass.
type Result struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (r *Result) errorf(format string, a ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, a...))
}

func (r *Result) warnf(format string, a ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, a...))
}

func (r *Result) suggestf(format string, a ...any) {
	r.Suggestions = append(r.Suggestions, fmt.Sprintf(format, a...))
}

// Absorb folds another result into r. Errors, warnings and suggestions
// append; validity is the conjunction.
func (r *Result) Absorb(other *Result) {
	if other == nil {
		return
	}
	if !other.Valid {
		r.Valid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Suggestions = append(r.Suggestions, other.Suggestions...)
}

// Err converts the result into a ValidationError carrying the first error
// message, or nil when the result is valid.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	msg := "validation failed"
	if len(r.Errors) > 0 {
		msg = r.Errors[0]
	}
	return helix.NewValidationError("request", fmt.Errorf("%s", msg))
}

var (
	// namePattern is the accepted project name shape: a leading letter
	// followed by letters, digits, hyphens or underscores.
	namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-_]*$`)

	variableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// maxNameLength keeps project names usable as npm package and directory
// names across platforms.
const maxNameLength = 214

// Engine validates requests, environments, templates and generated output.
// An Engine is stateless and safe for concurrent use.
type Engine struct {
	v *validator.Validate
}

// New returns a validation engine.
func New() *Engine {
	return &Engine{v: validator.New(validator.WithRequiredStructEnabled())}
}

// PreGeneration validates a generation request before the pipeline does
// any work. The first error for a malformed name always starts with
// "Invalid project name" so callers can match on the condition.
func (e *Engine) PreGeneration(req *helix.GenerationRequest) *Result {
	r := &Result{Valid: true}
	if req == nil {
		r.errorf("request is nil")
		return r
	}
	e.checkName(req.Name, r)
	if err := e.v.Struct(req); err != nil {
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) {
			r.errorf("request: %v", err)
			return r
		}
		for _, fe := range invalid {
			// Name shape errors are reported by checkName with a more
			// specific message.
			if fe.Field() == "Name" {
				continue
			}
			r.errorf("field %s failed %q validation", fe.Field(), fe.Tag())
		}
	}

	e.checkOutputPath(req.OutputPath, req.Options.Overwrite, r)

	if req.Framework != "" && !dna.KnownFramework(req.Framework) {
		known := make([]string, 0, 4)
		for _, f := range dna.Frameworks() {
			known = append(known, f.ID)
		}
		r.errorf("unknown framework %q (known: %s)", req.Framework, strings.Join(known, ", "))
	}
	if req.TemplateType != "" && !dna.KnownTemplateType(req.TemplateType) {
		r.errorf("unknown template type %q (known: %s)", req.TemplateType, strings.Join(dna.TemplateTypes(), ", "))
	}

	seen := make(map[string]bool, len(req.Modules))
	for _, id := range req.Modules {
		if seen[id] {
			r.warnf("module %s requested more than once", id)
		}
		seen[id] = true
	}
	for name := range req.Variables {
		if !variableNamePattern.MatchString(name) {
			r.errorf("invalid variable name %q", name)
		}
	}
	if pm := req.Options.PackageManager; pm != "" {
		switch pm {
		case "npm", "pnpm", "yarn", "bun", "pub", "cargo":
		default:
			r.errorf("unknown package manager %q", pm)
		}
	}
	if len(req.Modules) == 0 {
		r.suggestf("no DNA modules requested; the project will contain only the base template")
	}
	return r
}

func (e *Engine) checkName(name string, r *Result) {
	switch {
	case name == "":
		r.errorf("Invalid project name: name is required")
	case !namePattern.MatchString(name):
		r.errorf("Invalid project name %q: must start with a letter and contain only letters, digits, hyphens and underscores", name)
	case len(name) > maxNameLength:
		r.errorf("Invalid project name %q: longer than %d characters", name, maxNameLength)
	}
}

func (e *Engine) checkOutputPath(p string, overwrite bool, r *Result) {
	if p == "" {
		r.errorf("output path is required")
		return
	}
	info, err := os.Stat(p)
	switch {
	case os.IsNotExist(err):
		// The finalize stage creates it.
	case err != nil:
		r.errorf("output path %q: %v", p, err)
	case !info.IsDir():
		r.errorf("output path %q exists and is not a directory", p)
	default:
		entries, err := os.ReadDir(p)
		if err == nil && len(entries) > 0 && !overwrite {
			r.warnf("output path %q is not empty; existing files will not be replaced without --overwrite", p)
		}
	}
}

// Environment validates the run-time environment. Missing tooling is a
// warning, not an error: generation itself only needs a writable disk.
func (e *Engine) Environment() *Result {
	r := &Result{Valid: true}

	tmp, err := os.CreateTemp("", "helix-env-*")
	if err != nil {
		r.errorf("temporary directory is not writable: %v", err)
	} else {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	for _, tool := range []string{"git", "node"} {
		if _, err := exec.LookPath(tool); err != nil {
			r.warnf("%s not found in PATH", tool)
		}
	}
	return r
}

// Template validates a module definition beyond what the dna builder
// enforces, for modules loaded from external manifests.
func (e *Engine) Template(m *dna.Module) *Result {
	r := &Result{Valid: true}
	if m == nil {
		r.errorf("module is nil")
		return r
	}
	md := m.Metadata()
	if md.Name == "" {
		r.warnf("module %s has no display name", md.ID)
	}
	if md.Category == "" {
		r.warnf("module %s has no category", md.ID)
	}
	if len(m.Frameworks()) == 0 {
		r.errorf("module %s implements no framework", md.ID)
	}
	for _, dep := range m.Dependencies() {
		if dep.ModuleID == "" {
			r.errorf("module %s declares a dependency without a module id", md.ID)
		}
	}
	for _, c := range m.Conflicts() {
		if c.ModuleID == md.ID {
			r.errorf("module %s declares a conflict against itself", md.ID)
		}
	}
	return r
}

// GeneratedProject validates a finalized project directory on disk.
func (e *Engine) GeneratedProject(path string) *Result {
	r := &Result{Valid: true}
	info, err := os.Stat(path)
	if err != nil {
		r.errorf("project directory %q: %v", path, err)
		return r
	}
	if !info.IsDir() {
		r.errorf("project path %q is not a directory", path)
		return r
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		r.errorf("project directory %q: %v", path, err)
		return r
	}
	if len(entries) == 0 {
		r.errorf("project directory %q is empty", path)
		return r
	}
	if _, err := os.Stat(filepath.Join(path, ".git")); os.IsNotExist(err) {
		r.suggestf("initialize a git repository in %s", path)
	}
	return r
}
