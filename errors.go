package helix

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested module does not exist.
	ErrNotFound = errors.New("helix: module not found")

	// ErrModuleExists is returned when registering a module whose id is
	// already present in the registry.
	ErrModuleExists = errors.New("helix: module already registered")

	// ErrTransient marks a stage failure as retryable. Stage implementations
	// wrap retryable failures so the pipeline controller can distinguish them
	// from fatal ones without inspecting message text.
	ErrTransient = errors.New("helix: transient stage failure")
)

// NotFoundError represents an error when a module is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("helix: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("helix: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// DuplicateModuleError represents an error when a module id is registered twice.
type DuplicateModuleError struct {
	id string
}

// Error returns the error string.
func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("helix: module %q already registered", e.id)
}

// Is reports whether the target error matches DuplicateModuleError.
// This allows errors.Is(dupErr, ErrModuleExists) to return true.
func (e *DuplicateModuleError) Is(err error) bool {
	return err == ErrModuleExists
}

// ID returns the duplicated module id.
func (e *DuplicateModuleError) ID() string {
	return e.id
}

// NewDuplicateModuleError returns a new DuplicateModuleError for the given id.
func NewDuplicateModuleError(id string) *DuplicateModuleError {
	return &DuplicateModuleError{id: id}
}

// IsDuplicateModule returns true if the error is a DuplicateModuleError.
func IsDuplicateModule(err error) bool {
	if err == nil {
		return false
	}
	var e *DuplicateModuleError
	return errors.As(err, &e) || errors.Is(err, ErrModuleExists)
}

// ValidationError represents a validation error for request or module fields.
type ValidationError struct {
	Name string // Field or entity name
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("helix: validator failed for %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// UnresolvableConflictError is returned when a conflict group contains two or
// more explicitly requested modules connected by error-severity edges and no
// interactive chooser is available to pick a survivor.
type UnresolvableConflictError struct {
	Group []string // Module ids in the conflict group, request order
}

// Error returns the error string.
func (e *UnresolvableConflictError) Error() string {
	return fmt.Sprintf("helix: unresolvable conflict between modules [%s]", strings.Join(e.Group, ", "))
}

// NewUnresolvableConflictError returns a new UnresolvableConflictError for the group.
func NewUnresolvableConflictError(group []string) *UnresolvableConflictError {
	return &UnresolvableConflictError{Group: group}
}

// IsUnresolvableConflict returns true if the error is an UnresolvableConflictError.
func IsUnresolvableConflict(err error) bool {
	if err == nil {
		return false
	}
	var e *UnresolvableConflictError
	return errors.As(err, &e)
}

// MissingDependencyError is returned when dependency resolution requires a
// module that is not present in the registry.
type MissingDependencyError struct {
	ModuleID   string // The missing module
	RequiredBy string // The module that declared the dependency
	Range      string // Declared version range, if any
}

// Error returns the error string.
func (e *MissingDependencyError) Error() string {
	if e.Range != "" {
		return fmt.Sprintf("helix: missing dependency %q (%s) required by %q", e.ModuleID, e.Range, e.RequiredBy)
	}
	return fmt.Sprintf("helix: missing dependency %q required by %q", e.ModuleID, e.RequiredBy)
}

// NewMissingDependencyError returns a new MissingDependencyError.
func NewMissingDependencyError(moduleID, requiredBy, vrange string) *MissingDependencyError {
	return &MissingDependencyError{ModuleID: moduleID, RequiredBy: requiredBy, Range: vrange}
}

// IsMissingDependency returns true if the error is a MissingDependencyError.
func IsMissingDependency(err error) bool {
	if err == nil {
		return false
	}
	var e *MissingDependencyError
	return errors.As(err, &e)
}

// CyclicDependencyError is returned when the dependency walk detects a cycle.
// Module composition is a DAG; a cycle is always an authoring mistake.
type CyclicDependencyError struct {
	Cycle []string // Module ids forming the cycle, first repeated last
}

// Error returns the error string.
func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("helix: cyclic module dependency: %s", strings.Join(e.Cycle, " -> "))
}

// NewCyclicDependencyError returns a new CyclicDependencyError for the cycle path.
func NewCyclicDependencyError(cycle []string) *CyclicDependencyError {
	return &CyclicDependencyError{Cycle: cycle}
}

// IsCyclicDependency returns true if the error is a CyclicDependencyError.
func IsCyclicDependency(err error) bool {
	if err == nil {
		return false
	}
	var e *CyclicDependencyError
	return errors.As(err, &e)
}

// IncompatibleFrameworkError is returned when a resolved module has no usable
// implementation for the requested framework.
type IncompatibleFrameworkError struct {
	ModuleID  string
	Framework string
}

// Error returns the error string.
func (e *IncompatibleFrameworkError) Error() string {
	return fmt.Sprintf("helix: module %q is not compatible with framework %q", e.ModuleID, e.Framework)
}

// NewIncompatibleFrameworkError returns a new IncompatibleFrameworkError.
func NewIncompatibleFrameworkError(moduleID, framework string) *IncompatibleFrameworkError {
	return &IncompatibleFrameworkError{ModuleID: moduleID, Framework: framework}
}

// IsIncompatibleFramework returns true if the error is an IncompatibleFrameworkError.
func IsIncompatibleFramework(err error) bool {
	if err == nil {
		return false
	}
	var e *IncompatibleFrameworkError
	return errors.As(err, &e)
}

// TransientStageError wraps a retryable stage failure. The pipeline retries
// transient failures up to its configured retry budget; every other error
// kind fails the run immediately.
type TransientStageError struct {
	Stage Stage
	Err   error
}

// Error returns the error string.
func (e *TransientStageError) Error() string {
	return fmt.Sprintf("helix: transient failure in stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransientStageError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches TransientStageError.
// This allows errors.Is(transientErr, ErrTransient) to return true.
func (e *TransientStageError) Is(err error) bool {
	return err == ErrTransient
}

// NewTransientStageError returns a new TransientStageError for the given stage.
func NewTransientStageError(stage Stage, err error) *TransientStageError {
	return &TransientStageError{Stage: stage, Err: err}
}

// IsTransient returns true if the error is retryable.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var e *TransientStageError
	return errors.As(err, &e) || errors.Is(err, ErrTransient)
}

// TimeoutError is returned when a pipeline run exceeds its wall-clock budget.
type TimeoutError struct {
	Stage Stage         // Stage that was in flight when the deadline hit
	After time.Duration // Configured timeout
}

// Error returns the error string.
func (e *TimeoutError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("helix: generation timeout after %s in stage %s", e.After, e.Stage)
	}
	return fmt.Sprintf("helix: generation timeout after %s", e.After)
}

// NewTimeoutError returns a new TimeoutError.
func NewTimeoutError(stage Stage, after time.Duration) *TimeoutError {
	return &TimeoutError{Stage: stage, After: after}
}

// IsTimeout returns true if the error is a TimeoutError or a context
// deadline expiry.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var e *TimeoutError
	return errors.As(err, &e) || errors.Is(err, context.DeadlineExceeded)
}

// FileMergeConflictError is returned when two modules emit irreconcilable
// content for the same output path.
type FileMergeConflictError struct {
	Path    string   // Relative output path
	Modules []string // Module ids that produced the colliding content
	Err     error    // Underlying merge failure, if any
}

// Error returns the error string.
func (e *FileMergeConflictError) Error() string {
	if len(e.Modules) > 0 {
		return fmt.Sprintf("helix: merge conflict at %q between modules [%s]", e.Path, strings.Join(e.Modules, ", "))
	}
	return fmt.Sprintf("helix: merge conflict at %q", e.Path)
}

// Unwrap returns the underlying error.
func (e *FileMergeConflictError) Unwrap() error {
	return e.Err
}

// NewFileMergeConflictError returns a new FileMergeConflictError.
func NewFileMergeConflictError(path string, modules []string, err error) *FileMergeConflictError {
	return &FileMergeConflictError{Path: path, Modules: modules, Err: err}
}

// IsFileMergeConflict returns true if the error is a FileMergeConflictError.
func IsFileMergeConflict(err error) bool {
	if err == nil {
		return false
	}
	var e *FileMergeConflictError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred while removing files written by
// a failed run.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("helix: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "helix: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("helix: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
