package scan

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/syssam/helix"
)

// Rule decision sentinel errors.
//
// These errors are used as return values from scan rules to indicate
// how the evaluation of a file should proceed. Use errors.Is() to check
// for these values:
//
//	if errors.Is(err, scan.Clear) { ... }
//	if errors.Is(err, scan.Report) { ... }
//	if errors.Is(err, scan.Skip) { ... }
var (
	// Clear may be returned by rules to indicate that the file is
	// explicitly safe. Evaluation of the file terminates without a
	// finding and later rules never see it.
	Clear = errors.New("helix/scan: clear rule")

	// Report may be returned by rules to indicate that the file
	// triggered a finding. Evaluation of the file terminates and the
	// finding is recorded on the report.
	Report = errors.New("helix/scan: report rule")

	// Skip may be returned by rules to indicate that the evaluation
	// should continue to the next rule in the chain. This allows rules
	// to abstain from making a decision.
	Skip = errors.New("helix/scan: skip rule")
)

// Clearf returns a formatted wrapped Clear decision.
// The returned error wraps Clear and can be checked with errors.Is(err, Clear).
func Clearf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Clear)...)
}

// Skipf returns a formatted wrapped Skip decision.
// The returned error wraps Skip and can be checked with errors.Is(err, Skip).
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Reportf returns an error-severity finding. A run whose report carries
// an error-severity finding fails its security gate.
func Reportf(format string, a ...any) error {
	return &decisionError{severity: helix.SeverityError, msg: fmt.Sprintf(format, a...)}
}

// Warnf returns a warning-severity finding. Warning findings surface on
// the report without failing the security gate.
func Warnf(format string, a ...any) error {
	return &decisionError{severity: helix.SeverityWarning, msg: fmt.Sprintf(format, a...)}
}

// decisionError carries the severity and message of a Report decision.
type decisionError struct {
	severity helix.Severity
	msg      string
}

func (e *decisionError) Error() string { return e.msg }

func (e *decisionError) Is(target error) bool { return target == Report }

type (
	// FileRule decides whether a generated file is safe to ship.
	FileRule interface {
		EvalFile(context.Context, *helix.GeneratedFile) error
	}

	// Policy combines multiple file rules into a single policy.
	Policy []FileRule
)

// FileRuleFunc type is an adapter which allows the use of
// ordinary functions as file rules.
type FileRuleFunc func(context.Context, *helix.GeneratedFile) error

// EvalFile returns f(ctx, file).
func (f FileRuleFunc) EvalFile(ctx context.Context, file *helix.GeneratedFile) error {
	return f(ctx, file)
}

// ContextRule creates a file rule from a context evaluation function.
// The provided function receives the context and should return Clear,
// Report, Skip, or nil. Returning nil is equivalent to returning Skip.
func ContextRule(eval func(context.Context) error) FileRule {
	return FileRuleFunc(func(ctx context.Context, _ *helix.GeneratedFile) error {
		return eval(ctx)
	})
}

// AlwaysClearRule returns a rule that clears every file it sees.
func AlwaysClearRule() FileRule {
	return FileRuleFunc(func(context.Context, *helix.GeneratedFile) error {
		return Clear
	})
}

// AlwaysReportRule returns a rule that reports every file it sees.
func AlwaysReportRule() FileRule {
	return FileRuleFunc(func(_ context.Context, f *helix.GeneratedFile) error {
		return Reportf("file %s rejected by policy", f.Path)
	})
}

// OnPaths evaluates the given rule only on files whose path matches one
// of the doublestar patterns. A pattern without a separator matches the
// base name. Non-matching files skip to the next rule.
func OnPaths(rule FileRule, patterns ...string) FileRule {
	return FileRuleFunc(func(ctx context.Context, f *helix.GeneratedFile) error {
		for _, pattern := range patterns {
			target := f.Path
			if !containsSlash(pattern) {
				target = path.Base(f.Path)
			}
			if ok, err := doublestar.Match(pattern, target); err == nil && ok {
				return rule.EvalFile(ctx, f)
			}
		}
		return Skip
	})
}

func containsSlash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return true
		}
	}
	return false
}

// EvalFile evaluates the rules in order. A nil or Skip decision moves to
// the next rule, Clear terminates without a finding, and any other
// decision terminates with it.
func (p Policy) EvalFile(ctx context.Context, f *helix.GeneratedFile) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, rule := range p {
		switch decision := rule.EvalFile(ctx, f); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Clear):
			return nil
		default:
			return decision
		}
	}
	return nil
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context
// with a scan decision attached to it. Every file evaluated under the
// returned context resolves to that decision.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the scan decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Clear) {
		decision = nil
	}
	return decision, ok
}

// Finding is one recorded rule decision.
type Finding struct {
	Path     string         `json:"path"`
	Severity helix.Severity `json:"severity"`
	Message  string         `json:"message"`
}

// Result collects the findings of a scan pass.
type Result struct {
	Findings []Finding `json:"findings,omitempty"`
}

// Failed reports whether the result carries an error-severity finding.
func (r *Result) Failed() bool {
	for _, f := range r.Findings {
		if f.Severity == helix.SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the formatted error-severity findings.
func (r *Result) Errors() []string { return r.messages(helix.SeverityError) }

// Warnings returns the formatted warning-severity findings.
func (r *Result) Warnings() []string { return r.messages(helix.SeverityWarning) }

func (r *Result) messages(severity helix.Severity) []string {
	var out []string
	for _, f := range r.Findings {
		if f.Severity == severity {
			out = append(out, fmt.Sprintf("%s: %s", f.Path, f.Message))
		}
	}
	return out
}

// Scanner evaluates generated files against a scan policy.
type Scanner struct {
	policy Policy
}

// New returns a Scanner with the given rules. Without rules it runs
// DefaultRules.
func New(rules ...FileRule) *Scanner {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Scanner{policy: Policy(rules)}
}

// Scan evaluates every file and collects at most one finding per file.
// Rule errors other than the decision sentinels abort the scan.
func (s *Scanner) Scan(ctx context.Context, files []*helix.GeneratedFile) (*Result, error) {
	result := &Result{}
	for _, f := range files {
		decision := s.policy.EvalFile(ctx, f)
		if decision == nil {
			continue
		}
		var de *decisionError
		switch {
		case errors.As(decision, &de):
			result.Findings = append(result.Findings, Finding{
				Path:     f.Path,
				Severity: de.severity,
				Message:  de.msg,
			})
		case errors.Is(decision, Report):
			result.Findings = append(result.Findings, Finding{
				Path:     f.Path,
				Severity: helix.SeverityError,
				Message:  decision.Error(),
			})
		default:
			return nil, fmt.Errorf("scan %s: %w", f.Path, decision)
		}
	}
	return result, nil
}

var _ FileRule = FileRuleFunc(nil)
