// Package registry holds DNA module definitions and answers the dependency,
// conflict, and framework-compatibility queries resolution is built on.
//
// A Registry is read-mostly: registration is expected at startup (or from a
// manifest reload), queries run concurrently across generation runs.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
	"github.com/syssam/helix/internal/logger"
)

var log = logger.ForComponent("registry")

// Registry stores module definitions keyed by id.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*dna.Module
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{modules: make(map[string]*dna.Module)}
}

// Register adds a module. It fails with a DuplicateModuleError when the id
// is already present and re-checks conflict declarations so that a module
// can never declare a conflict against itself.
func (r *Registry) Register(m *dna.Module) error {
	if m == nil {
		return fmt.Errorf("registry: nil module")
	}
	id := m.ID()
	if id == "" {
		return helix.NewValidationError("id", fmt.Errorf("module id must not be empty"))
	}
	for _, c := range m.Conflicts() {
		if c.ModuleID == id {
			return helix.NewValidationError(id, fmt.Errorf("module declares a conflict against itself"))
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[id]; exists {
		return helix.NewDuplicateModuleError(id)
	}
	r.modules[id] = m
	log.Debug("module registered", "id", id, "version", m.Metadata().Version)
	return nil
}

// RegisterAll registers every module, stopping at the first failure.
func (r *Registry) RegisterAll(mods ...*dna.Module) error {
	for _, m := range mods {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Replace swaps the full module set atomically. Used by manifest reloads.
func (r *Registry) Replace(mods []*dna.Module) error {
	next := make(map[string]*dna.Module, len(mods))
	for _, m := range mods {
		if m == nil {
			return fmt.Errorf("registry: nil module")
		}
		if _, dup := next[m.ID()]; dup {
			return helix.NewDuplicateModuleError(m.ID())
		}
		next[m.ID()] = m
	}
	r.mu.Lock()
	r.modules = next
	r.mu.Unlock()
	log.Info("module set replaced", "modules", len(next))
	return nil
}

// Get returns the module with the given id.
func (r *Registry) Get(id string) (*dna.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[id]
	if !ok {
		return nil, helix.NewNotFoundErrorWithID("module", id)
	}
	return m, nil
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// IDs returns all registered module ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.modules))
	for id := range r.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns the modules matching every given predicate, sorted by id.
// With no predicates it returns all modules.
func (r *Registry) List(preds ...Predicate) []*dna.Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*dna.Module, 0, len(r.modules))
	p := And(preds...)
	for _, m := range r.modules {
		if p(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// CheckConflicts returns the conflict edges between a candidate module and
// an already-selected set. Declarations are unioned across both directions:
// absence of a declaration on one side does not cancel the other side's.
func (r *Registry) CheckConflicts(candidate string, selected []string) ([]helix.ConflictEdge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cm, ok := r.modules[candidate]
	if !ok {
		return nil, helix.NewNotFoundErrorWithID("module", candidate)
	}

	inSelected := make(map[string]bool, len(selected))
	for _, id := range selected {
		if id != candidate {
			inSelected[id] = true
		}
	}

	edges := make(map[string]*helix.ConflictEdge)
	// The candidate's own declarations against selected modules.
	for _, c := range cm.Conflicts() {
		if !inSelected[c.ModuleID] {
			continue
		}
		edges[c.ModuleID] = &helix.ConflictEdge{
			Between:    candidate,
			Against:    c.ModuleID,
			Severity:   c.Severity,
			Resolution: c.Resolution,
		}
	}
	// Selected modules' declarations against the candidate.
	for _, id := range selected {
		if id == candidate {
			continue
		}
		sm, ok := r.modules[id]
		if !ok {
			return nil, helix.NewNotFoundErrorWithID("module", id)
		}
		for _, c := range sm.Conflicts() {
			if c.ModuleID != candidate {
				continue
			}
			if e, dup := edges[id]; dup {
				// Both sides declared: the harder severity wins, the
				// candidate's resolution hint is kept.
				if c.Severity == helix.SeverityError {
					e.Severity = helix.SeverityError
				}
				if e.Resolution == "" {
					e.Resolution = c.Resolution
				}
				continue
			}
			edges[id] = &helix.ConflictEdge{
				Between:    candidate,
				Against:    id,
				Severity:   c.Severity,
				Resolution: c.Resolution,
			}
		}
	}

	out := make([]helix.ConflictEdge, 0, len(edges))
	for _, e := range edges {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Against < out[j].Against })
	return out, nil
}

// ResolveDependencies computes the transitive closure of the selected
// modules over their required (non-optional) dependencies. The result
// preserves request order for the selected modules and appends discovered
// dependencies in walk order. Cycles fail with a CyclicDependencyError,
// absent or version-incompatible dependencies with a MissingDependencyError.
func (r *Registry) ResolveDependencies(selected []string) (*helix.ResolvedModuleSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	const (
		white = iota // unvisited
		grey         // on the walk stack
		black        // fully resolved
	)
	state := make(map[string]int)
	var stack []string
	set := &helix.ResolvedModuleSet{}

	var visit func(id, requiredBy, vrange string) error
	visit = func(id, requiredBy, vrange string) error {
		m, ok := r.modules[id]
		if !ok {
			if requiredBy == "" {
				return helix.NewNotFoundErrorWithID("module", id)
			}
			return helix.NewMissingDependencyError(id, requiredBy, vrange)
		}
		if vrange != "" {
			if err := checkRange(m, vrange); err != nil {
				return helix.NewMissingDependencyError(id, requiredBy, vrange)
			}
		}
		switch state[id] {
		case grey:
			for i, sid := range stack {
				if sid == id {
					cycle := append(append([]string(nil), stack[i:]...), id)
					return helix.NewCyclicDependencyError(cycle)
				}
			}
			return helix.NewCyclicDependencyError([]string{id, id})
		case black:
			return nil
		}

		state[id] = grey
		stack = append(stack, id)

		set.Modules = append(set.Modules, id)
		if requiredBy == "" {
			set.Log = append(set.Log, helix.ResolutionEntry{ModuleID: id, Action: helix.ResolutionKept, Reason: "requested"})
		} else {
			reason := fmt.Sprintf("required by %s", requiredBy)
			set.Log = append(set.Log, helix.ResolutionEntry{ModuleID: id, Action: helix.ResolutionAdded, Reason: reason})
		}

		for _, dep := range m.Dependencies() {
			if dep.Optional {
				continue
			}
			if err := visit(dep.ModuleID, id, dep.Range); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = black
		return nil
	}

	seen := make(map[string]bool, len(selected))
	for _, id := range selected {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := visit(id, "", ""); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Suggestion is an optional dependency the resolver may pull in, and may
// drop again when it conflicts with anything mandatory.
type Suggestion struct {
	ModuleID    string
	SuggestedBy string
	Reason      string
}

// Suggestions returns the registered optional dependencies of the given
// modules that are not already part of the set, deduplicated in walk order.
func (r *Registry) Suggestions(ids []string) []Suggestion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	in := make(map[string]bool, len(ids))
	for _, id := range ids {
		in[id] = true
	}
	var out []Suggestion
	seen := make(map[string]bool)
	for _, id := range ids {
		m, ok := r.modules[id]
		if !ok {
			continue
		}
		for _, dep := range m.Dependencies() {
			if !dep.Optional || in[dep.ModuleID] || seen[dep.ModuleID] {
				continue
			}
			if _, registered := r.modules[dep.ModuleID]; !registered {
				continue
			}
			seen[dep.ModuleID] = true
			out = append(out, Suggestion{ModuleID: dep.ModuleID, SuggestedBy: id, Reason: dep.Reason})
		}
	}
	return out
}

// CheckFrameworkCompatibility returns the compatibility level of a module
// for a framework. Unknown modules fail with a NotFoundError; unknown or
// undeclared frameworks report CompatibilityNone.
func (r *Registry) CheckFrameworkCompatibility(id, framework string) (helix.Compatibility, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[id]
	if !ok {
		return helix.CompatibilityNone, helix.NewNotFoundErrorWithID("module", id)
	}
	return m.Compatibility(framework), nil
}

func checkRange(m *dna.Module, vrange string) error {
	c, err := semver.NewConstraint(vrange)
	if err != nil {
		return err
	}
	v, err := semver.NewVersion(m.Metadata().Version)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("version %s does not satisfy %s", v, vrange)
	}
	return nil
}
