// Package resolve decides which modules of a generation request survive
// when their conflict declarations collide.
//
// Candidates carry the provenance of every module in the working set:
// requested explicitly, pulled in as a required dependency, or suggested
// as an optional companion. Conflict edges with error severity split the
// set into connected groups, and each group is settled either
// automatically or through a Chooser callback:
//
//	res, err := resolve.New(reg).Resolve(ctx, resolve.Gather(set, req.Modules, sugs))
//	if err != nil {
//		// at least one group had two explicitly requested members
//	}
//	fmt.Println(res.Updated)
//
// Warning-severity edges never remove a module. They surface as entries
// in Result.Warnings so callers can show them without blocking the run.
package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/syssam/helix"
	"github.com/syssam/helix/internal/logger"
	"github.com/syssam/helix/registry"
)

var log = logger.ForComponent("resolve")

// Class records how a candidate entered the working set. A module can be
// dropped automatically only when it is optional.
type Class string

const (
	// ClassExplicit marks modules named in the generation request.
	ClassExplicit Class = "explicit"
	// ClassRequired marks modules pulled in by a non-optional dependency.
	ClassRequired Class = "required"
	// ClassOptional marks modules added as optional suggestions.
	ClassOptional Class = "optional"
)

// Candidate is one module of the working set together with its provenance.
type Candidate struct {
	ID     string
	Class  Class
	Reason string
}

func (c Candidate) droppable() bool { return c.Class == ClassOptional }

// Chooser selects the surviving module of a conflict group. It receives
// the group in request order and returns the id of the module to keep.
// Returning an error aborts the resolution.
type Chooser func(ctx context.Context, group []Candidate) (string, error)

// Resolution reports how the working set was settled.
type Resolution string

const (
	// ResolutionAuto means conflicts existed and were settled without a Chooser.
	ResolutionAuto Resolution = "auto"
	// ResolutionInteractive means at least one group was settled by the Chooser.
	ResolutionInteractive Resolution = "interactive"
	// ResolutionNoneNeeded means the set had no error-severity conflicts.
	ResolutionNoneNeeded Resolution = "none-needed"
)

// Result is the outcome of a resolution pass.
type Result struct {
	Resolution Resolution `json:"resolution"`
	Updated    []string   `json:"updatedModules"`
	Dropped    []string   `json:"droppedModules"`
	Warnings   []string   `json:"warnings"`
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithChooser installs the callback used for groups that cannot be
// settled automatically. Without a Chooser such groups fail with
// an UnresolvableConflictError.
func WithChooser(c Chooser) Option {
	return func(r *Resolver) { r.chooser = c }
}

// Resolver settles conflicts between modules using the conflict
// declarations held by a registry.
type Resolver struct {
	reg     *registry.Registry
	chooser Chooser
}

// New returns a Resolver reading conflict declarations from reg.
func New(reg *registry.Registry, opts ...Option) *Resolver {
	r := &Resolver{reg: reg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Gather builds the candidate list for a resolution pass. The resolved
// closure keeps its order, with each member classed as explicit when it
// appears in requested and required otherwise. Suggestions follow in
// their own order, classed optional, with already-present ids skipped.
func Gather(set *helix.ResolvedModuleSet, requested []string, suggestions []registry.Suggestion) []Candidate {
	explicit := make(map[string]bool, len(requested))
	for _, id := range requested {
		explicit[id] = true
	}
	seen := make(map[string]bool, len(set.Modules))
	candidates := make([]Candidate, 0, len(set.Modules)+len(suggestions))
	for _, entry := range set.Log {
		if entry.Action == helix.ResolutionDropped || seen[entry.ModuleID] {
			continue
		}
		seen[entry.ModuleID] = true
		c := Candidate{ID: entry.ModuleID, Class: ClassRequired, Reason: entry.Reason}
		if explicit[entry.ModuleID] {
			c.Class = ClassExplicit
		}
		candidates = append(candidates, c)
	}
	for _, sug := range suggestions {
		if seen[sug.ModuleID] {
			continue
		}
		seen[sug.ModuleID] = true
		candidates = append(candidates, Candidate{
			ID:     sug.ModuleID,
			Class:  ClassOptional,
			Reason: fmt.Sprintf("suggested by %s", sug.SuggestedBy),
		})
	}
	return candidates
}

type edge struct {
	a, b     string
	severity helix.Severity
	hint     string
}

// Resolve settles the candidate set and returns the surviving modules in
// their original order. Groups with at most one non-optional member are
// settled automatically; groups with several need the Chooser and fail
// with an UnresolvableConflictError when none is installed.
func (r *Resolver) Resolve(ctx context.Context, candidates []Candidate) (*Result, error) {
	ids := make([]string, len(candidates))
	index := make(map[string]int, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
		index[c.ID] = i
	}

	edges, err := r.collectEdges(ids)
	if err != nil {
		return nil, err
	}

	result := &Result{Resolution: ResolutionNoneNeeded}
	adjacency := make(map[string][]string)
	for _, e := range edges {
		if e.severity == helix.SeverityWarning {
			result.Warnings = append(result.Warnings, warningText(e))
			continue
		}
		adjacency[e.a] = append(adjacency[e.a], e.b)
		adjacency[e.b] = append(adjacency[e.b], e.a)
	}

	dropped := make(map[string]bool)
	for _, group := range components(candidates, adjacency) {
		winner, interactive, err := r.settle(ctx, group)
		if err != nil {
			return nil, err
		}
		if interactive {
			result.Resolution = ResolutionInteractive
		} else if result.Resolution == ResolutionNoneNeeded {
			result.Resolution = ResolutionAuto
		}
		for _, member := range group {
			if member.ID == winner {
				continue
			}
			dropped[member.ID] = true
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("dropped module %s: conflicts with %s", member.ID, winner))
			log.Debug("dropped conflicting module",
				"module", member.ID, "winner", winner, "class", string(member.Class))
		}
	}

	result.Updated = make([]string, 0, len(candidates))
	for _, c := range candidates {
		if dropped[c.ID] {
			result.Dropped = append(result.Dropped, c.ID)
			continue
		}
		result.Updated = append(result.Updated, c.ID)
	}
	return result, nil
}

// collectEdges unions the conflict declarations of every candidate pair.
// Each undirected pair appears once, in first-seen order.
func (r *Resolver) collectEdges(ids []string) ([]edge, error) {
	var edges []edge
	seen := make(map[string]bool)
	for _, id := range ids {
		found, err := r.reg.CheckConflicts(id, ids)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			key := pairKey(f.Between, f.Against)
			if seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, edge{a: f.Between, b: f.Against, severity: f.Severity, hint: f.Resolution})
		}
	}
	return edges, nil
}

// components splits the candidates into connected groups of the error
// conflict graph. Groups and their members keep candidate order, so the
// first-requested module is always first in its group.
func components(candidates []Candidate, adjacency map[string][]string) [][]Candidate {
	byID := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	visited := make(map[string]bool)
	var groups [][]Candidate
	for _, c := range candidates {
		if visited[c.ID] || len(adjacency[c.ID]) == 0 {
			continue
		}
		member := make(map[string]bool)
		stack := []string{c.ID}
		visited[c.ID] = true
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			member[id] = true
			neighbors := append([]string(nil), adjacency[id]...)
			sort.Strings(neighbors)
			for _, next := range neighbors {
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}
		group := make([]Candidate, 0, len(member))
		for _, cand := range candidates {
			if member[cand.ID] {
				group = append(group, cand)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// settle picks the winner of one conflict group.
func (r *Resolver) settle(ctx context.Context, group []Candidate) (winner string, interactive bool, err error) {
	var pinned []string
	for _, c := range group {
		if !c.droppable() {
			pinned = append(pinned, c.ID)
		}
	}
	switch {
	case len(pinned) == 1:
		return pinned[0], false, nil
	case len(pinned) == 0:
		return group[0].ID, false, nil
	}
	if r.chooser == nil {
		return "", false, helix.NewUnresolvableConflictError(pinned)
	}
	winner, err = r.chooser(ctx, group)
	if err != nil {
		return "", false, fmt.Errorf("resolve: conflict chooser: %w", err)
	}
	for _, c := range group {
		if c.ID == winner {
			return winner, true, nil
		}
	}
	return "", false, fmt.Errorf("resolve: chooser returned %q, not part of the conflict group", winner)
}

func warningText(e edge) string {
	if e.hint != "" {
		return fmt.Sprintf("modules %s and %s may conflict: %s", e.a, e.b, e.hint)
	}
	return fmt.Sprintf("modules %s and %s may conflict", e.a, e.b)
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}
