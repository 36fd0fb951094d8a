package registry

import (
	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
)

// Predicate filters modules in List queries.
type Predicate func(*dna.Module) bool

// And matches modules satisfying every predicate. With no predicates it
// matches everything.
func And(preds ...Predicate) Predicate {
	return func(m *dna.Module) bool {
		for _, p := range preds {
			if !p(m) {
				return false
			}
		}
		return true
	}
}

// Or matches modules satisfying at least one predicate.
func Or(preds ...Predicate) Predicate {
	return func(m *dna.Module) bool {
		for _, p := range preds {
			if p(m) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(m *dna.Module) bool { return !p(m) }
}

// Category matches modules in the given category.
func Category(category string) Predicate {
	return func(m *dna.Module) bool { return m.Metadata().Category == category }
}

// SupportsFramework matches modules usable (fully or partially) on the
// given framework.
func SupportsFramework(framework string) Predicate {
	return func(m *dna.Module) bool {
		return m.Compatibility(framework) != helix.CompatibilityNone
	}
}

// Keyword matches modules declaring the given keyword.
func Keyword(keyword string) Predicate {
	return func(m *dna.Module) bool {
		for _, k := range m.Metadata().Keywords {
			if k == keyword {
				return true
			}
		}
		return false
	}
}

// IDIn matches modules whose id is one of the given ids.
func IDIn(ids ...string) Predicate {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(m *dna.Module) bool { return set[m.ID()] }
}
