package resolve_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
	"github.com/syssam/helix/registry"
	"github.com/syssam/helix/resolve"
)

func nopGen() helix.GeneratorFunc {
	return func(_ context.Context, _ *helix.GenerateContext) ([]*helix.GeneratedFile, error) {
		return nil, nil
	}
}

func module(t *testing.T, id string, mutate func(*dna.Builder) *dna.Builder) *dna.Module {
	t.Helper()
	b := dna.NewModule(id).Version("1.0.0").Framework("nextjs", dna.Generator(nopGen()))
	if mutate != nil {
		b = mutate(b)
	}
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

// authRegistry holds the two hosted auth providers declaring an error
// conflict on the firebase side only.
func authRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, r.RegisterAll(
		module(t, "auth-firebase", func(b *dna.Builder) *dna.Builder {
			return b.ConflictsWith("auth-supabase", helix.SeverityError, "choose one hosted auth provider")
		}),
		module(t, "auth-supabase", nil),
		module(t, "ui-tailwind", nil),
	))
	return r
}

func explicit(ids ...string) []resolve.Candidate {
	cs := make([]resolve.Candidate, len(ids))
	for i, id := range ids {
		cs[i] = resolve.Candidate{ID: id, Class: resolve.ClassExplicit, Reason: "requested"}
	}
	return cs
}

func TestResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("NoneNeeded", func(t *testing.T) {
		r := resolve.New(authRegistry(t))
		res, err := r.Resolve(ctx, explicit("auth-firebase", "ui-tailwind"))
		require.NoError(t, err)
		assert.Equal(t, resolve.ResolutionNoneNeeded, res.Resolution)
		assert.Equal(t, []string{"auth-firebase", "ui-tailwind"}, res.Updated)
		assert.Empty(t, res.Dropped)
		assert.Empty(t, res.Warnings)
	})

	t.Run("BothExplicitFails", func(t *testing.T) {
		r := resolve.New(authRegistry(t))
		_, err := r.Resolve(ctx, explicit("auth-firebase", "auth-supabase"))
		require.Error(t, err)
		assert.True(t, helix.IsUnresolvableConflict(err))
		assert.Contains(t, err.Error(), "conflict")
		assert.Contains(t, err.Error(), "auth-firebase")
		assert.Contains(t, err.Error(), "auth-supabase")
	})

	t.Run("ExplicitBeatsOptional", func(t *testing.T) {
		r := resolve.New(authRegistry(t))
		res, err := r.Resolve(ctx, []resolve.Candidate{
			{ID: "auth-firebase", Class: resolve.ClassExplicit},
			{ID: "auth-supabase", Class: resolve.ClassOptional},
		})
		require.NoError(t, err)
		assert.Equal(t, resolve.ResolutionAuto, res.Resolution)
		assert.Equal(t, []string{"auth-firebase"}, res.Updated)
		assert.Equal(t, []string{"auth-supabase"}, res.Dropped)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "auth-supabase")
	})

	t.Run("RequiredBeatsOptional", func(t *testing.T) {
		reg := registry.New()
		require.NoError(t, reg.RegisterAll(
			module(t, "database-postgres", nil),
			module(t, "database-prisma", func(b *dna.Builder) *dna.Builder {
				return b.ConflictsWith("database-postgres", helix.SeverityError, "")
			}),
		))
		res, err := resolve.New(reg).Resolve(ctx, []resolve.Candidate{
			{ID: "database-postgres", Class: resolve.ClassRequired},
			{ID: "database-prisma", Class: resolve.ClassOptional},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"database-postgres"}, res.Updated)
		assert.Equal(t, []string{"database-prisma"}, res.Dropped)
	})

	t.Run("AllOptionalKeepsFirst", func(t *testing.T) {
		r := resolve.New(authRegistry(t))
		res, err := r.Resolve(ctx, []resolve.Candidate{
			{ID: "auth-supabase", Class: resolve.ClassOptional},
			{ID: "auth-firebase", Class: resolve.ClassOptional},
		})
		require.NoError(t, err)
		assert.Equal(t, resolve.ResolutionAuto, res.Resolution)
		assert.Equal(t, []string{"auth-supabase"}, res.Updated)
		assert.Equal(t, []string{"auth-firebase"}, res.Dropped)
	})

	t.Run("SymmetricDetection", func(t *testing.T) {
		// The declaration lives on auth-firebase only. The outcome
		// mirrors whichever side is explicit.
		r := resolve.New(authRegistry(t))

		res, err := r.Resolve(ctx, []resolve.Candidate{
			{ID: "auth-supabase", Class: resolve.ClassExplicit},
			{ID: "auth-firebase", Class: resolve.ClassOptional},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"auth-supabase"}, res.Updated)

		res, err = r.Resolve(ctx, []resolve.Candidate{
			{ID: "auth-firebase", Class: resolve.ClassExplicit},
			{ID: "auth-supabase", Class: resolve.ClassOptional},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"auth-firebase"}, res.Updated)
	})

	t.Run("TransitiveGroup", func(t *testing.T) {
		reg := registry.New()
		require.NoError(t, reg.RegisterAll(
			module(t, "state-redux", func(b *dna.Builder) *dna.Builder {
				return b.ConflictsWith("state-zustand", helix.SeverityError, "")
			}),
			module(t, "state-zustand", func(b *dna.Builder) *dna.Builder {
				return b.ConflictsWith("state-jotai", helix.SeverityError, "")
			}),
			module(t, "state-jotai", nil),
		))
		// redux-zustand and zustand-jotai edges chain into one group.
		res, err := resolve.New(reg).Resolve(ctx, []resolve.Candidate{
			{ID: "state-redux", Class: resolve.ClassExplicit},
			{ID: "state-zustand", Class: resolve.ClassOptional},
			{ID: "state-jotai", Class: resolve.ClassOptional},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"state-redux"}, res.Updated)
		assert.Equal(t, []string{"state-zustand", "state-jotai"}, res.Dropped)
	})

	t.Run("WarningNeverDrops", func(t *testing.T) {
		reg := registry.New()
		require.NoError(t, reg.RegisterAll(
			module(t, "analytics-posthog", func(b *dna.Builder) *dna.Builder {
				return b.ConflictsWith("ui-tailwind", helix.SeverityWarning, "tracker classes may clash with purge rules")
			}),
			module(t, "ui-tailwind", nil),
		))
		res, err := resolve.New(reg).Resolve(ctx, explicit("analytics-posthog", "ui-tailwind"))
		require.NoError(t, err)
		assert.Equal(t, resolve.ResolutionNoneNeeded, res.Resolution)
		assert.Equal(t, []string{"analytics-posthog", "ui-tailwind"}, res.Updated)
		assert.Empty(t, res.Dropped)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "may conflict")
		assert.Contains(t, res.Warnings[0], "purge rules")
	})
}

func TestResolveInteractive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ChooserPicksWinner", func(t *testing.T) {
		var prompted []string
		chooser := func(_ context.Context, group []resolve.Candidate) (string, error) {
			for _, c := range group {
				prompted = append(prompted, c.ID)
			}
			return "auth-supabase", nil
		}
		r := resolve.New(authRegistry(t), resolve.WithChooser(chooser))
		res, err := r.Resolve(ctx, explicit("auth-firebase", "auth-supabase"))
		require.NoError(t, err)
		assert.Equal(t, resolve.ResolutionInteractive, res.Resolution)
		assert.Equal(t, []string{"auth-supabase"}, res.Updated)
		assert.Equal(t, []string{"auth-firebase"}, res.Dropped)
		assert.Equal(t, []string{"auth-firebase", "auth-supabase"}, prompted)
	})

	t.Run("ChooserNotCalledForAutoGroups", func(t *testing.T) {
		chooser := func(_ context.Context, _ []resolve.Candidate) (string, error) {
			t.Fatal("chooser must not run for groups with one pinned member")
			return "", nil
		}
		r := resolve.New(authRegistry(t), resolve.WithChooser(chooser))
		res, err := r.Resolve(ctx, []resolve.Candidate{
			{ID: "auth-firebase", Class: resolve.ClassExplicit},
			{ID: "auth-supabase", Class: resolve.ClassOptional},
		})
		require.NoError(t, err)
		assert.Equal(t, resolve.ResolutionAuto, res.Resolution)
	})

	t.Run("ChooserError", func(t *testing.T) {
		boom := errors.New("terminal closed")
		r := resolve.New(authRegistry(t), resolve.WithChooser(
			func(_ context.Context, _ []resolve.Candidate) (string, error) {
				return "", boom
			},
		))
		_, err := r.Resolve(ctx, explicit("auth-firebase", "auth-supabase"))
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("ChooserBadWinner", func(t *testing.T) {
		r := resolve.New(authRegistry(t), resolve.WithChooser(
			func(_ context.Context, _ []resolve.Candidate) (string, error) {
				return "ui-tailwind", nil
			},
		))
		_, err := r.Resolve(ctx, explicit("auth-firebase", "auth-supabase"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not part of the conflict group")
	})
}

func TestGather(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	require.NoError(t, reg.RegisterAll(
		module(t, "database-postgres", nil),
		module(t, "analytics-posthog", nil),
		module(t, "auth-jwt", func(b *dna.Builder) *dna.Builder {
			return b.
				DependsOn("database-postgres", dna.Because("session storage")).
				DependsOn("analytics-posthog", dna.Optional(), dna.Because("login funnels"))
		}),
	))

	set, err := reg.ResolveDependencies([]string{"auth-jwt"})
	require.NoError(t, err)
	sugs := reg.Suggestions(set.Modules)

	candidates := resolve.Gather(set, []string{"auth-jwt"}, sugs)
	require.Len(t, candidates, 3)

	assert.Equal(t, "auth-jwt", candidates[0].ID)
	assert.Equal(t, resolve.ClassExplicit, candidates[0].Class)

	assert.Equal(t, "database-postgres", candidates[1].ID)
	assert.Equal(t, resolve.ClassRequired, candidates[1].Class)
	assert.Contains(t, candidates[1].Reason, "auth-jwt")

	assert.Equal(t, "analytics-posthog", candidates[2].ID)
	assert.Equal(t, resolve.ClassOptional, candidates[2].Class)
	assert.Contains(t, candidates[2].Reason, "auth-jwt")

	// A suggestion already present in the closure is not added twice.
	candidates = resolve.Gather(set, []string{"auth-jwt"}, []registry.Suggestion{
		{ModuleID: "database-postgres", SuggestedBy: "auth-jwt"},
	})
	assert.Len(t, candidates, 2)
}
