package dna_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
)

func nopGenerator() helix.GeneratorFunc {
	return func(_ context.Context, _ *helix.GenerateContext) ([]*helix.GeneratedFile, error) {
		return nil, nil
	}
}

// TestBuilder tests the module builder happy path.
func TestBuilder(t *testing.T) {
	t.Parallel()

	mod, err := dna.NewModule("auth-jwt").
		Name("JWT Authentication").
		Version("1.2.0").
		Category("auth").
		Keywords("auth", "jwt").
		DependsOn("database-postgres", dna.Range(">=1.0.0"), dna.Because("session storage")).
		DependsOn("analytics-posthog", dna.Optional()).
		ConflictsWith("auth-firebase", helix.SeverityError, "choose one auth provider").
		Framework("nextjs", dna.Full(), dna.Generator(nopGenerator()), dna.Packages("jsonwebtoken@9")).
		Framework("flutter", dna.Partial("no SSR token refresh"), dna.Generator(nopGenerator())).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "auth-jwt", mod.ID())
	assert.Equal(t, "JWT Authentication", mod.Metadata().Name)
	assert.Equal(t, "1.2.0", mod.Metadata().Version)
	assert.Equal(t, "auth", mod.Metadata().Category)

	deps := mod.Dependencies()
	require.Len(t, deps, 2)
	assert.Equal(t, "database-postgres", deps[0].ModuleID)
	assert.Equal(t, ">=1.0.0", deps[0].Range)
	assert.False(t, deps[0].Optional)
	assert.True(t, deps[1].Optional)

	conflicts := mod.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, helix.SeverityError, conflicts[0].Severity)

	assert.Equal(t, []string{"flutter", "nextjs"}, mod.Frameworks())

	impl, ok := mod.Implementation("nextjs")
	require.True(t, ok)
	assert.Equal(t, helix.CompatibilityFull, impl.Compatibility)
	assert.Equal(t, []string{"jsonwebtoken@9"}, impl.Dependencies)

	assert.Equal(t, helix.CompatibilityPartial, mod.Compatibility("flutter"))
	assert.Equal(t, helix.CompatibilityNone, mod.Compatibility("tauri"))

	gen, ok := mod.Generator("nextjs")
	require.True(t, ok)
	assert.NotNil(t, gen)
}

// TestBuilderErrors tests that definition mistakes surface from Build.
func TestBuilderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		builder *dna.Builder
		wantMsg string
	}{
		{
			name:    "invalid id",
			builder: dna.NewModule("123-bad").Version("1.0.0"),
			wantMsg: "invalid module id",
		},
		{
			name:    "uppercase id",
			builder: dna.NewModule("Auth-JWT").Version("1.0.0"),
			wantMsg: "invalid module id",
		},
		{
			name:    "missing version",
			builder: dna.NewModule("auth-jwt"),
			wantMsg: "no version",
		},
		{
			name:    "bad version",
			builder: dna.NewModule("auth-jwt").Version("not-semver"),
			wantMsg: "invalid version",
		},
		{
			name: "bad dependency range",
			builder: dna.NewModule("auth-jwt").Version("1.0.0").
				DependsOn("database-postgres", dna.Range("wat")),
			wantMsg: "invalid range",
		},
		{
			name: "self dependency",
			builder: dna.NewModule("auth-jwt").Version("1.0.0").
				DependsOn("auth-jwt"),
			wantMsg: "depends on itself",
		},
		{
			name: "self conflict",
			builder: dna.NewModule("auth-jwt").Version("1.0.0").
				ConflictsWith("auth-jwt", helix.SeverityError, ""),
			wantMsg: "conflicts with itself",
		},
		{
			name: "invalid severity",
			builder: dna.NewModule("auth-jwt").Version("1.0.0").
				ConflictsWith("auth-firebase", helix.Severity("fatal"), ""),
			wantMsg: "invalid conflict severity",
		},
		{
			name: "unknown framework",
			builder: dna.NewModule("auth-jwt").Version("1.0.0").
				Framework("angular", dna.Generator(nopGenerator())),
			wantMsg: "unknown framework",
		},
		{
			name: "framework without generator",
			builder: dna.NewModule("auth-jwt").Version("1.0.0").
				Framework("nextjs", dna.Full()),
			wantMsg: "no generator",
		},
		{
			name: "duplicate framework",
			builder: dna.NewModule("auth-jwt").Version("1.0.0").
				Framework("nextjs", dna.Generator(nopGenerator())).
				Framework("nextjs", dna.Generator(nopGenerator())),
			wantMsg: "declared twice",
		},
		{
			name: "invalid template glob",
			builder: dna.NewModule("auth-jwt").Version("1.0.0").
				Framework("nextjs", dna.Generator(nopGenerator()), dna.Templates("src/[auth/**")),
			wantMsg: "invalid template glob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

// TestBuilderCollectsAllErrors tests that Build aggregates multiple mistakes.
func TestBuilderCollectsAllErrors(t *testing.T) {
	t.Parallel()

	_, err := dna.NewModule("Bad ID").
		Version("nope").
		ConflictsWith("Bad ID", helix.SeverityError, "").
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid module id")
	assert.Contains(t, err.Error(), "invalid version")
	assert.Contains(t, err.Error(), "conflicts with itself")
}

// TestUnsupportedFramework tests explicit non-implementations.
func TestUnsupportedFramework(t *testing.T) {
	t.Parallel()

	mod, err := dna.NewModule("payments-stripe").
		Version("2.0.0").
		Framework("nextjs", dna.Generator(nopGenerator())).
		Framework("tauri", dna.Unsupported("no stripe SDK for desktop webviews")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, helix.CompatibilityNone, mod.Compatibility("tauri"))
	impl, ok := mod.Implementation("tauri")
	require.True(t, ok)
	assert.False(t, impl.Supported)
	assert.Contains(t, impl.Limitations, "stripe SDK")

	_, ok = mod.Generator("tauri")
	assert.False(t, ok)
}

// TestMust tests the Must helper.
func TestMust(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		dna.Must(dna.NewModule("ui-tailwind").
			Version("3.0.0").
			Framework("react", dna.Generator(nopGenerator())).
			Build())
	})

	assert.Panics(t, func() {
		dna.Must(dna.NewModule("bad id").Build())
	})
}

// TestMetadataImmutability tests that accessor copies do not alias module state.
func TestMetadataImmutability(t *testing.T) {
	t.Parallel()

	mod := dna.Must(dna.NewModule("auth-jwt").
		Version("1.0.0").
		Keywords("auth").
		DependsOn("database-postgres").
		Framework("nextjs", dna.Generator(nopGenerator()), dna.Packages("jsonwebtoken@9")).
		Build())

	md := mod.Metadata()
	md.Keywords[0] = "mutated"
	assert.Equal(t, "auth", mod.Metadata().Keywords[0])

	deps := mod.Dependencies()
	deps[0].ModuleID = "mutated"
	assert.Equal(t, "database-postgres", mod.Dependencies()[0].ModuleID)

	impl, _ := mod.Implementation("nextjs")
	impl.Dependencies[0] = "mutated"
	fresh, _ := mod.Implementation("nextjs")
	assert.Equal(t, "jsonwebtoken@9", fresh.Dependencies[0])
}

// TestFrameworkCatalog tests the framework and template type catalogs.
func TestFrameworkCatalog(t *testing.T) {
	t.Parallel()

	t.Run("Frameworks", func(t *testing.T) {
		fws := dna.Frameworks()
		require.Len(t, fws, 4)
		// Sorted by id
		assert.Equal(t, "flutter", fws[0].ID)
		assert.Equal(t, "nextjs", fws[1].ID)
		assert.Equal(t, "react", fws[2].ID)
		assert.Equal(t, "tauri", fws[3].ID)
	})

	t.Run("LookupFramework", func(t *testing.T) {
		f, ok := dna.LookupFramework("nextjs")
		require.True(t, ok)
		assert.Equal(t, "Next.js", f.Label)
		assert.Equal(t, "npm", f.PackageManager)

		_, ok = dna.LookupFramework("angular")
		assert.False(t, ok)
	})

	t.Run("KnownFramework", func(t *testing.T) {
		assert.True(t, dna.KnownFramework("flutter"))
		assert.False(t, dna.KnownFramework("svelte"))
	})

	t.Run("TemplateTypes", func(t *testing.T) {
		types := dna.TemplateTypes()
		assert.Equal(t, []string{"cross-platform", "mobile-app", "performance", "web-app"}, types)
		assert.True(t, dna.KnownTemplateType("web-app"))
		assert.False(t, dna.KnownTemplateType("desktop"))
	})

	t.Run("DisplayName", func(t *testing.T) {
		assert.Equal(t, "Next.js", dna.DisplayName("nextjs"))
		assert.Equal(t, "Auth Jwt", dna.DisplayName("auth-jwt"))
	})
}
