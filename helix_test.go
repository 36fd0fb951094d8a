package helix_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/helix"
)

// TestGeneratorFunc tests the GeneratorFunc adapter.
func TestGeneratorFunc(t *testing.T) {
	t.Parallel()

	called := false
	want := []*helix.GeneratedFile{{Path: "src/index.ts", Content: []byte("export {}\n")}}

	f := helix.GeneratorFunc(func(_ context.Context, _ *helix.GenerateContext) ([]*helix.GeneratedFile, error) {
		called = true
		return want, nil
	})

	got, err := f.GenerateFiles(context.Background(), &helix.GenerateContext{})

	assert.True(t, called)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

// TestFingerprint tests cache key determinism.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	base := helix.Fingerprint{
		Framework:    "nextjs",
		TemplateType: "web-app",
		Modules:      []string{"auth-jwt", "ui-tailwind"},
		Variables:    map[string]string{"author": "dev", "license": "MIT"},
	}

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, base.String(), base.String())
	})

	t.Run("ModuleOrderIndependent", func(t *testing.T) {
		reordered := base
		reordered.Modules = []string{"ui-tailwind", "auth-jwt"}
		assert.Equal(t, base.String(), reordered.String())
	})

	t.Run("FrameworkSensitive", func(t *testing.T) {
		other := base
		other.Framework = "react"
		assert.NotEqual(t, base.String(), other.String())
	})

	t.Run("VariableSensitive", func(t *testing.T) {
		other := base
		other.Variables = map[string]string{"author": "dev", "license": "Apache-2.0"}
		assert.NotEqual(t, base.String(), other.String())
	})

	t.Run("FieldBoundaries", func(t *testing.T) {
		// "ab"+"c" must not collide with "a"+"bc"
		a := helix.Fingerprint{Framework: "ab", TemplateType: "c"}
		b := helix.Fingerprint{Framework: "a", TemplateType: "bc"}
		assert.NotEqual(t, a.String(), b.String())
	})
}

// TestEnums tests the Valid methods of the string enums.
func TestEnums(t *testing.T) {
	t.Parallel()

	t.Run("Severity", func(t *testing.T) {
		assert.True(t, helix.SeverityError.Valid())
		assert.True(t, helix.SeverityWarning.Valid())
		assert.False(t, helix.Severity("fatal").Valid())
	})

	t.Run("Compatibility", func(t *testing.T) {
		assert.True(t, helix.CompatibilityFull.Valid())
		assert.True(t, helix.CompatibilityPartial.Valid())
		assert.True(t, helix.CompatibilityNone.Valid())
		assert.False(t, helix.Compatibility("maybe").Valid())
	})

	t.Run("MergeStrategy", func(t *testing.T) {
		assert.True(t, helix.MergeReplace.Valid())
		assert.True(t, helix.MergeCombine.Valid())
		assert.True(t, helix.MergeSkipIfExists.Valid())
		assert.False(t, helix.MergeStrategy("append").Valid())
	})
}

// TestGenerateContext tests the lookup helpers on GenerateContext.
func TestGenerateContext(t *testing.T) {
	t.Parallel()

	gctx := &helix.GenerateContext{
		ProjectName: "storefront",
		Framework:   "nextjs",
		Modules:     []string{"auth-jwt", "database-postgres"},
		Variables:   map[string]string{"author": "dev"},
	}

	assert.True(t, gctx.HasModule("auth-jwt"))
	assert.False(t, gctx.HasModule("auth-firebase"))
	assert.Equal(t, "dev", gctx.Variable("author", "unknown"))
	assert.Equal(t, "unknown", gctx.Variable("maintainer", "unknown"))
}

// TestGeneratedFileClone tests that Clone is a deep copy.
func TestGeneratedFileClone(t *testing.T) {
	t.Parallel()

	f := &helix.GeneratedFile{
		Path:    "README.md",
		Content: []byte("# app\n"),
		Merge:   helix.MergeCombine,
		Modules: []string{"ui-tailwind"},
	}

	c := f.Clone()
	require.Equal(t, f, c)

	c.Content[0] = '!'
	c.Modules[0] = "other"
	assert.Equal(t, byte('#'), f.Content[0])
	assert.Equal(t, "ui-tailwind", f.Modules[0])
}

// TestStages tests the fixed stage order.
func TestStages(t *testing.T) {
	t.Parallel()

	stages := helix.Stages()
	require.Len(t, stages, 8)
	assert.Equal(t, helix.StageValidatePreGeneration, stages[0])
	assert.Equal(t, helix.StageResolveModules, stages[1])
	assert.Equal(t, helix.StageComposeConfig, stages[2])
	assert.Equal(t, helix.StageGenerateFiles, stages[3])
	assert.Equal(t, helix.StageValidateQuality, stages[4])
	assert.Equal(t, helix.StageSecurityScan, stages[5])
	assert.Equal(t, helix.StageFinalize, stages[6])
	assert.Equal(t, helix.StageReport, stages[7])

	// Mutating the returned slice must not affect later calls
	stages[0] = helix.Stage("BOGUS")
	assert.Equal(t, helix.StageValidatePreGeneration, helix.Stages()[0])
}

// TestMetricsClone tests the deep copy of metrics.
func TestMetricsClone(t *testing.T) {
	t.Parallel()

	var nilMetrics *helix.Metrics
	assert.Nil(t, nilMetrics.Clone())

	m := &helix.Metrics{
		TotalDuration:  2 * time.Second,
		StageDurations: map[helix.Stage]time.Duration{helix.StageGenerateFiles: time.Second},
		Retries:        1,
		CacheHits:      2,
	}
	c := m.Clone()
	require.Equal(t, m, c)

	c.StageDurations[helix.StageReport] = time.Millisecond
	assert.NotContains(t, m.StageDurations, helix.StageReport)
}

// TestNopCache tests that NopCache never stores anything.
func TestNopCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c helix.NopCache

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.DeletePrefix(ctx, "k"))
	assert.NoError(t, c.Clear(ctx))
}

// TestResolvedModuleSet tests the Contains helper.
func TestResolvedModuleSet(t *testing.T) {
	t.Parallel()

	s := &helix.ResolvedModuleSet{Modules: []string{"auth-jwt", "database-postgres"}}
	assert.True(t, s.Contains("auth-jwt"))
	assert.False(t, s.Contains("auth-firebase"))
}
