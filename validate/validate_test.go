package validate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
	"github.com/syssam/helix/validate"
)

func validRequest(t *testing.T) *helix.GenerationRequest {
	t.Helper()
	return &helix.GenerationRequest{
		Name:         "my-app",
		OutputPath:   filepath.Join(t.TempDir(), "out"),
		TemplateType: "web-app",
		Framework:    "nextjs",
		Modules:      []string{"auth-jwt"},
	}
}

func TestPreGeneration_valid(t *testing.T) {
	t.Parallel()
	r := validate.New().PreGeneration(validRequest(t))
	assert.True(t, r.Valid)
	assert.Empty(t, r.Errors)
}

func TestPreGeneration_name(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		project string
	}{
		{"empty", ""},
		{"leading digit", "123-invalid-name"},
		{"leading hyphen", "-app"},
		{"spaces", "my app"},
		{"unicode", "appé"},
		{"too long", "a" + strings.Repeat("b", 300)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := validRequest(t)
			req.Name = tt.project
			r := validate.New().PreGeneration(req)
			require.False(t, r.Valid)
			require.NotEmpty(t, r.Errors)
			assert.Contains(t, r.Errors[0], "Invalid project name")
		})
	}
}

func TestPreGeneration_nameAccepts(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"a", "myApp", "my-app_2", "X9"} {
		req := validRequest(t)
		req.Name = name
		r := validate.New().PreGeneration(req)
		assert.True(t, r.Valid, name)
	}
}

func TestPreGeneration_missingFields(t *testing.T) {
	t.Parallel()
	req := validRequest(t)
	req.Framework = ""
	req.TemplateType = ""
	r := validate.New().PreGeneration(req)
	require.False(t, r.Valid)
	assert.Len(t, r.Errors, 2)
}

func TestPreGeneration_unknownFramework(t *testing.T) {
	t.Parallel()
	req := validRequest(t)
	req.Framework = "angular"
	r := validate.New().PreGeneration(req)
	require.False(t, r.Valid)
	assert.Contains(t, r.Errors[0], `unknown framework "angular"`)
	assert.Contains(t, r.Errors[0], "nextjs")
}

func TestPreGeneration_unknownTemplateType(t *testing.T) {
	t.Parallel()
	req := validRequest(t)
	req.TemplateType = "desktop"
	r := validate.New().PreGeneration(req)
	require.False(t, r.Valid)
	assert.Contains(t, r.Errors[0], "unknown template type")
}

func TestPreGeneration_duplicateModulesWarn(t *testing.T) {
	t.Parallel()
	req := validRequest(t)
	req.Modules = []string{"auth-jwt", "auth-jwt"}
	r := validate.New().PreGeneration(req)
	assert.True(t, r.Valid)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "auth-jwt")
}

func TestPreGeneration_variableNames(t *testing.T) {
	t.Parallel()
	req := validRequest(t)
	req.Variables = map[string]string{"apiUrl": "https://example.com", "bad-name": "x"}
	r := validate.New().PreGeneration(req)
	require.False(t, r.Valid)
	assert.Contains(t, r.Errors[0], `"bad-name"`)
}

func TestPreGeneration_packageManager(t *testing.T) {
	t.Parallel()
	req := validRequest(t)
	req.Options.PackageManager = "pnpm"
	assert.True(t, validate.New().PreGeneration(req).Valid)

	req.Options.PackageManager = "pipenv"
	r := validate.New().PreGeneration(req)
	require.False(t, r.Valid)
	assert.Contains(t, r.Errors[0], "unknown package manager")
}

func TestPreGeneration_nonEmptyOutputWarns(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("x"), 0o644))

	req := validRequest(t)
	req.OutputPath = dir
	r := validate.New().PreGeneration(req)
	assert.True(t, r.Valid)
	require.NotEmpty(t, r.Warnings)
	assert.Contains(t, r.Warnings[0], "not empty")

	req.Options.Overwrite = true
	assert.Empty(t, validate.New().PreGeneration(req).Warnings)
}

func TestPreGeneration_outputPathIsFile(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	req := validRequest(t)
	req.OutputPath = file
	r := validate.New().PreGeneration(req)
	require.False(t, r.Valid)
	assert.Contains(t, r.Errors[0], "not a directory")
}

func TestPreGeneration_noModulesSuggests(t *testing.T) {
	t.Parallel()
	req := validRequest(t)
	req.Modules = nil
	r := validate.New().PreGeneration(req)
	assert.True(t, r.Valid)
	assert.NotEmpty(t, r.Suggestions)
}

func TestResult_AbsorbAndErr(t *testing.T) {
	t.Parallel()
	req := validRequest(t)
	req.Name = "9bad"
	bad := validate.New().PreGeneration(req)

	total := &validate.Result{Valid: true, Warnings: []string{"earlier"}}
	total.Absorb(bad)
	require.False(t, total.Valid)
	assert.Contains(t, total.Errors[0], "Invalid project name")

	err := total.Err()
	require.Error(t, err)
	assert.True(t, helix.IsValidationError(err))
	assert.Contains(t, err.Error(), "Invalid project name")

	ok := &validate.Result{Valid: true}
	assert.NoError(t, ok.Err())
}

func TestEnvironment(t *testing.T) {
	t.Parallel()
	r := validate.New().Environment()
	// A writable temp dir is all that is required; missing tools only warn.
	assert.True(t, r.Valid)
}

func TestTemplate(t *testing.T) {
	t.Parallel()
	e := validate.New()
	noop := dna.GenerateWith(func(context.Context, *helix.GenerateContext) ([]*helix.GeneratedFile, error) {
		return nil, nil
	})

	ok := dna.Must(dna.NewModule("auth-jwt").
		Name("JWT Authentication").
		Version("1.0.0").
		Category("auth").
		Framework("nextjs", noop).
		Build())
	r := e.Template(ok)
	assert.True(t, r.Valid)

	bare := dna.Must(dna.NewModule("bare").Version("1.0.0").Framework("nextjs", noop).Build())
	r = e.Template(bare)
	assert.True(t, r.Valid)
	assert.NotEmpty(t, r.Warnings) // no display name, no category

	r = e.Template(nil)
	assert.False(t, r.Valid)
}

func TestGeneratedProject(t *testing.T) {
	t.Parallel()
	e := validate.New()

	dir := t.TempDir()
	r := e.GeneratedProject(dir)
	require.False(t, r.Valid) // empty directory

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0o644))
	r = e.GeneratedProject(dir)
	assert.True(t, r.Valid)
	assert.NotEmpty(t, r.Suggestions) // suggest git init

	r = e.GeneratedProject(filepath.Join(dir, "missing"))
	assert.False(t, r.Valid)
}
