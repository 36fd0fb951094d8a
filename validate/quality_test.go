package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/helix"
	"github.com/syssam/helix/validate"
)

func webRequest() *helix.GenerationRequest {
	return &helix.GenerationRequest{
		Name:         "my-app",
		OutputPath:   "out",
		TemplateType: "web-app",
		Framework:    "nextjs",
	}
}

func TestQuality_valid(t *testing.T) {
	t.Parallel()
	files := []*helix.GeneratedFile{
		{Path: "package.json", Content: []byte(`{"name":"app"}`)},
		{Path: "src/index.ts", Content: []byte("export {}\n")},
	}
	r := validate.New().Quality(files, webRequest())
	assert.True(t, r.Valid)
	assert.Empty(t, r.Warnings)
}

func TestQuality_emptySet(t *testing.T) {
	t.Parallel()
	r := validate.New().Quality(nil, webRequest())
	require.False(t, r.Valid)
	assert.Contains(t, r.Errors[0], "no files")
}

func TestQuality_duplicatePaths(t *testing.T) {
	t.Parallel()
	files := []*helix.GeneratedFile{
		{Path: "package.json", Content: []byte(`{}`)},
		{Path: "package.json", Content: []byte(`{}`)},
	}
	r := validate.New().Quality(files, webRequest())
	require.False(t, r.Valid)
	assert.Contains(t, r.Errors[0], "duplicate output path")
}

func TestQuality_missingRequiredFileWarns(t *testing.T) {
	t.Parallel()
	files := []*helix.GeneratedFile{
		{Path: "src/index.ts", Content: []byte("export {}\n")},
	}
	r := validate.New().Quality(files, webRequest())
	assert.True(t, r.Valid)
	require.NotEmpty(t, r.Warnings)
	assert.Contains(t, r.Warnings[0], "package.json")
}

func TestQualityFile(t *testing.T) {
	t.Parallel()
	e := validate.New()
	tests := []struct {
		name    string
		file    *helix.GeneratedFile
		valid   bool
		warning bool
	}{
		{"plain file", &helix.GeneratedFile{Path: "a.ts", Content: []byte("x")}, true, false},
		{"empty path", &helix.GeneratedFile{Path: ""}, false, false},
		{"absolute path", &helix.GeneratedFile{Path: "/etc/passwd", Content: []byte("x")}, false, false},
		{"escaping path", &helix.GeneratedFile{Path: "../outside.ts", Content: []byte("x")}, false, false},
		{"nested escape", &helix.GeneratedFile{Path: "src/../../outside.ts", Content: []byte("x")}, false, false},
		{"empty content warns", &helix.GeneratedFile{Path: "a.ts"}, true, true},
		{"gitkeep may be empty", &helix.GeneratedFile{Path: "logs/.gitkeep"}, true, false},
		{"bad merge strategy", &helix.GeneratedFile{Path: "a.ts", Content: []byte("x"), Merge: "fuse"}, false, false},
		{"valid json", &helix.GeneratedFile{Path: "tsconfig.json", Content: []byte(`{"strict":true}`)}, true, false},
		{"broken json", &helix.GeneratedFile{Path: "tsconfig.json", Content: []byte(`{"strict":`)}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := e.QualityFile(tt.file)
			assert.Equal(t, tt.valid, r.Valid)
			assert.Equal(t, tt.warning, len(r.Warnings) > 0)
		})
	}
}

func TestQualityTree_progressiveSplit(t *testing.T) {
	t.Parallel()
	// QualityTree repeats only the whole-set checks, so a file-level
	// problem already caught progressively does not fail it again.
	files := []*helix.GeneratedFile{
		{Path: "package.json", Content: []byte(`not json`)},
	}
	e := validate.New()
	assert.False(t, e.QualityFile(files[0]).Valid)
	assert.True(t, e.QualityTree(files, webRequest()).Valid)
}
