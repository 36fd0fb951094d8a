package validate

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
)

// requiredFiles maps (template type, framework) to the files a generated
// project of that shape must contain.
var requiredFiles = map[[2]string][]string{
	{dna.TemplateWebApp, dna.FrameworkNextJS}:         {"package.json"},
	{dna.TemplateWebApp, dna.FrameworkReact}:          {"package.json"},
	{dna.TemplateMobileApp, dna.FrameworkFlutter}:     {"pubspec.yaml"},
	{dna.TemplateCrossPlatform, dna.FrameworkFlutter}: {"pubspec.yaml"},
	{dna.TemplateCrossPlatform, dna.FrameworkTauri}:   {"package.json"},
}

// Quality validates the composed file set before it reaches disk: every
// file individually plus the tree-level checks.
func (e *Engine) Quality(files []*helix.GeneratedFile, req *helix.GenerationRequest) *Result {
	r := &Result{Valid: true}
	for _, f := range files {
		e.qualityFile(f, r)
	}
	e.qualityTree(files, req, r)
	return r
}

// QualityTree runs only the checks that need the complete file set. The
// pipeline's progressive mode validates files one by one as they become
// available and calls QualityTree once at the quality stage.
func (e *Engine) QualityTree(files []*helix.GeneratedFile, req *helix.GenerationRequest) *Result {
	r := &Result{Valid: true}
	e.qualityTree(files, req, r)
	return r
}

func (e *Engine) qualityTree(files []*helix.GeneratedFile, req *helix.GenerationRequest, r *Result) {
	if len(files) == 0 {
		r.errorf("generation produced no files")
		return
	}
	present := make(map[string]bool, len(files))
	for _, f := range files {
		if present[f.Path] {
			r.errorf("duplicate output path %q", f.Path)
		}
		present[f.Path] = true
	}
	for _, want := range requiredFiles[[2]string{req.TemplateType, req.Framework}] {
		if !present[want] {
			r.warnf("%s project for %s is missing %s", req.TemplateType, req.Framework, want)
		}
	}
}

// QualityFile validates a single generated file. The pipeline's
// progressive mode runs it as files become available, ahead of the full
// quality stage.
func (e *Engine) QualityFile(f *helix.GeneratedFile) *Result {
	r := &Result{Valid: true}
	e.qualityFile(f, r)
	return r
}

func (e *Engine) qualityFile(f *helix.GeneratedFile, r *Result) {
	cleaned := path.Clean(f.Path)
	switch {
	case f.Path == "":
		r.errorf("generated file has an empty path")
		return
	case path.IsAbs(cleaned):
		r.errorf("generated file path %q is absolute", f.Path)
		return
	case cleaned == ".." || strings.HasPrefix(cleaned, "../"):
		r.errorf("generated file path %q escapes the project root", f.Path)
		return
	}
	if len(f.Content) == 0 && !allowedEmpty(cleaned) {
		r.warnf("generated file %s is empty", f.Path)
	}
	if f.Merge != "" && !f.Merge.Valid() {
		r.errorf("generated file %s uses unknown merge strategy %q", f.Path, f.Merge)
	}
	if path.Ext(cleaned) == ".json" && f.Encoding != "base64" {
		if !json.Valid(f.Content) {
			r.errorf("generated file %s is not valid JSON", f.Path)
		}
	}
}

// allowedEmpty lists files that are legitimately empty markers.
func allowedEmpty(p string) bool {
	base := path.Base(p)
	return base == ".gitkeep" || base == ".keep" || base == "__init__.py"
}
