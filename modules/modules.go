// Package modules ships the builtin DNA module library: authentication
// providers, payments, database wiring, UI theming and analytics, each
// with per-framework file generators.
//
// The catalog is intentionally small per module. Every generator emits a
// package.json fragment (merged structurally with the fragments of its
// siblings), its own source files, and environment template lines, so
// any combination of builtins composes into one coherent project.
package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
	"github.com/syssam/helix/registry"
)

// Catalog returns the builtin modules in registration order.
func Catalog() []*dna.Module {
	return []*dna.Module{
		AuthJWT,
		AuthFirebase,
		AuthSupabase,
		PaymentsStripe,
		DatabasePostgres,
		DatabasePrisma,
		UITailwind,
		AnalyticsPosthog,
		PrivacyStrict,
	}
}

// RegisterBuiltins registers the whole builtin catalog.
func RegisterBuiltins(reg *registry.Registry) error {
	return reg.RegisterAll(Catalog()...)
}

// packageJSON renders a package.json fragment carrying the module's npm
// dependencies. Fragments merge structurally, so every module may emit
// one; keys are emitted sorted for reproducible content.
func packageJSON(gctx *helix.GenerateContext, deps, devDeps map[string]string) *helix.GeneratedFile {
	doc := map[string]any{
		"name":    gctx.PackageName,
		"version": "0.1.0",
		"private": true,
	}
	if len(deps) > 0 {
		doc["dependencies"] = deps
	}
	if len(devDeps) > 0 {
		doc["devDependencies"] = devDeps
	}
	blob, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		// The document is built from string maps only.
		panic(err)
	}
	return &helix.GeneratedFile{
		Path:    "package.json",
		Content: append(blob, '\n'),
		Merge:   helix.MergeCombine,
	}
}

// envExample renders .env.example lines. Lines merge by append, each
// module contributing its own variables.
func envExample(vars ...string) *helix.GeneratedFile {
	sorted := append([]string(nil), vars...)
	sort.Strings(sorted)
	return &helix.GeneratedFile{
		Path:    ".env.example",
		Content: []byte(strings.Join(sorted, "\n") + "\n"),
		Merge:   helix.MergeCombine,
	}
}

// source renders one source file owned by a single module.
func source(path, content string) *helix.GeneratedFile {
	return &helix.GeneratedFile{Path: path, Content: []byte(content)}
}

// readmeSection contributes a section to the project README, appended
// after the sections of earlier modules.
func readmeSection(title, body string) *helix.GeneratedFile {
	return &helix.GeneratedFile{
		Path:    "README.md",
		Content: []byte(fmt.Sprintf("## %s\n%s\n", title, body)),
		Merge:   helix.MergeCombine,
	}
}

// gen wraps a generator function, giving the compiler the interface
// check for free.
func gen(f func(*helix.GenerateContext) []*helix.GeneratedFile) helix.FileGenerator {
	return helix.GeneratorFunc(func(ctx context.Context, gctx *helix.GenerateContext) ([]*helix.GeneratedFile, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return f(gctx), nil
	})
}
