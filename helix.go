// Package helix scaffolds multi-framework application projects by composing
// independently authored feature units ("DNA modules") into a generated file
// tree.
//
// This package holds the shared vocabulary of the system: module metadata,
// dependency and conflict declarations, generated files and merge strategies,
// generation requests and results, pipeline stages and metrics, and the error
// taxonomy. The moving parts live in subpackages:
//
//   - [registry]: module registration and dependency/conflict/compatibility queries
//   - [resolve]: conflict-graph resolution, automatic or interactive
//   - [compose]: parallel template instantiation and path-level merging
//   - [pipeline]: the 8-stage generation pipeline with retry, timeout and caching
//   - [validate]: request, environment and output validation
//   - [dna]: the module authoring DSL and YAML manifest loader
//   - [modules]: the builtin module library (auth, payments, database, UI)
//   - [cache]: in-memory LRU and SQLite implementations of [Cache]
//
// # Quick Start
//
// Register modules, build a pipeline, and generate a project:
//
//	reg := registry.New()
//	if err := modules.RegisterBuiltins(reg); err != nil {
//	    log.Fatal(err)
//	}
//
//	p, err := pipeline.New(reg,
//	    pipeline.WithWorkers(4),
//	    pipeline.WithCache(cache.NewLRU(256)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := p.Generate(ctx, &helix.GenerationRequest{
//	    Name:         "storefront",
//	    OutputPath:   "./storefront",
//	    TemplateType: "web-app",
//	    Framework:    "nextjs",
//	    Modules:      []string{"auth-jwt", "payments-stripe", "ui-tailwind"},
//	})
//
// # Modules
//
// A DNA module couples metadata with per-framework file generators:
//
//	mod := dna.NewModule("auth-jwt").
//	    Name("JWT Authentication").
//	    Version("1.2.0").
//	    Category("auth").
//	    DependsOn("database-postgres", dna.Range(">=1.0.0"), dna.Because("session storage")).
//	    ConflictsWith("auth-firebase", helix.SeverityError, "choose one auth provider").
//	    Framework("nextjs", dna.Full(), dna.Generator(generateNextJS)).
//	    Build()
//
// # Errors
//
// Failures carry typed errors so callers branch on kind, not message text:
//
//	if helix.IsUnresolvableConflict(err) { ... }
//	if helix.IsTimeout(err) { ... }
package helix
