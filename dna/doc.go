// Package dna provides the building blocks for defining DNA modules.
//
// A DNA module is an independently versioned feature unit (authentication,
// payments, database wiring, UI theming) that contributes files to a
// generated project. Modules declare dependencies on other modules,
// conflicts with incompatible ones, and one implementation per supported
// framework.
//
// # Defining Modules
//
// Modules are assembled with a fluent builder and sealed by Build:
//
//	mod, err := dna.NewModule("auth-jwt").
//	    Name("JWT Authentication").
//	    Version("1.2.0").
//	    Category("auth").
//	    Keywords("auth", "jwt", "session").
//	    DependsOn("database-postgres", dna.Range(">=1.0.0"), dna.Because("session storage")).
//	    ConflictsWith("auth-firebase", helix.SeverityError, "choose one auth provider").
//	    Framework("nextjs", dna.Full(), dna.Generator(nextGen), dna.Packages("jsonwebtoken@9")).
//	    Framework("flutter", dna.Partial("no SSR token refresh"), dna.Generator(flutterGen)).
//	    Build()
//
// Builder methods record mistakes (bad semver, self-conflicts, unknown
// frameworks) instead of panicking; Build returns them all at once.
// Must unwraps Build for static module catalogs:
//
//	var AuthJWT = dna.Must(dna.NewModule("auth-jwt"). ... )
//
// # Manifests
//
// Modules whose file payloads are pure data can be loaded from YAML
// manifests instead of Go code:
//
//	mods, err := dna.LoadDir("./manifests")
//
// Manifest files render through text/template with the generation context,
// so payloads may reference {{.Project}}, {{.Package}} and {{.Vars.key}}.
//
// # Watching
//
// Watch re-loads a manifest directory when files change, for long-running
// processes that serve generation requests:
//
//	w, err := dna.NewWatcher("./manifests", reloadFn)
//	go w.Run(ctx)
package dna
