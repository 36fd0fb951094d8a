package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"github.com/google/uuid"

	"github.com/syssam/helix"
	"github.com/syssam/helix/compose"
	"github.com/syssam/helix/dna"
	"github.com/syssam/helix/resolve"
	"github.com/syssam/helix/scan"
	"github.com/syssam/helix/validate"
)

// run is the mutable state of one Generate call. Runs never outlive the
// call and are never shared between calls.
type run struct {
	p   *Pipeline
	req *helix.GenerationRequest
	id  string

	metrics     *helix.Metrics
	results     []helix.StageResult
	warnings    []string
	suggestions []string
	state       helix.State

	resolved   []string                // final module ids, resolution order
	resolution []helix.ResolutionEntry // resolution log for the report
	modules    []*dna.Module           // definitions for resolved, same order
	gctx       *helix.GenerateContext
	key        string // generation fingerprint

	files       []*helix.GeneratedFile
	progQuality *validate.Result // progressive per-file quality findings
	progScan    *scan.Result     // progressive per-file scan findings

	writer      *compose.Writer // set once FINALIZE starts writing
	wroteReport bool
}

func newRun(p *Pipeline, req *helix.GenerationRequest) *run {
	return &run{
		p:   p,
		req: req,
		id:  uuid.NewString(),
		metrics: &helix.Metrics{
			StageDurations: make(map[helix.Stage]time.Duration, 8),
		},
	}
}

type stageExec struct {
	stage helix.Stage
	body  func(context.Context) error
}

func (r *run) table() []stageExec {
	return []stageExec{
		{helix.StageValidatePreGeneration, r.stageValidate},
		{helix.StageResolveModules, r.stageResolve},
		{helix.StageComposeConfig, r.stageComposeConfig},
		{helix.StageGenerateFiles, r.stageGenerate},
		{helix.StageValidateQuality, r.stageQuality},
		{helix.StageSecurityScan, r.stageScan},
		{helix.StageFinalize, r.stageFinalize},
		{helix.StageReport, r.stageReport},
	}
}

// exec runs one stage with retry. Every attempt emits its own
// started/completed (or failed) event pair; only transient errors
// consume the retry budget.
func (r *run) exec(ctx context.Context, stage helix.Stage, body func(context.Context) error) error {
	alias := stageAliases[stage]
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.emit(Event{Type: EventStageStarted, Stage: stage, Attempt: attempt})
		if alias != "" {
			r.emit(Event{Type: alias + ":started", Stage: stage, Attempt: attempt})
		}
		start := time.Now()
		err := r.hook(stage, attempt)
		if err == nil {
			err = body(ctx)
		}
		duration := time.Since(start)
		r.metrics.StageDurations[stage] += duration
		r.sampleMemory()

		if err == nil {
			if alias != "" {
				r.emit(Event{Type: alias + ":completed", Stage: stage, Attempt: attempt})
			}
			r.emit(Event{Type: EventStageCompleted, Stage: stage, Attempt: attempt})
			r.results = append(r.results, helix.StageResult{
				Stage: stage, Status: helix.StageSucceeded, Duration: duration, Retries: attempt - 1,
			})
			r.p.log.Debug("stage completed", "run", r.id, "stage", string(stage), "attempt", attempt, "duration", duration)
			return nil
		}

		r.emit(Event{Type: EventStageFailed, Stage: stage, Attempt: attempt, Err: err.Error()})
		if ctx.Err() != nil {
			return err
		}
		if !helix.IsTransient(err) || attempt > r.p.cfg.MaxRetries {
			r.results = append(r.results, helix.StageResult{
				Stage: stage, Status: helix.StageFailed, Duration: duration, Retries: attempt - 1, Err: err.Error(),
			})
			return err
		}

		r.metrics.Retries++
		r.results = append(r.results, helix.StageResult{
			Stage: stage, Status: helix.StageRetried, Duration: duration, Retries: attempt, Err: err.Error(),
		})
		backoff := r.p.cfg.Backoff * time.Duration(attempt)
		r.p.log.Warn("stage failed, retrying",
			"run", r.id, "stage", string(stage), "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (r *run) hook(stage helix.Stage, attempt int) error {
	if r.p.cfg.hook == nil {
		return nil
	}
	return r.p.cfg.hook(stage, attempt)
}

// stageValidate runs the pre-generation and environment checks.
func (r *run) stageValidate(context.Context) error {
	pre := r.p.validator.PreGeneration(r.req)
	r.absorb(pre)
	if !pre.Valid {
		return pre.Err()
	}
	env := r.p.validator.Environment()
	r.absorb(env)
	if !env.Valid {
		return helix.NewValidationError("environment", errors.New(env.Errors[0]))
	}
	return nil
}

// stageResolve computes the dependency closure, settles conflicts and
// confirms framework compatibility for every surviving module. Optional
// suggestions join the conflict graph but never the generation set; the
// ones that survive surface as suggestions on the result.
func (r *run) stageResolve(ctx context.Context) error {
	set, err := r.p.reg.ResolveDependencies(r.req.Modules)
	if err != nil {
		return err
	}
	suggestions := r.p.reg.Suggestions(set.Modules)
	res, err := r.p.resolver.Resolve(ctx, resolve.Gather(set, r.req.Modules, suggestions))
	if err != nil {
		return err
	}
	r.warnings = append(r.warnings, set.Warnings...)
	r.warnings = append(r.warnings, res.Warnings...)

	optional := make(map[string]string, len(suggestions))
	for _, s := range suggestions {
		optional[s.ModuleID] = s.SuggestedBy
	}
	r.resolution = set.Log
	for _, id := range res.Dropped {
		r.resolution = append(r.resolution, helix.ResolutionEntry{
			ModuleID: id, Action: helix.ResolutionDropped, Reason: "conflict resolution",
		})
	}

	for _, id := range res.Updated {
		if by, ok := optional[id]; ok {
			r.suggestions = append(r.suggestions,
				fmt.Sprintf("module %s (suggested by %s) is compatible with this selection", id, by))
			continue
		}
		level, err := r.p.reg.CheckFrameworkCompatibility(id, r.req.Framework)
		if err != nil {
			return err
		}
		if level == helix.CompatibilityNone {
			return helix.NewIncompatibleFrameworkError(id, r.req.Framework)
		}
		m, err := r.p.reg.Get(id)
		if err != nil {
			return err
		}
		r.resolved = append(r.resolved, id)
		r.modules = append(r.modules, m)
	}
	r.p.log.Debug("modules resolved",
		"run", r.id, "resolved", len(r.resolved), "dropped", len(res.Dropped), "resolution", string(res.Resolution))
	return nil
}

// stageComposeConfig builds the generation context and the fingerprint.
// Request variables win over the derived defaults.
func (r *run) stageComposeConfig(context.Context) error {
	pkg := packageName(r.req.Name)
	vars := make(map[string]string, len(r.req.Variables)+4)
	vars["projectName"] = r.req.Name
	vars["displayName"] = dna.DisplayName(r.req.Name)
	vars["packageName"] = pkg
	vars["packageManager"] = r.packageManager()
	for k, v := range r.req.Variables {
		vars[k] = v
	}

	r.gctx = &helix.GenerateContext{
		ProjectName:  r.req.Name,
		PackageName:  pkg,
		Framework:    r.req.Framework,
		TemplateType: r.req.TemplateType,
		Modules:      r.resolved,
		Variables:    vars,
	}
	r.key = helix.Fingerprint{
		Framework:    r.req.Framework,
		TemplateType: r.req.TemplateType,
		Modules:      r.resolved,
		Variables:    vars,
	}.String()
	return nil
}

func (r *run) packageManager() string {
	if pm := r.req.Options.PackageManager; pm != "" {
		return pm
	}
	if f, ok := dna.LookupFramework(r.req.Framework); ok {
		return f.PackageManager
	}
	return "npm"
}

// stageGenerate produces the merged file set, from the cache when the
// fingerprint is known, otherwise by composing the modules. Concurrent
// builds of the same fingerprint collapse into one.
func (r *run) stageGenerate(ctx context.Context) error {
	cfg := r.p.cfg
	if cfg.Caching {
		blob, err := cfg.cache.Get(ctx, r.key)
		switch {
		case err != nil:
			r.p.log.Warn("cache read failed", "run", r.id, "error", err)
		case blob != nil:
			files, warnings, err := decodePayload(blob)
			if err == nil {
				r.files = files
				r.warnings = append(r.warnings, warnings...)
				r.metrics.CacheHits++
				r.p.log.Debug("cache hit", "run", r.id, "key", r.key, "files", len(files))
				return nil
			}
			r.p.log.Warn("dropping undecodable cache entry", "run", r.id, "key", r.key, "error", err)
			_ = cfg.cache.Delete(ctx, r.key)
		}
	}

	type built struct {
		files    []*helix.GeneratedFile
		warnings []string
	}
	build := func() (any, error) {
		out, err := r.p.composer.Compose(ctx, r.modules, r.gctx)
		if err != nil {
			return nil, err
		}
		return &built{files: out.Files, warnings: out.Warnings}, nil
	}

	var (
		v   any
		err error
	)
	if cfg.Caching {
		v, err, _ = r.p.flight.Do(r.key, build)
	} else {
		v, err = build()
	}
	if err != nil {
		return err
	}
	b := v.(*built)
	r.files = b.files
	r.warnings = append(r.warnings, b.warnings...)

	if cfg.Caching {
		if blob, err := encodePayload(b.files, b.warnings); err == nil {
			if err := cfg.cache.Set(ctx, r.key, blob, cfg.CacheTTL); err != nil {
				r.p.log.Warn("cache write failed", "run", r.id, "error", err)
			}
		}
	}
	if cfg.Progressive {
		return r.progressive(ctx)
	}
	return nil
}

// progressive evaluates quality and scan rules file by file right after
// generation. Findings are logged immediately; enforcement stays with
// the quality and security stages, which reuse these results.
func (r *run) progressive(ctx context.Context) error {
	quality := &validate.Result{Valid: true}
	findings := &scan.Result{}
	for _, f := range r.files {
		fr := r.p.validator.QualityFile(f)
		quality.Absorb(fr)
		for _, w := range fr.Warnings {
			r.p.log.Warn("early quality warning", "run", r.id, "file", f.Path, "warning", w)
		}
		sr, err := r.p.scanner.Scan(ctx, []*helix.GeneratedFile{f})
		if err != nil {
			return err
		}
		findings.Findings = append(findings.Findings, sr.Findings...)
	}
	r.progQuality = quality
	r.progScan = findings
	return nil
}

// stageQuality validates the composed file set.
func (r *run) stageQuality(context.Context) error {
	var res *validate.Result
	if r.progQuality != nil {
		res = r.progQuality
		res.Absorb(r.p.validator.QualityTree(r.files, r.req))
	} else {
		res = r.p.validator.Quality(r.files, r.req)
	}
	r.absorb(res)
	if !res.Valid {
		return helix.NewValidationError("quality", errors.New(res.Errors[0]))
	}
	return nil
}

// stageScan runs the security policy over the file set. Error-severity
// findings fail the run; warnings pass through.
func (r *run) stageScan(ctx context.Context) error {
	res := r.progScan
	if res == nil {
		var err error
		if res, err = r.p.scanner.Scan(ctx, r.files); err != nil {
			return err
		}
	}
	r.warnings = append(r.warnings, res.Warnings()...)
	if res.Failed() {
		return fmt.Errorf("helix: security scan failed: %s", res.Errors()[0])
	}
	return nil
}

// stageFinalize writes the file set to the output directory. A failed
// write rolls its partial output back before the retry decision, so a
// retry starts from a clean slate.
func (r *run) stageFinalize(ctx context.Context) error {
	if r.req.Options.DryRun {
		r.p.log.Info("dry run, skipping writes", "run", r.id, "files", len(r.files))
		return nil
	}
	w := compose.NewWriter(r.req.OutputPath).WithWorkers(r.p.cfg.Workers)
	r.writer = w
	if err := w.WriteAll(ctx, r.files, r.req.Options.Overwrite); err != nil {
		_ = w.Rollback()
		if ctx.Err() != nil || helix.IsValidationError(err) {
			return err
		}
		return helix.NewTransientStageError(helix.StageFinalize, err)
	}
	return nil
}

// stageReport validates the written project and persists the generation
// report next to it.
func (r *run) stageReport(context.Context) error {
	if r.req.Options.DryRun {
		return nil
	}
	res := r.p.validator.GeneratedProject(r.req.OutputPath)
	r.absorb(res)
	if !res.Valid {
		return helix.NewValidationError("project", errors.New(res.Errors[0]))
	}
	if err := r.writeReport(); err != nil {
		return helix.NewTransientStageError(helix.StageReport, err)
	}
	r.wroteReport = true
	return nil
}

func (r *run) absorb(res *validate.Result) {
	r.warnings = append(r.warnings, res.Warnings...)
	r.suggestions = append(r.suggestions, res.Suggestions...)
}

// classify maps a stage failure onto the terminal state, turning context
// expiry into the timeout error the caller can match on.
func (r *run) classify(ctx context.Context, stage helix.Stage, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.state = helix.StateTimedOut
		return helix.NewTimeoutError(stage, r.p.cfg.Timeout)
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		r.state = helix.StateCancelled
		return fmt.Errorf("helix: generation cancelled in stage %s: %w", stage, err)
	default:
		r.state = helix.StateFailed
		return err
	}
}

// rollback removes everything this run put on disk. Files that existed
// before the run are never touched.
func (r *run) rollback() {
	if r.wroteReport {
		_ = os.Remove(filepath.Join(r.req.OutputPath, ReportFileName))
	}
	if r.writer == nil {
		return
	}
	if err := r.writer.Rollback(); err != nil {
		r.p.log.Error("rollback failed", "run", r.id, "error", err)
	}
}

func (r *run) successResult() *helix.GenerationResult {
	res := &helix.GenerationResult{
		Success:     true,
		OutputPath:  r.req.OutputPath,
		Warnings:    r.warnings,
		Suggestions: r.suggestions,
		Metrics:     r.metrics.Clone(),
	}
	for _, f := range r.files {
		res.GeneratedFiles = append(res.GeneratedFiles, f.Path)
	}
	if r.wroteReport {
		res.GeneratedFiles = append(res.GeneratedFiles, ReportFileName)
		sort.Strings(res.GeneratedFiles)
	}
	return res
}

func (r *run) failureResult(err error) *helix.GenerationResult {
	return &helix.GenerationResult{
		Success:     false,
		OutputPath:  r.req.OutputPath,
		Errors:      []string{err.Error()},
		Warnings:    r.warnings,
		Suggestions: r.suggestions,
		Metrics:     r.metrics.Clone(),
	}
}

func (r *run) emit(e Event) {
	if r.p.cfg.sink == nil {
		return
	}
	e.RunID = r.id
	e.Time = time.Now()
	r.p.cfg.sink.Emit(e)
}

func (r *run) sampleMemory() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapAlloc > r.metrics.Memory.Peak {
		r.metrics.Memory.Peak = ms.HeapAlloc
	}
	r.metrics.Memory.Current = ms.HeapAlloc
}

// packageName derives an identifier-safe package name from the project
// name, e.g. "my-shop_2" becomes "myshop2".
func packageName(name string) string {
	normalized := strings.NewReplacer("-", "_", " ", "_").Replace(name)
	pkg := strings.ToLower(inflect.Camelize(normalized))
	pkg = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, pkg)
	if pkg == "" || pkg[0] >= '0' && pkg[0] <= '9' {
		pkg = "app" + pkg
	}
	return pkg
}
