// Package pipeline orchestrates project generation through eight ordered
// stages, from request validation to the final report:
//
//	VALIDATE_PRE_GENERATION → RESOLVE_MODULES → COMPOSE_CONFIG →
//	GENERATE_FILES → VALIDATE_QUALITY → SECURITY_SCAN → FINALIZE → REPORT
//
// Stages run strictly forward. A failing stage either retries, when its
// error is transient and the retry budget allows, or fails the whole run.
// One wall-clock timeout bounds the run; exceeding it cancels the
// in-flight stage and rolls back any files written so far.
//
// A Pipeline is safe for concurrent Generate calls: per-run state lives
// on the call stack, the registry is read-mostly, and cache builds are
// deduplicated per fingerprint, so two concurrent runs with identical
// inputs share one generation instead of racing.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/helix"
	"github.com/syssam/helix/compose"
	"github.com/syssam/helix/internal/logger"
	"github.com/syssam/helix/registry"
	"github.com/syssam/helix/resolve"
	"github.com/syssam/helix/scan"
	"github.com/syssam/helix/validate"
)

// Pipeline generates projects from generation requests. Construct one
// with New and reuse it across requests.
type Pipeline struct {
	reg       *registry.Registry
	cfg       Config
	composer  *compose.Composer
	resolver  *resolve.Resolver
	validator *validate.Engine
	scanner   *scan.Scanner
	log       *slog.Logger
	flight    singleflight.Group

	mu   sync.Mutex
	last *helix.Metrics
}

// New returns a Pipeline reading module definitions from reg.
func New(reg *registry.Registry, opts ...Option) (*Pipeline, error) {
	if reg == nil {
		return nil, fmt.Errorf("pipeline: registry must not be nil")
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Caching && cfg.cache == nil {
		return nil, fmt.Errorf("pipeline: caching enabled without a cache; use WithCache")
	}
	if cfg.validator == nil {
		cfg.validator = validate.New()
	}
	if cfg.scanner == nil {
		cfg.scanner = scan.New()
	}
	if cfg.logger == nil {
		cfg.logger = logger.ForComponent("pipeline")
	}

	var resolverOpts []resolve.Option
	if cfg.chooser != nil {
		resolverOpts = append(resolverOpts, resolve.WithChooser(cfg.chooser))
	}
	return &Pipeline{
		reg:       reg,
		cfg:       cfg,
		composer:  compose.New(compose.WithWorkers(cfg.Workers), compose.WithParallel(cfg.Parallel)),
		resolver:  resolve.New(reg, resolverOpts...),
		validator: cfg.validator,
		scanner:   cfg.scanner,
		log:       cfg.logger,
	}, nil
}

// Generate runs the full pipeline for one request. The returned result
// is always non-nil; on failure Success is false, Errors[0] names the
// failing condition, and the same classified error is returned.
func (p *Pipeline) Generate(ctx context.Context, req *helix.GenerationRequest) (*helix.GenerationResult, error) {
	if req == nil {
		return nil, fmt.Errorf("pipeline: nil request")
	}
	r := newRun(p, req)
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	r.emit(Event{Type: EventPipelineStarted})
	p.log.Info("generation started",
		"run", r.id, "project", req.Name, "framework", req.Framework, "modules", len(req.Modules))

	var (
		failed      error
		failedStage helix.Stage
	)
	for _, st := range r.table() {
		if err := r.exec(ctx, st.stage, st.body); err != nil {
			failed, failedStage = err, st.stage
			break
		}
	}
	r.metrics.TotalDuration = time.Since(start)
	r.sampleMemory()
	p.storeMetrics(r.metrics)

	if failed == nil {
		r.state = helix.StateCompleted
		r.emit(Event{Type: EventPipelineCompleted})
		p.log.Info("generation completed",
			"run", r.id, "state", string(r.state), "files", len(r.files), "duration", r.metrics.TotalDuration)
		return r.successResult(), nil
	}

	failed = r.classify(ctx, failedStage, failed)
	r.rollback()
	r.emit(Event{Type: EventPipelineFailed, Err: failed.Error()})
	p.log.Error("generation failed",
		"run", r.id, "state", string(r.state), "stage", string(failedStage), "error", failed)
	return r.failureResult(failed), failed
}

// Metrics returns the metrics of the most recent run, or nil before the
// first Generate call.
func (p *Pipeline) Metrics() *helix.Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last.Clone()
}

func (p *Pipeline) storeMetrics(m *helix.Metrics) {
	p.mu.Lock()
	p.last = m
	p.mu.Unlock()
}
