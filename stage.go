package helix

import "time"

// Stage names one ordered unit of work inside the generation pipeline.
type Stage string

// Pipeline stages, in execution order.
const (
	StageValidatePreGeneration Stage = "VALIDATE_PRE_GENERATION"
	StageResolveModules        Stage = "RESOLVE_MODULES"
	StageComposeConfig         Stage = "COMPOSE_CONFIG"
	StageGenerateFiles         Stage = "GENERATE_FILES"
	StageValidateQuality       Stage = "VALIDATE_QUALITY"
	StageSecurityScan          Stage = "SECURITY_SCAN"
	StageFinalize              Stage = "FINALIZE"
	StageReport                Stage = "REPORT"
)

// Stages returns the pipeline stages in execution order. The returned slice
// is a fresh copy.
func Stages() []Stage {
	return []Stage{
		StageValidatePreGeneration,
		StageResolveModules,
		StageComposeConfig,
		StageGenerateFiles,
		StageValidateQuality,
		StageSecurityScan,
		StageFinalize,
		StageReport,
	}
}

// StageStatus is the lifecycle state of one stage execution.
type StageStatus string

// Stage statuses.
const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageRetried   StageStatus = "retried"
)

// StageResult records the outcome of one stage within a run.
type StageResult struct {
	Stage    Stage         `json:"stage"`
	Status   StageStatus   `json:"status"`
	Duration time.Duration `json:"duration"`
	Retries  int           `json:"retries"`
	Err      string        `json:"error,omitempty"`
}

// State is the terminal state of a pipeline run.
type State string

// Terminal pipeline states.
const (
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
	StateTimedOut  State = "TIMED_OUT"
	StateCancelled State = "CANCELLED"
)

// MemoryUsage is a point-in-time heap snapshot taken from the Go runtime.
type MemoryUsage struct {
	Peak    uint64 `json:"peak"`
	Current uint64 `json:"current"`
}

// Metrics accumulate over the lifetime of one Generate call.
type Metrics struct {
	TotalDuration  time.Duration           `json:"totalDuration"`
	StageDurations map[Stage]time.Duration `json:"stageDurations"`
	Retries        int                     `json:"retries"`
	CacheHits      int                     `json:"cacheHits"`
	Memory         MemoryUsage             `json:"memoryUsage"`
}

// Clone returns a deep copy of the metrics, safe to hand to callers while
// the originals keep accumulating.
func (m *Metrics) Clone() *Metrics {
	if m == nil {
		return nil
	}
	c := *m
	c.StageDurations = make(map[Stage]time.Duration, len(m.StageDurations))
	for k, v := range m.StageDurations {
		c.StageDurations[k] = v
	}
	return &c
}
