package pipeline

import (
	"sync"
	"time"

	"github.com/syssam/helix"
)

// Pipeline-level event types. Stage-level events are derived from the
// stage name ("stage:started", "stage:completed", "stage:failed") plus a
// named alias per stage concern ("generation:started", ...).
const (
	EventPipelineStarted   = "pipeline:started"
	EventPipelineCompleted = "pipeline:completed"
	EventPipelineFailed    = "pipeline:failed"

	EventStageStarted   = "stage:started"
	EventStageCompleted = "stage:completed"
	EventStageFailed    = "stage:failed"
)

// stageAliases names the concern behind a stage. Stages with an alias
// emit a second started/completed event pair under that name.
var stageAliases = map[helix.Stage]string{
	helix.StageComposeConfig:   "composition",
	helix.StageGenerateFiles:   "generation",
	helix.StageValidateQuality: "validation:quality",
	helix.StageSecurityScan:    "security:scan",
	helix.StageFinalize:        "finalization",
}

// Event is one progress notification from a pipeline run.
type Event struct {
	// Type is the event name, e.g. "stage:started".
	Type string `json:"type"`

	// RunID identifies the Generate call that emitted the event.
	RunID string `json:"runId"`

	// Stage is set on stage-scoped events.
	Stage helix.Stage `json:"stage,omitempty"`

	// Attempt counts stage attempts from 1. Retried stages re-emit their
	// event pair with an increased attempt.
	Attempt int `json:"attempt,omitempty"`

	// Err carries the failure text on *:failed events.
	Err string `json:"error,omitempty"`

	// Time is when the event was emitted.
	Time time.Time `json:"time"`
}

// Sink receives pipeline events. Emit must not block: the pipeline calls
// it inline between stage transitions.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Collector is a Sink that records every event in memory. Safe for
// concurrent use; intended for tests and post-run inspection.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (c *Collector) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of the recorded events in emission order.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// OfType returns the recorded events with the given type, in order.
func (c *Collector) OfType(eventType string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all recorded events.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

// ChannelSink forwards events to a buffered channel, dropping events
// when the buffer is full so emission never blocks the pipeline.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink returns a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Emit implements Sink. Full buffers drop the event.
func (s *ChannelSink) Emit(e Event) {
	select {
	case s.ch <- e:
	default:
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event { return s.ch }

var (
	_ Sink = SinkFunc(nil)
	_ Sink = (*Collector)(nil)
	_ Sink = (*ChannelSink)(nil)
)
