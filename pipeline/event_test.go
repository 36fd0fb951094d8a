package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/helix/pipeline"
)

func TestCollector(t *testing.T) {
	t.Parallel()
	c := &pipeline.Collector{}
	c.Emit(pipeline.Event{Type: pipeline.EventStageStarted})
	c.Emit(pipeline.Event{Type: pipeline.EventStageCompleted})
	c.Emit(pipeline.Event{Type: pipeline.EventStageStarted})

	assert.Len(t, c.Events(), 3)
	assert.Len(t, c.OfType(pipeline.EventStageStarted), 2)
	c.Reset()
	assert.Empty(t, c.Events())
}

func TestChannelSink_dropsWhenFull(t *testing.T) {
	t.Parallel()
	sink := pipeline.NewChannelSink(1)
	sink.Emit(pipeline.Event{Type: "a"})
	sink.Emit(pipeline.Event{Type: "b"}) // buffer full, dropped

	select {
	case e := <-sink.Events():
		assert.Equal(t, "a", e.Type)
	default:
		require.Fail(t, "expected one buffered event")
	}
	select {
	case e := <-sink.Events():
		require.Failf(t, "unexpected event", "%s", e.Type)
	default:
	}
}
