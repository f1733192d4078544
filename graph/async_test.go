package graph_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dudk/chrono"
	"github.com/dudk/chrono/graph"
	"github.com/dudk/chrono/mock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func diffGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(graph.Config{
		Nodes: []graph.Node{
			{Name: "in", Kind: graph.KindSource},
			{Name: "diff", Kind: graph.KindMixer, Mixer: diffConfig(128)},
			{Name: "out", Kind: graph.KindSink},
		},
		Edges: []graph.Edge{
			{From: "in", To: "diff"},
			{From: "diff", To: "out"},
		},
	})
	require.NoError(t, err)
	return g
}

// The run ends cleanly when the source is exhausted and every output
// frame arrives at the sink in order.
func TestAsync(t *testing.T) {
	source := &mock.Source{
		Shape: shape,
		Limit: 10,
		Value: 100,
		Step:  10,
	}
	sink := &mock.Sink{}

	err := diffGraph(t).Async(context.Background(), source, sink).Await()
	require.NoError(t, err)
	assert.Equal(t, 10, source.Pulled())
	// one warm-up frame swallowed
	require.Equal(t, 9, sink.Pushed())
	for _, f := range sink.Frames() {
		// constant increment of 10 centered on mid-gray
		assert.Equal(t, uint8(138), f.Data[0])
	}
}

// Backpressure delays delivery but never drops or reorders frames.
func TestAsyncBackpressure(t *testing.T) {
	source := &mock.Source{
		Shape:    shape,
		Sequence: []uint8{100, 150, 150, 200},
	}
	sink := &mock.Sink{BackpressureEvery: 2}

	err := diffGraph(t).Async(context.Background(), source, sink).Await()
	require.NoError(t, err)
	require.Equal(t, 3, sink.Pushed())
	expected := []uint8{178, 128, 178}
	for i, f := range sink.Frames() {
		assert.Equal(t, expected[i], f.Data[0])
	}
}

func TestAsyncSourceError(t *testing.T) {
	errSource := errors.New("capture failed")
	source := &mock.Source{
		Shape:       shape,
		Limit:       10,
		ErrorOnCall: errSource,
	}
	sink := &mock.Sink{}

	err := diffGraph(t).Async(context.Background(), source, sink).Await()
	assert.ErrorIs(t, err, errSource)
	assert.Equal(t, 0, sink.Pushed())
}

func TestAsyncSinkError(t *testing.T) {
	errSink := errors.New("writer closed")
	source := &mock.Source{
		Shape: shape,
		Limit: 10,
	}
	sink := &mock.Sink{ErrorOnCall: errSink}

	err := diffGraph(t).Async(context.Background(), source, sink).Await()
	assert.ErrorIs(t, err, errSink)
}

// Cancellation is honored at a frame boundary even against a sink which
// never stops refusing.
func TestAsyncCancel(t *testing.T) {
	source := &mock.Source{
		Shape: shape,
		Limit: 1 << 30,
	}
	sink := &stuckSink{}

	ctx, cancel := context.WithCancel(context.Background())
	a := diffGraph(t).Async(ctx, source, sink)
	time.Sleep(50 * time.Millisecond)
	cancel()
	err := a.Await()
	assert.ErrorIs(t, err, context.Canceled)
}

// stuckSink refuses every frame forever.
type stuckSink struct{}

func (s *stuckSink) Push(*chrono.Frame) error {
	return chrono.ErrBackpressure
}
