package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dudk/chrono"
	"github.com/dudk/chrono/metric"
)

// backpressureInterval is how long the runner waits before offering a
// refused frame to the sink again.
const backpressureInterval = 10 * time.Millisecond

// Async is a handle of an asynchronously executed graph.
type Async struct {
	errorChan chan error
}

// Async starts pulling frames from the source, running them through the
// graph and pushing results to the sink, all in a dedicated goroutine.
// The run ends when the source returns io.EOF, the context is done or
// any stage fails. Cancellation is honored at frame boundaries and
// releases all buffered frames.
func (g *Graph) Async(ctx context.Context, source chrono.Source, sink chrono.Sink) *Async {
	a := &Async{
		errorChan: make(chan error, 1),
	}
	go func() {
		defer close(a.errorChan)
		if err := g.run(ctx, source, sink); err != nil {
			a.errorChan <- err
		}
	}()
	return a
}

// Await blocks until the run is over and returns its error, if any. A
// run finished by source exhaustion returns nil.
func (a *Async) Await() error {
	return <-a.errorChan
}

func (g *Graph) run(ctx context.Context, source chrono.Source, sink chrono.Sink) error {
	defer g.Reset()
	measure := metric.Meter(g)()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		f, err := source.Pull()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		outs, err := g.Feed(f)
		if err != nil {
			return err
		}
		for _, out := range outs {
			if err := push(ctx, sink, out); err != nil {
				return err
			}
			measure(int64(out.Size()))
		}
	}
}

// push offers a frame to the sink, retrying on backpressure until the
// sink accepts it or the context is done. Frames are delivered exactly
// once, in order; backpressure never drops.
func push(ctx context.Context, sink chrono.Sink, f *chrono.Frame) error {
	for {
		err := sink.Push(f)
		if err == nil {
			return nil
		}
		if !errors.Is(err, chrono.ErrBackpressure) {
			return fmt.Errorf("sink: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backpressureInterval):
		}
	}
}
