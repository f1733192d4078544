/*
Package chrono allows to build and execute temporal compositing graphs
for video streams.

Concept

Every output frame is a function of a bounded window of the most recent
input frames, combined with per-offset weights. This one idea covers
motion extraction (difference of adjacent frames), variable-delay motion
amplification (difference of frames N apart) and temporal mixing
(weighted sum across a window):

	Source - the origin of frames;
	Mixer - the temporal window operator;
	Split/Combine - fan-out and fan-in of frame streams;
	Sink - the destination of frames.

Frames arrive once, in order, and cannot be re-read. A mixer services its
window incrementally from a fixed-capacity ring, so memory stays at
O(K * frame size) regardless of stream length and the source is read
exactly once per input frame.

Components

The mixer package implements the window operator, the pixel package the
saturating sample arithmetic, the window package the frame ring and the
graph package composes stages into a small acyclic filter graph:

	cfg := graph.Config{
		Nodes: []graph.Node{
			{Name: "in", Kind: graph.KindSource},
			{Name: "diff", Kind: graph.KindMixer, Mixer: &mixer.Config{
				Frames:  2,
				Weights: mixer.DiffWeights(),
				Scale:   1,
				Bias:    128,
			}},
			{Name: "out", Kind: graph.KindSink},
		},
		Edges: []graph.Edge{{From: "in", To: "diff"}, {From: "diff", To: "out"}},
	}
	g, err := graph.New(cfg)

Execution

A graph can be driven one frame at a time with Feed or asynchronously
against Source and Sink collaborators:

	a := g.Async(ctx, source, sink)
	err := a.Await()

Async runs until the source is done, the context is done or an error
occured in any of the stages. Container and codec I/O, capture devices
and display are left to the collaborators; the engine operates on raw
sample grids only.
*/
package chrono
