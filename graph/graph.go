// Package graph composes temporal compositing stages into a small acyclic
// filter graph: one source, one sink and any number of mixer, split and
// combine nodes in between. Frame arrival order is preserved end-to-end.
package graph

import (
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/dudk/chrono"
	"github.com/dudk/chrono/log"
	"github.com/dudk/chrono/mixer"
	"github.com/dudk/chrono/pixel"
)

// Kind enumerates the closed set of node kinds.
type Kind int

const (
	// KindSource is the seam to the external frame provider.
	KindSource Kind = iota
	// KindMixer applies a temporal window operator to its stream.
	KindMixer
	// KindSplit duplicates a frame reference to all outbound edges
	// without copying sample data.
	KindSplit
	// KindCombine blends one frame per inbound edge into one output.
	KindCombine
	// KindSink is the seam to the external frame consumer.
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindMixer:
		return "mixer"
	case KindSplit:
		return "split"
	case KindCombine:
		return "combine"
	case KindSink:
		return "sink"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Construction errors. All graph validation happens in New; a built graph
// never fails on topology mid-stream.
var (
	// ErrSource is returned when the graph doesn't have exactly one source.
	ErrSource = errors.New("graph must have exactly one source")
	// ErrSink is returned when the graph doesn't have exactly one sink.
	ErrSink = errors.New("graph must have exactly one sink")
	// ErrNodeName is returned on empty or duplicate node names.
	ErrNodeName = errors.New("node names must be unique and non-empty")
	// ErrEdge is returned when an edge endpoint is not a known node.
	ErrEdge = errors.New("edge endpoint is not a node")
	// ErrNotConnected is returned when a node misses required edges.
	ErrNotConnected = errors.New("node is not connected")
	// ErrCyclic is returned when edges form a cycle.
	ErrCyclic = errors.New("graph is cyclic")
	// ErrMaxLag is returned on a negative lag allowance.
	ErrMaxLag = errors.New("negative lag allowance")
)

// ErrSyncStall is returned by Feed when inbound branches of a combine
// node have drifted apart by more than its lag allowance. Frames are
// never dropped to resolve the drift and the graph never blocks on it;
// the caller decides whether to abort or rebuild with a larger MaxLag.
var ErrSyncStall = errors.New("combine branches out of sync")

// Node declares a single stage of the graph.
type Node struct {
	Name string
	Kind Kind
	// Mixer parameters, KindMixer only.
	Mixer *mixer.Config
	// Blend mode, KindCombine only.
	Blend pixel.BlendMode
	// MaxLag bounds how many frames a fast inbound branch of a combine
	// node may run ahead of the slowest one before Feed reports
	// ErrSyncStall. Zero derives the worst-case warm-up skew between
	// the inbound paths, which is exactly the buffering a graph of
	// mixers needs.
	MaxLag int
}

// Edge declares a frame stream from one node to another.
type Edge struct {
	From string
	To   string
}

// Config declares graph topology and per-node parameters, consumed once
// at build time.
type Config struct {
	Nodes []Node
	Edges []Edge
}

// edge carries frames between two nodes in arrival order.
type edge struct {
	from  *node
	to    *node
	queue []*chrono.Frame
}

func (e *edge) push(f *chrono.Frame) {
	e.queue = append(e.queue, f)
}

func (e *edge) pop() *chrono.Frame {
	f := e.queue[0]
	e.queue[0] = nil
	e.queue = e.queue[1:]
	return f
}

type node struct {
	name   string
	kind   Kind
	mixer  *mixer.Mixer
	blend  pixel.BlendMode
	maxLag int
	// warm-up delay of the longest path from the source to this node,
	// in frames
	delay int
	in    []*edge
	out   []*edge
}

// broadcast forwards one frame reference to all outbound edges. No
// sample data is copied: past a fan-out frames are read-only.
func (n *node) broadcast(f *chrono.Frame) {
	for _, e := range n.out {
		e.push(f)
	}
}

// ready reports whether every inbound edge has a frame queued.
func (n *node) ready() bool {
	for _, e := range n.in {
		if len(e.queue) == 0 {
			return false
		}
	}
	return true
}

// lag returns the longest inbound queue.
func (n *node) lag() int {
	var lag int
	for _, e := range n.in {
		if len(e.queue) > lag {
			lag = len(e.queue)
		}
	}
	return lag
}

// Graph is a built filter graph. It owns all per-node state, so multiple
// graphs run concurrently without interference. A graph itself is not
// safe for concurrent Feed calls.
type Graph struct {
	uid    string
	logger log.Logger
	// nodes in topological order
	nodes  []*node
	source *node
	sink   *node
}

// New validates passed config and builds the graph. Malformed topology
// and invalid mixer parameters are rejected here, never surfaced
// mid-stream.
func New(c Config) (*Graph, error) {
	g := &Graph{
		uid:    chrono.NewUID(),
		logger: log.GetLogger(),
	}
	byName := make(map[string]*node, len(c.Nodes))
	nodes := make([]*node, 0, len(c.Nodes))
	for _, nc := range c.Nodes {
		if nc.Name == "" || byName[nc.Name] != nil {
			return nil, fmt.Errorf("node %q: %w", nc.Name, ErrNodeName)
		}
		n := &node{
			name:   nc.Name,
			kind:   nc.Kind,
			blend:  nc.Blend,
			maxLag: nc.MaxLag,
		}
		switch nc.Kind {
		case KindSource:
			if g.source != nil {
				return nil, ErrSource
			}
			g.source = n
		case KindSink:
			if g.sink != nil {
				return nil, ErrSink
			}
			g.sink = n
		case KindMixer:
			var mc mixer.Config
			if nc.Mixer != nil {
				mc = *nc.Mixer
			}
			m, err := mixer.New(mc)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", nc.Name, err)
			}
			n.mixer = m
		case KindSplit:
		case KindCombine:
			if nc.Blend != pixel.BlendAdd && nc.Blend != pixel.BlendMultiply {
				return nil, fmt.Errorf("node %q: %v: %w", nc.Name, nc.Blend, pixel.ErrBlendMode)
			}
			if nc.MaxLag < 0 {
				return nil, fmt.Errorf("node %q: %d: %w", nc.Name, nc.MaxLag, ErrMaxLag)
			}
		default:
			return nil, fmt.Errorf("node %q: unknown kind %v", nc.Name, nc.Kind)
		}
		byName[nc.Name] = n
		nodes = append(nodes, n)
	}
	if g.source == nil {
		return nil, ErrSource
	}
	if g.sink == nil {
		return nil, ErrSink
	}
	for _, ec := range c.Edges {
		from, to := byName[ec.From], byName[ec.To]
		if from == nil || to == nil {
			return nil, fmt.Errorf("edge %q -> %q: %w", ec.From, ec.To, ErrEdge)
		}
		e := &edge{from: from, to: to}
		from.out = append(from.out, e)
		to.in = append(to.in, e)
	}
	for _, n := range nodes {
		if err := n.validateDegree(); err != nil {
			return nil, err
		}
	}
	sorted, err := toposort(nodes)
	if err != nil {
		return nil, err
	}
	g.nodes = sorted
	g.resolveLag()
	g.logger.Debug("graph ", g.uid, " built:\n", spew.Sdump(c))
	return g, nil
}

func (n *node) validateDegree() error {
	var ok bool
	switch n.kind {
	case KindSource:
		ok = len(n.in) == 0 && len(n.out) >= 1
	case KindSink:
		ok = len(n.in) >= 1 && len(n.out) == 0
	case KindMixer, KindSplit:
		ok = len(n.in) == 1 && len(n.out) >= 1
	case KindCombine:
		ok = len(n.in) >= 2 && len(n.out) >= 1
	}
	if !ok {
		return fmt.Errorf("%v node %q with %d in and %d out edges: %w",
			n.kind, n.name, len(n.in), len(n.out), ErrNotConnected)
	}
	return nil
}

// toposort orders nodes topologically, detecting cycles.
func toposort(nodes []*node) ([]*node, error) {
	indegree := make(map[*node]int, len(nodes))
	var queue []*node
	for _, n := range nodes {
		indegree[n] = len(n.in)
		if len(n.in) == 0 {
			queue = append(queue, n)
		}
	}
	sorted := make([]*node, 0, len(nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		sorted = append(sorted, n)
		for _, e := range n.out {
			indegree[e.to]--
			if indegree[e.to] == 0 {
				queue = append(queue, e.to)
			}
		}
	}
	if len(sorted) != len(nodes) {
		return nil, ErrCyclic
	}
	return sorted, nil
}

// resolveLag computes cumulative warm-up delays along the graph and
// derives the default lag allowance of each combine node from the skew
// of its inbound paths.
func (g *Graph) resolveLag() {
	for _, n := range g.nodes {
		switch n.kind {
		case KindSource:
			n.delay = 0
		case KindMixer:
			n.delay = n.in[0].from.delay + n.mixer.Warmup()
		case KindSplit, KindSink:
			if len(n.in) > 0 {
				n.delay = n.in[0].from.delay
			}
		case KindCombine:
			min, max := n.in[0].from.delay, n.in[0].from.delay
			for _, e := range n.in[1:] {
				if e.from.delay < min {
					min = e.from.delay
				}
				if e.from.delay > max {
					max = e.from.delay
				}
			}
			n.delay = max
			if n.maxLag == 0 {
				n.maxLag = max - min
			}
		}
	}
}

// Feed runs one frame through the graph: each node is serviced once, in
// topological order, before the next input frame is accepted. It returns
// the frames that reached the sink, zero or more of them depending on the
// warm-up state of mixers along the paths, in arrival order.
func (g *Graph) Feed(f *chrono.Frame) ([]*chrono.Frame, error) {
	g.source.broadcast(f)
	var outs []*chrono.Frame
	for _, n := range g.nodes {
		switch n.kind {
		case KindMixer:
			in := n.in[0]
			for len(in.queue) > 0 {
				out, err := n.mixer.Feed(in.pop())
				if err != nil {
					return nil, fmt.Errorf("node %q: %w", n.name, err)
				}
				if out != nil {
					n.broadcast(out)
				}
			}
		case KindSplit:
			in := n.in[0]
			for len(in.queue) > 0 {
				n.broadcast(in.pop())
			}
		case KindCombine:
			for n.ready() {
				frame := n.in[0].pop()
				var err error
				for _, e := range n.in[1:] {
					frame, err = pixel.Blend(frame, e.pop(), n.blend)
					if err != nil {
						return nil, fmt.Errorf("node %q: %w", n.name, err)
					}
				}
				n.broadcast(frame)
			}
			if lag := n.lag(); lag > n.maxLag {
				return nil, fmt.Errorf("node %q is %d frames behind with %d allowed: %w",
					n.name, lag, n.maxLag, ErrSyncStall)
			}
		case KindSink:
			for _, e := range n.in {
				for len(e.queue) > 0 {
					outs = append(outs, e.pop())
				}
			}
		}
	}
	return outs, nil
}

// Reset drops all buffered frames and returns every mixer to the warm-up
// state, releasing O(K) held frames per mixer.
func (g *Graph) Reset() {
	for _, n := range g.nodes {
		if n.mixer != nil {
			n.mixer.Reset()
		}
		for _, e := range n.in {
			e.queue = nil
		}
	}
}
