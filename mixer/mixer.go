// Package mixer implements the temporal window operator: one new frame
// in, zero or one composited frame out, combined across a ring of the
// most recent frames with per-offset weights.
package mixer

import (
	"errors"
	"fmt"
	"math"

	"github.com/dudk/chrono"
	"github.com/dudk/chrono/log"
	"github.com/dudk/chrono/pixel"
	"github.com/dudk/chrono/window"
)

// ErrFrameCount is returned when config frame count is below 2.
var ErrFrameCount = errors.New("mixer requires at least 2 frames")

// ErrWeightLength is returned when weight vector length does not match
// the frame count.
var ErrWeightLength = errors.New("weights length must equal frame count")

// ErrScale is returned when config scale is not positive.
var ErrScale = errors.New("scale must be positive")

// ErrDelay is returned by DelayWeights when the delay does not fit the
// window.
var ErrDelay = errors.New("delay must be within window")

// Config holds mixer parameters, fixed at construction.
type Config struct {
	// Frames is the window capacity K. The first K-1 fed frames produce
	// no output.
	Frames int
	// Weights has one signed multiplier per window offset, index 0 is
	// the newest frame.
	Weights []int
	// Scale normalizes the accumulated sum before clamping.
	Scale float64
	// Bias is added after scaling, e.g. 128 to center differences on
	// mid-gray instead of black.
	Bias int
}

func (c Config) validate() error {
	if c.Frames < 2 {
		return fmt.Errorf("%d frames: %w", c.Frames, ErrFrameCount)
	}
	if len(c.Weights) != c.Frames {
		return fmt.Errorf("%d weights for %d frames: %w", len(c.Weights), c.Frames, ErrWeightLength)
	}
	if !(c.Scale > 0) {
		return fmt.Errorf("scale %v: %w", c.Scale, ErrScale)
	}
	return nil
}

// DiffWeights returns the weight vector of adjacent-frame differencing:
// newest minus previous.
func DiffWeights() []int {
	return []int{1, -1}
}

// DelayWeights returns a weight vector of length k subtracting the frame
// delay steps back from the newest one. Which operand is subtracted from
// which is a matter of convention; flip the signs for the opposite one.
func DelayWeights(k, delay int) ([]int, error) {
	if delay < 1 || delay >= k {
		return nil, fmt.Errorf("delay %d in window of %d: %w", delay, k, ErrDelay)
	}
	weights := make([]int, k)
	weights[0] = 1
	weights[delay] = -1
	return weights, nil
}

// DefaultScale returns 1/2^ceil(log2(sum of absolute weights)), the
// largest power-of-two scale under which a weighted sum of full-range
// samples stays in range.
func DefaultScale(weights []int) float64 {
	var sum int
	for _, w := range weights {
		if w < 0 {
			sum -= w
		} else {
			sum += w
		}
	}
	if sum <= 1 {
		return 1
	}
	return 1 / math.Pow(2, math.Ceil(math.Log2(float64(sum))))
}

// Mixer consumes a stream of frames one by one and emits one output frame
// per input once its window is full. It holds exactly Frames frames at
// any time; the ring is the only storage strategy, the stream is never
// re-read.
type Mixer struct {
	uid    string
	logger log.Logger
	config Config
	window *window.Window
	shape  chrono.Shape
	stack  []*chrono.Frame // scratch, ordered newest first
}

// New returns a new mixer for passed config. Config is validated here,
// not at first feed.
func New(c Config) (*Mixer, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	w, err := window.New(c.Frames)
	if err != nil {
		return nil, err
	}
	return &Mixer{
		uid:    chrono.NewUID(),
		logger: log.GetLogger(),
		config: c,
		window: w,
		stack:  make([]*chrono.Frame, c.Frames),
	}, nil
}

// Feed pushes the next frame of the stream into the window. It returns
// nil while the window is still filling and exactly one composited frame
// on every feed after that. The fed frame is treated as read-only until
// it is evicted from the window.
func (m *Mixer) Feed(f *chrono.Frame) (*chrono.Frame, error) {
	if m.window.Len() == 0 {
		m.shape = f.Shape
	} else if !f.Shape.Equal(m.shape) {
		return nil, fmt.Errorf("mixer %s fed %s, expects %s: %w", m.uid, f.Shape, m.shape, chrono.ErrShapeMismatch)
	}
	m.window.Push(f)
	if m.window.Len() < m.config.Frames {
		m.logger.Debug("mixer ", m.uid, " warming up: ", m.window.Len(), "/", m.config.Frames)
		return nil, nil
	}
	for offset := range m.stack {
		frame, err := m.window.At(offset)
		if err != nil {
			return nil, err
		}
		m.stack[offset] = frame
	}
	return pixel.WeightedSum(m.stack, m.config.Weights, m.config.Scale, m.config.Bias)
}

// Reset returns the mixer to the warm-up state and releases all held
// frames.
func (m *Mixer) Reset() {
	m.window.Reset()
	for i := range m.stack {
		m.stack[i] = nil
	}
}

// Warmup returns the number of frames the mixer swallows before the
// first output.
func (m *Mixer) Warmup() int {
	return m.config.Frames - 1
}
