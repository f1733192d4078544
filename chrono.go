package chrono

import (
	"errors"
	"fmt"

	"github.com/rs/xid"
)

// MaxSample is the largest value an 8-bit sample can hold.
const MaxSample = 255

// ErrShapeMismatch is returned when frames of different shapes meet in
// one operation. Shapes are never coerced.
var ErrShapeMismatch = errors.New("frame shape mismatch")

// ErrBackpressure is returned by a Sink which cannot accept a frame right
// now. The frame was not consumed and should be offered again.
var ErrBackpressure = errors.New("sink backpressure")

// Source is a pull-based provider of frames. Pull returns io.EOF when the
// stream is over. It may block waiting for the next frame.
type Source interface {
	Pull() (*Frame, error)
}

// Sink is a push-based consumer of frames. Push returns ErrBackpressure
// when the frame cannot be accepted yet.
type Sink interface {
	Push(*Frame) error
}

// Shape describes frame dimensions: width and height in pixels and number
// of channels per pixel.
type Shape struct {
	Width    int
	Height   int
	Channels int
}

// Equal returns true if both shapes have same dimensions.
func (s Shape) Equal(other Shape) bool {
	return s == other
}

// Size returns total number of samples for this shape.
func (s Shape) Size() int {
	return s.Width * s.Height * s.Channels
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Channels)
}

// Frame is a single sampled image of a video stream. Data is row-major and
// channel-interleaved: sample (x, y, c) lives at (y*Width+x)*Channels+c.
// Samples are 8-bit unsigned. Once a frame is handed to a window or to
// multiple graph branches it is read-only; operations allocate new frames
// and never mutate their inputs.
type Frame struct {
	Shape
	Data []uint8
}

// NewFrame returns a zeroed frame of passed shape.
func NewFrame(s Shape) *Frame {
	return &Frame{
		Shape: s,
		Data:  make([]uint8, s.Size()),
	}
}

// FilledFrame returns a frame of passed shape with every sample set to
// value.
func FilledFrame(s Shape, value uint8) *Frame {
	f := NewFrame(s)
	for i := range f.Data {
		f.Data[i] = value
	}
	return f
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	clone := &Frame{
		Shape: f.Shape,
		Data:  make([]uint8, len(f.Data)),
	}
	copy(clone.Data, f.Data)
	return clone
}

// At returns the sample at pixel (x, y) channel c.
func (f *Frame) At(x, y, c int) uint8 {
	return f.Data[(y*f.Width+x)*f.Channels+c]
}

// Set assigns the sample at pixel (x, y) channel c.
func (f *Frame) Set(x, y, c int, value uint8) {
	f.Data[(y*f.Width+x)*f.Channels+c] = value
}

// NewUID returns new unique id value.
func NewUID() string {
	return xid.New().String()
}
