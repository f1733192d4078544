// Package mock provides mocks for stream collaborators and allows to
// execute integration tests without real video I/O.
package mock

import (
	"io"

	"github.com/dudk/chrono"
)

// Source mocks a chrono.Source with a synthetic frame stream. Frames are
// constant-valued: Value plus Step per pulled frame, or an explicit
// Sequence of per-frame values.
type Source struct {
	// Shape of generated frames.
	Shape chrono.Shape
	// Limit is the number of frames before io.EOF.
	Limit int
	// Value of every sample of the first frame.
	Value uint8
	// Step increments the value on every pulled frame.
	Step int
	// Sequence overrides Value/Step/Limit with explicit per-frame values.
	Sequence []uint8
	// ErrorOnCall is returned by every Pull when set.
	ErrorOnCall error

	pulled int
}

// Pull returns the next synthetic frame.
func (m *Source) Pull() (*chrono.Frame, error) {
	if m.ErrorOnCall != nil {
		return nil, m.ErrorOnCall
	}
	if m.Sequence != nil {
		if m.pulled >= len(m.Sequence) {
			return nil, io.EOF
		}
		f := chrono.FilledFrame(m.Shape, m.Sequence[m.pulled])
		m.pulled++
		return f, nil
	}
	if m.pulled >= m.Limit {
		return nil, io.EOF
	}
	f := chrono.FilledFrame(m.Shape, uint8(int(m.Value)+m.pulled*m.Step))
	m.pulled++
	return f, nil
}

// Pulled returns the number of frames pulled so far.
func (m *Source) Pulled() int {
	return m.pulled
}

// Sink mocks a chrono.Sink. Collected frames are not thread-safe and
// should not be checked while a graph is running.
type Sink struct {
	// BackpressureEvery refuses every n-th frame once before accepting
	// it, when positive.
	BackpressureEvery int
	// ErrorOnCall is returned by every Push when set.
	ErrorOnCall error

	frames  []*chrono.Frame
	refused bool
	pushed  int
}

// Push collects the frame.
func (m *Sink) Push(f *chrono.Frame) error {
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	if m.BackpressureEvery > 0 && (len(m.frames)+1)%m.BackpressureEvery == 0 && !m.refused {
		m.refused = true
		return chrono.ErrBackpressure
	}
	m.refused = false
	m.frames = append(m.frames, f)
	m.pushed++
	return nil
}

// Frames returns all collected frames in arrival order.
func (m *Sink) Frames() []*chrono.Frame {
	return m.frames
}

// Pushed returns the number of accepted frames. Refused pushes don't
// count.
func (m *Sink) Pushed() int {
	return m.pushed
}
