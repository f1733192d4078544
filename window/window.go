// Package window provides a fixed-capacity ring of the most recent frames
// of a stream. Storage is O(capacity) regardless of how many frames have
// been pushed.
package window

import (
	"errors"

	"github.com/dudk/chrono"
)

// ErrIncompleteWindow is returned by At when the requested offset has not
// been filled yet. It marks the warm-up state of a window, not a failure.
var ErrIncompleteWindow = errors.New("incomplete window")

// ErrCapacity is returned when a window is created with capacity below 1.
var ErrCapacity = errors.New("window capacity must be positive")

// Window is a ring buffer of the last Cap frames. Frames held by the
// window are read-only until evicted.
type Window struct {
	frames []*chrono.Frame
	head   int // index of the newest frame
	length int
}

// New returns a new window of passed capacity.
func New(capacity int) (*Window, error) {
	if capacity < 1 {
		return nil, ErrCapacity
	}
	return &Window{
		frames: make([]*chrono.Frame, capacity),
		head:   capacity - 1,
	}, nil
}

// Push inserts the newest frame, evicting the oldest one if the window is
// full. It is O(1): no storage grows, no frames move.
func (w *Window) Push(f *chrono.Frame) {
	w.head = (w.head + 1) % cap(w.frames)
	w.frames[w.head] = f
	if w.length < cap(w.frames) {
		w.length++
	}
}

// At returns the frame at passed age-from-newest: offset 0 is the most
// recently pushed frame, offset Cap-1 the oldest. Offsets not filled yet
// return ErrIncompleteWindow.
func (w *Window) At(offset int) (*chrono.Frame, error) {
	if offset < 0 || offset >= w.length {
		return nil, ErrIncompleteWindow
	}
	return w.frames[(w.head-offset+cap(w.frames))%cap(w.frames)], nil
}

// Len returns current occupancy.
func (w *Window) Len() int {
	return w.length
}

// Cap returns window capacity.
func (w *Window) Cap() int {
	return cap(w.frames)
}

// Reset drops all held frame references and returns the window to the
// empty state.
func (w *Window) Reset() {
	for i := range w.frames {
		w.frames[i] = nil
	}
	w.head = cap(w.frames) - 1
	w.length = 0
}
