// Package pixel provides saturating arithmetic over frame samples. All
// operations are pure: they allocate a new frame and never mutate their
// inputs, so operands can be shared across graph branches.
package pixel

import (
	"errors"
	"fmt"
	"math"

	"github.com/dudk/chrono"
)

// BlendMode defines how two frames are combined by Blend.
type BlendMode int

const (
	// BlendAdd sums samples and clamps to the sample range.
	BlendAdd BlendMode = iota
	// BlendMultiply multiplies samples normalized to the sample range.
	BlendMultiply
)

func (m BlendMode) String() string {
	switch m {
	case BlendAdd:
		return "add"
	case BlendMultiply:
		return "multiply"
	}
	return fmt.Sprintf("blend(%d)", int(m))
}

// ErrBlendMode is returned when an unknown blend mode is used.
var ErrBlendMode = errors.New("unknown blend mode")

// ErrWeightsLength is returned when frames and weights have different
// lengths or are empty.
var ErrWeightsLength = errors.New("frames and weights length mismatch")

// Clamp saturates an accumulated value to the 8-bit sample range.
// Underflow clamps to 0 rather than wrapping: wrapped unsigned
// subtraction turns quiet regions into noise.
func Clamp(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > chrono.MaxSample {
		return chrono.MaxSample
	}
	return uint8(v)
}

// Subtract returns a - b per sample, clamped at 0.
func Subtract(a, b *chrono.Frame) (*chrono.Frame, error) {
	if !a.Shape.Equal(b.Shape) {
		return nil, fmt.Errorf("subtract %s and %s: %w", a.Shape, b.Shape, chrono.ErrShapeMismatch)
	}
	result := chrono.NewFrame(a.Shape)
	for i := range a.Data {
		result.Data[i] = Clamp(int32(a.Data[i]) - int32(b.Data[i]))
	}
	return result, nil
}

// Invert returns the per-sample complement, MaxSample - a. Inverting one
// operand turns a subtraction into an additive sign-preserving blend when
// passed through WeightedSum.
func Invert(a *chrono.Frame) *chrono.Frame {
	result := chrono.NewFrame(a.Shape)
	for i := range a.Data {
		result.Data[i] = chrono.MaxSample - a.Data[i]
	}
	return result
}

// WeightedSum accumulates frames multiplied by their weights, then scales,
// biases and clamps the result:
//
//	out = clamp(round(sum(frame[i]*weight[i]) * scale) + bias)
//
// Accumulation is done in a signed 32-bit accumulator so intermediate
// values cannot overflow for any realistic weight vector.
func WeightedSum(frames []*chrono.Frame, weights []int, scale float64, bias int) (*chrono.Frame, error) {
	if len(frames) == 0 || len(frames) != len(weights) {
		return nil, fmt.Errorf("%d frames and %d weights: %w", len(frames), len(weights), ErrWeightsLength)
	}
	shape := frames[0].Shape
	for i := 1; i < len(frames); i++ {
		if !frames[i].Shape.Equal(shape) {
			return nil, fmt.Errorf("weighted sum %s and %s: %w", shape, frames[i].Shape, chrono.ErrShapeMismatch)
		}
	}
	result := chrono.NewFrame(shape)
	for i := range result.Data {
		var acc int32
		for j := range frames {
			acc += int32(frames[j].Data[i]) * int32(weights[j])
		}
		result.Data[i] = Clamp(int32(math.Round(float64(acc)*scale)) + int32(bias))
	}
	return result, nil
}

// Blend combines two already-processed frames with the passed mode.
func Blend(a, b *chrono.Frame, mode BlendMode) (*chrono.Frame, error) {
	if !a.Shape.Equal(b.Shape) {
		return nil, fmt.Errorf("blend %s and %s: %w", a.Shape, b.Shape, chrono.ErrShapeMismatch)
	}
	result := chrono.NewFrame(a.Shape)
	switch mode {
	case BlendAdd:
		for i := range a.Data {
			result.Data[i] = Clamp(int32(a.Data[i]) + int32(b.Data[i]))
		}
	case BlendMultiply:
		for i := range a.Data {
			result.Data[i] = Clamp(int32(a.Data[i]) * int32(b.Data[i]) / chrono.MaxSample)
		}
	default:
		return nil, fmt.Errorf("%v: %w", mode, ErrBlendMode)
	}
	return result, nil
}
