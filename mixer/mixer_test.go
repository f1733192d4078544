package mixer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/chrono"
	"github.com/dudk/chrono/mixer"
)

var shape = chrono.Shape{Width: 2, Height: 2, Channels: 1}

func TestNew(t *testing.T) {
	tests := []struct {
		description string
		config      mixer.Config
		expected    error
	}{
		{
			description: "valid diff config",
			config: mixer.Config{
				Frames:  2,
				Weights: mixer.DiffWeights(),
				Scale:   1,
			},
		},
		{
			description: "frame count below 2",
			config: mixer.Config{
				Frames:  1,
				Weights: []int{1},
				Scale:   1,
			},
			expected: mixer.ErrFrameCount,
		},
		{
			description: "weights shorter than window",
			config: mixer.Config{
				Frames:  3,
				Weights: []int{1, -1},
				Scale:   1,
			},
			expected: mixer.ErrWeightLength,
		},
		{
			description: "weights longer than window",
			config: mixer.Config{
				Frames:  2,
				Weights: []int{1, 0, -1},
				Scale:   1,
			},
			expected: mixer.ErrWeightLength,
		},
		{
			description: "zero scale",
			config: mixer.Config{
				Frames:  2,
				Weights: mixer.DiffWeights(),
			},
			expected: mixer.ErrScale,
		},
	}
	for _, test := range tests {
		t.Log(test.description)
		m, err := mixer.New(test.config)
		if test.expected != nil {
			assert.ErrorIs(t, err, test.expected)
			assert.Nil(t, m)
		} else {
			require.NoError(t, err)
			assert.NotNil(t, m)
		}
	}
}

// The first K-1 feeds produce no output, the K-th and every feed after
// it produce exactly one.
func TestWarmup(t *testing.T) {
	for _, k := range []int{2, 3, 6} {
		weights := make([]int, k)
		weights[0] = 1
		m, err := mixer.New(mixer.Config{Frames: k, Weights: weights, Scale: 1})
		require.NoError(t, err)
		assert.Equal(t, k-1, m.Warmup())

		for i := 0; i < k-1; i++ {
			out, err := m.Feed(chrono.FilledFrame(shape, uint8(i)))
			require.NoError(t, err)
			assert.Nil(t, out)
		}
		for i := 0; i < 10; i++ {
			out, err := m.Feed(chrono.FilledFrame(shape, uint8(i)))
			require.NoError(t, err)
			assert.NotNil(t, out)
		}
	}
}

// Two constant gray frames 100 then 150 through a diff mixer biased on
// mid-gray: clamp((150-100)*1 + 128) = 178 at every position.
func TestGrayDiff(t *testing.T) {
	m, err := mixer.New(mixer.Config{
		Frames:  2,
		Weights: mixer.DiffWeights(),
		Scale:   1,
		Bias:    128,
	})
	require.NoError(t, err)

	out, err := m.Feed(chrono.FilledFrame(shape, 100))
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = m.Feed(chrono.FilledFrame(shape, 150))
	require.NoError(t, err)
	require.NotNil(t, out)
	for i := range out.Data {
		assert.Equal(t, uint8(178), out.Data[i])
	}
}

// Neutral-gray centered weighted blend: difference halved around
// mid-gray stays in range for any input pair.
func TestNeutralGrayBlend(t *testing.T) {
	m, err := mixer.New(mixer.Config{
		Frames:  2,
		Weights: mixer.DiffWeights(),
		Scale:   0.5,
		Bias:    128,
	})
	require.NoError(t, err)

	_, err = m.Feed(chrono.FilledFrame(shape, 0))
	require.NoError(t, err)
	out, err := m.Feed(chrono.FilledFrame(shape, 255))
	require.NoError(t, err)
	require.NotNil(t, out)
	// round(255*0.5) + 128 = 256, clamped
	assert.Equal(t, uint8(255), out.Data[0])

	m.Reset()
	_, err = m.Feed(chrono.FilledFrame(shape, 255))
	require.NoError(t, err)
	out, err = m.Feed(chrono.FilledFrame(shape, 0))
	require.NoError(t, err)
	require.NotNil(t, out)
	// round(-255*0.5) + 128 = 0, edges stay representable
	assert.Equal(t, uint8(0), out.Data[0])
}

// A single +1/-1 pair at distance n in a window of K extracts motion
// against the frame n steps back.
func TestDelayExtraction(t *testing.T) {
	weights, err := mixer.DelayWeights(4, 3)
	require.NoError(t, err)
	m, err := mixer.New(mixer.Config{Frames: 4, Weights: weights, Scale: 1, Bias: 128})
	require.NoError(t, err)

	// values 10, 20, 30, 40: newest minus 3 steps back is 30
	var out *chrono.Frame
	for _, v := range []uint8{10, 20, 30, 40} {
		out, err = m.Feed(chrono.FilledFrame(shape, v))
		require.NoError(t, err)
	}
	require.NotNil(t, out)
	assert.Equal(t, uint8(158), out.Data[0])

	// next frame slides the window: 50 - 20 = 30 again
	out, err = m.Feed(chrono.FilledFrame(shape, 50))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, uint8(158), out.Data[0])
}

func TestShapeMismatch(t *testing.T) {
	m, err := mixer.New(mixer.Config{Frames: 2, Weights: mixer.DiffWeights(), Scale: 1})
	require.NoError(t, err)

	_, err = m.Feed(chrono.FilledFrame(shape, 1))
	require.NoError(t, err)
	_, err = m.Feed(chrono.FilledFrame(chrono.Shape{Width: 1, Height: 1, Channels: 1}, 1))
	assert.ErrorIs(t, err, chrono.ErrShapeMismatch)
}

func TestReset(t *testing.T) {
	m, err := mixer.New(mixer.Config{Frames: 2, Weights: mixer.DiffWeights(), Scale: 1})
	require.NoError(t, err)

	_, err = m.Feed(chrono.FilledFrame(shape, 1))
	require.NoError(t, err)
	out, err := m.Feed(chrono.FilledFrame(shape, 2))
	require.NoError(t, err)
	assert.NotNil(t, out)

	m.Reset()
	// warm-up starts over and the shape can change
	out, err = m.Feed(chrono.FilledFrame(chrono.Shape{Width: 1, Height: 1, Channels: 3}, 1))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDelayWeights(t *testing.T) {
	weights, err := mixer.DelayWeights(6, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, -1, 0, 0, 0}, weights)

	_, err = mixer.DelayWeights(3, 0)
	assert.ErrorIs(t, err, mixer.ErrDelay)
	_, err = mixer.DelayWeights(3, 3)
	assert.ErrorIs(t, err, mixer.ErrDelay)
}

func TestDefaultScale(t *testing.T) {
	tests := []struct {
		weights  []int
		expected float64
	}{
		{weights: []int{1}, expected: 1},
		{weights: []int{1, -1}, expected: 0.5},
		{weights: []int{1, 1, 1}, expected: 0.25},
		{weights: []int{2, -2}, expected: 0.25},
		{weights: []int{0, 0}, expected: 1},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, mixer.DefaultScale(test.weights))
	}
}
