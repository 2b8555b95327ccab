package explain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReflectIndex(t *testing.T) {
	tests := map[int]int{-2: 1, -1: 0, 0: 0, 3: 3, 4: 3, 5: 2, 8: 0, 9: 1}
	for in, want := range tests {
		assert.Equal(t, want, reflectIndex(in, 4), "reflectIndex(%d, 4)", in)
	}
}

func TestGaussianFilter1D(t *testing.T) {
	flat := []float64{2, 2, 2, 2, 2}
	out := gaussianFilter1D(flat, 1.5)
	for _, v := range out {
		assert.InDelta(t, 2, v, 1e-12)
	}

	spike := make([]float64, 21)
	spike[10] = 1
	out = gaussianFilter1D(spike, 1)
	var sum float64
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-9, "mass is preserved away from the edges")
	assert.Greater(t, out[10], out[9])
	assert.InDelta(t, out[9], out[11], 1e-12)

	assert.Equal(t, spike, gaussianFilter1D(spike, 0))
}

func TestMovingAverage(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	assert.InDeltaSlice(t, []float64{1, 2, 3, 4, 3}, movingAverage(xs, 3), 1e-12)
	assert.InDeltaSlice(t, []float64{0.75, 1.5, 2.5, 3.5, 3}, movingAverage(xs, 4), 1e-12)
	assert.Empty(t, movingAverage(nil, 3))
}

func TestRescale(t *testing.T) {
	xs := []float64{1, -2, 0.5}
	rescale(xs, 0.6)
	assert.InDeltaSlice(t, []float64{0.3, -0.6, 0.15}, xs, 1e-12)

	zeros := []float64{0, 0}
	rescale(zeros, 0.6)
	assert.Equal(t, []float64{0, 0}, zeros)
}

func TestSanitizeAndClip(t *testing.T) {
	xs := []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0.2}
	sanitize(xs, 0.6)
	assert.Equal(t, []float64{0, 0.6, -0.6, 0.2}, xs)

	ys := []float64{-2, 0.5, 2}
	clip(ys, -0.8, 0.8)
	assert.Equal(t, []float64{-0.8, 0.5, 0.8}, ys)
}

func TestStatsHelpersOnEmpty(t *testing.T) {
	assert.True(t, math.IsNaN(mean(nil)))
	assert.True(t, math.IsNaN(median(nil)))
	assert.True(t, math.IsInf(percentile(nil, 80), 1))
}
