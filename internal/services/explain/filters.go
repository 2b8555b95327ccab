package explain

import (
	"math"

	"CosmicOptic/internal/domain/models"

	"github.com/montanaflynn/stats"
)

const (
	// GaussianTruncate is the kernel radius in standard deviations.
	GaussianTruncate = 4.0
	// BumpWidthFactor widens a region's index span before it becomes a Gaussian width.
	BumpWidthFactor = 1.5
	// BumpSigmaFactor converts the widened span to the Gaussian sigma (in time units).
	BumpSigmaFactor = 0.15
)

// gaussianFilter1D smooths xs with a normalized Gaussian kernel of the given
// sigma (in samples), using half-sample symmetric reflection at the edges.
func gaussianFilter1D(xs []float64, sigma float64) []float64 {
	n := len(xs)
	if n == 0 || sigma <= 0 {
		return xs
	}
	radius := int(GaussianTruncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for k := -radius; k <= radius; k++ {
		w := math.Exp(-0.5 * float64(k*k) / (sigma * sigma))
		kernel[k+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	out := make([]float64, n)
	for i := range xs {
		var acc float64
		for k := -radius; k <= radius; k++ {
			acc += kernel[k+radius] * xs[reflectIndex(i+k, n)]
		}
		out[i] = acc
	}
	return out
}

// reflectIndex maps j into [0, n) by mirroring: (d c b a | a b c d | d c b a).
func reflectIndex(j, n int) int {
	period := 2 * n
	j %= period
	if j < 0 {
		j += period
	}
	if j >= n {
		j = period - 1 - j
	}
	return j
}

// movingAverage is a box filter of width w with zero padding, aligned like
// numpy's convolve(mode="same"): out[i] averages xs[i-w/2 .. i+(w-1)/2].
func movingAverage(xs []float64, w int) []float64 {
	n := len(xs)
	out := make([]float64, n)
	if n == 0 || w <= 0 {
		return out
	}
	prefix := make([]float64, n+1)
	for i, v := range xs {
		prefix[i+1] = prefix[i] + v
	}
	left, right := w/2, (w-1)/2
	for i := range out {
		lo := max(0, i-left)
		hi := min(n-1, i+right)
		out[i] = (prefix[hi+1] - prefix[lo]) / float64(w)
	}
	return out
}

// addBump adds scale times a Gaussian centered on the region's midpoint time.
// A zero-span region uses one sample spacing as its width.
func addBump(dst, times []float64, r models.TransitRegion, scale float64) {
	n := len(times)
	if n == 0 {
		return
	}
	center := times[clampIndex(r.Center(), n)]
	sigma := float64(r.Span()) * BumpWidthFactor * BumpSigmaFactor
	if sigma <= 0 {
		sigma = sampleSpacing(times)
	}
	for i, t := range times {
		d := (t - center) / sigma
		dst[i] += scale * math.Exp(-0.5*d*d)
	}
}

func sampleSpacing(times []float64) float64 {
	if len(times) > 1 && times[1] > times[0] {
		return times[1] - times[0]
	}
	return 1
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// rescale scales xs so its largest finite magnitude equals target.
// All-zero (or all non-finite) input is left untouched.
func rescale(xs []float64, target float64) {
	var maxAbs float64
	for _, v := range xs {
		if a := math.Abs(v); !math.IsInf(a, 0) && a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return
	}
	for i := range xs {
		xs[i] = xs[i] / maxAbs * target
	}
}

// sanitize replaces NaN with 0 and +/-Inf with +/-limit.
func sanitize(xs []float64, limit float64) {
	for i, v := range xs {
		switch {
		case math.IsNaN(v):
			xs[i] = 0
		case math.IsInf(v, 1):
			xs[i] = limit
		case math.IsInf(v, -1):
			xs[i] = -limit
		}
	}
}

func clip(xs []float64, lo, hi float64) {
	for i, v := range xs {
		xs[i] = math.Max(lo, math.Min(hi, v))
	}
}

func mean(xs []float64) float64 {
	m, err := stats.Mean(xs)
	if err != nil {
		return math.NaN()
	}
	return m
}

func median(xs []float64) float64 {
	m, err := stats.Median(xs)
	if err != nil {
		return math.NaN()
	}
	return m
}

// percentile returns +Inf when xs is empty so nothing exceeds it.
func percentile(xs []float64, p float64) float64 {
	v, err := stats.Percentile(xs, p)
	if err != nil {
		return math.Inf(1)
	}
	return v
}

func absDeviation(xs []float64, ref float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = math.Abs(v - ref)
	}
	return out
}
