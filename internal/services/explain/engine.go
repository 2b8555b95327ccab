package explain

import (
	"math"
	"math/rand/v2"

	"CosmicOptic/internal/domain/models"
	domsvc "CosmicOptic/internal/domain/service"
)

const (
	// BaseValue is the neutral model output every explanation starts from.
	BaseValue = 0.5
	// BackgroundSeed seeds the baseline attribution noise identically on every call.
	BackgroundSeed = 42
	// BackgroundSigma is the standard deviation of the baseline noise.
	BackgroundSigma = 0.01
	// SmoothingSigma is the final Gaussian smoothing width, in samples.
	SmoothingSigma = 1.5
	// RescaleTarget is the largest magnitude after normalization.
	RescaleTarget = 0.6
	// ClipLimit bounds per-region scales and the no_planet running array.
	ClipLimit = 0.8
	// TopRegionPercentile is the |importance| percentile a region must exceed.
	TopRegionPercentile = 80.0
	// MaxTopRegions caps the regions returned.
	MaxTopRegions = 5
	// NoisyPercentile marks the noisiest points penalized for exoplanet calls.
	NoisyPercentile = 80.0
	// DegenerateDeviation is the deviation under which a curve is treated as flat.
	DegenerateDeviation = 1e-10
)

// Option configures Engine.
type Option func(*Engine)

// WithTopRegions overrides MaxTopRegions.
func WithTopRegions(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithRegionPercentile overrides TopRegionPercentile.
func WithRegionPercentile(p float64) Option {
	return func(e *Engine) {
		if p > 0 && p < 100 {
			e.percentile = p
		}
	}
}

// WithSmoothing overrides SmoothingSigma; 0 disables smoothing.
func WithSmoothing(sigma float64) Option {
	return func(e *Engine) {
		if sigma >= 0 {
			e.sigma = sigma
		}
	}
}

// Engine produces synthetic SHAP-like attributions. Positive values support
// the predicted label, negative values oppose it. Engine is stateless; the
// seeded background source is created per call.
type Engine struct {
	topK       int
	percentile float64
	sigma      float64
	seed       uint64
}

// New creates an Engine with default policy constants.
func New(opts ...Option) *Engine {
	e := &Engine{
		topK:       MaxTopRegions,
		percentile: TopRegionPercentile,
		sigma:      SmoothingSigma,
		seed:       BackgroundSeed,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Explain attributes label to the light curve.
func (e *Engine) Explain(lc models.LightCurve, label models.Label, confidence float64, regions []models.TransitRegion) models.Explanation {
	imp := e.background(lc.Len())

	if label == models.LabelExoplanet {
		supportTransits(imp, lc, confidence, regions)
	} else {
		supportRejection(imp, lc, confidence, regions)
	}
	predicted := BaseValue + mean(imp)

	imp = gaussianFilter1D(imp, e.sigma)
	rescale(imp, RescaleTarget)
	sanitize(imp, RescaleTarget)

	top := e.topRegions(imp, lc.Time)
	return models.Explanation{
		FeatureImportance:      imp,
		TopContributingRegions: top,
		ExplanationSummary:     Summarize(label, confidence, top, regions),
		BaseValue:              BaseValue,
		PredictedValue:         clampPredicted(predicted),
	}
}

// background returns the same Gaussian noise pattern for a given length on every call.
func (e *Engine) background(n int) []float64 {
	rng := rand.New(rand.NewPCG(e.seed, e.seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * BackgroundSigma
	}
	return out
}

// supportTransits: dips argue for the planet, noisy points argue against it.
func supportTransits(imp []float64, lc models.LightCurve, conf float64, regions []models.TransitRegion) {
	for rank, r := range regions {
		scale := math.Min(r.Depth*600*conf, ClipLimit) * math.Pow(0.9, float64(rank))
		addBump(imp, lc.Time, r, scale)
	}

	for i, f := range lc.Flux {
		imp[i] += (1 - math.Abs(f-1)) * 0.02 * conf
	}

	noise := absDeviation(lc.Flux, median(lc.Flux))
	threshold := percentile(noise, NoisyPercentile)
	for i, v := range noise {
		if v > threshold {
			imp[i] -= 0.05 * conf
		}
	}
}

// supportRejection: irregularity argues for no_planet, the dips the
// classifier rejected argue against it.
func supportRejection(imp []float64, lc models.LightCurve, conf float64, regions []models.TransitRegion) {
	n := len(imp)
	dev := absDeviation(lc.Flux, mean(lc.Flux))
	var maxDev float64
	for _, v := range dev {
		if v > maxDev {
			maxDev = v
		}
	}
	norm := make([]float64, n)
	if maxDev > DegenerateDeviation {
		for i, v := range dev {
			norm[i] = v / maxDev
		}
	}

	smoothed := movingAverage(norm, max(3, n/50))
	for i, v := range smoothed {
		imp[i] += v * 0.4 * conf
	}

	for _, r := range regions {
		addBump(imp, lc.Time, r, -0.2*conf)
	}

	med := median(lc.Flux)
	for i, f := range lc.Flux {
		imp[i] += (1 - math.Abs(f-med)) * 0.01 * conf
	}
	clip(imp, -ClipLimit, ClipLimit)
}

func clampPredicted(v float64) float64 {
	if math.IsNaN(v) {
		return BaseValue
	}
	return math.Max(0, math.Min(1, v))
}

var _ domsvc.Explainer = (*Engine)(nil)
