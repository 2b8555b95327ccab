package lightcurve

import (
	"math"
	"math/rand/v2"

	"CosmicOptic/internal/domain/models"
	domsvc "CosmicOptic/internal/domain/service"
)

const (
	// ObservationDays is the length of every generated window.
	ObservationDays = 30.0
	// DefaultNumPoints is used when a caller passes a non-positive size.
	DefaultNumPoints = 1000
	// MergeGap is the number of samples under which adjacent dips merge into one region.
	MergeGap = 10
	// MaxHalfWidth caps the transit half-width in normalized phase.
	MaxHalfWidth = 0.04
	// LongPeriodFold is the fraction of the window a too-long period is folded to.
	LongPeriodFold = 0.5
)

// Option configures Generator.
type Option func(*Generator)

// WithSeed makes every call start from the same random state.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.newRand = func() *rand.Rand { return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
	}
}

// WithMergeGap overrides MergeGap.
func WithMergeGap(n int) Option {
	return func(g *Generator) {
		if n >= 0 {
			g.mergeGap = n
		}
	}
}

// WithPeriodFold overrides LongPeriodFold; 0 disables folding.
func WithPeriodFold(fraction float64) Option {
	return func(g *Generator) {
		if fraction >= 0 && fraction < 1 {
			g.fold = fraction
		}
	}
}

// Generator synthesizes light curves. It holds no mutable state; each call
// draws from its own random source, so it is safe for concurrent use.
type Generator struct {
	newRand  func() *rand.Rand
	mergeGap int
	fold     float64
}

// New creates a Generator with an unseeded noise source per call.
func New(opts ...Option) *Generator {
	g := &Generator{
		newRand:  func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) },
		mergeGap: MergeGap,
		fold:     LongPeriodFold,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ConfirmedPlanet builds a periodic transit signal over the observation window.
func (g *Generator) ConfirmedPlanet(p models.TransitParams) (models.LightCurve, []models.TransitRegion) {
	rng := g.newRand()
	lc := baseline(p.NumPoints)
	addNoise(rng, lc.Flux, 0.0005)

	depth := p.TransitDepth
	if p.PlanetRadiusEarth != nil {
		depth = VisibleDepth(*p.PlanetRadiusEarth)
	}

	period := g.effectivePeriod(p.PeriodDays)
	if period <= 0 || p.TransitDurationHours <= 0 {
		return lc, []models.TransitRegion{}
	}
	hw := math.Min(MaxHalfWidth, p.TransitDurationHours/(period*24))

	regions := []models.TransitRegion{}
	for i, t := range lc.Time {
		phase := math.Mod(t, period) / period
		if phase < 0.5-hw || phase >= 0.5+hw {
			continue
		}
		rel := (phase - 0.5) / hw
		limb := 1 - 0.1*(1-rel*rel)
		d := depth * limb * (1 - 0.2*math.Abs(rel))
		lc.Flux[i] -= d
		regions = g.appendDip(regions, i, d)
	}
	return lc, regions
}

// FalsePositive builds a non-planetary signal. No transit regions are recorded.
// Unknown anomaly types fall back to plain noise.
func (g *Generator) FalsePositive(numPoints int, anomalyType string) (models.LightCurve, []models.TransitRegion) {
	rng := g.newRand()
	lc := baseline(numPoints)

	switch anomalyType {
	case models.AnomalyEclipsingBinary:
		addNoise(rng, lc.Flux, 0.001)
		for _, center := range []float64{7, 14, 21} {
			for i, t := range lc.Time {
				if d := math.Abs(t - center); d < 0.5 {
					lc.Flux[i] -= 0.05 * (1 - d/0.5)
				}
			}
		}
	case models.AnomalyStellarVariability:
		for i, t := range lc.Time {
			lc.Flux[i] += 0.02 * math.Sin(2*math.Pi*t/10)
		}
		addNoise(rng, lc.Flux, 0.003)
	default:
		addNoise(rng, lc.Flux, 0.005)
	}
	return lc, []models.TransitRegion{}
}

// Candidate builds a noisy curve with a shallow 5.2-day dip.
func (g *Generator) Candidate(numPoints int) (models.LightCurve, []models.TransitRegion) {
	const (
		period = 5.2
		depth  = 0.005
	)
	rng := g.newRand()
	lc := baseline(numPoints)
	addNoise(rng, lc.Flux, 0.003)

	regions := []models.TransitRegion{}
	for i, t := range lc.Time {
		phase := math.Mod(t, period) / period
		if phase > 0.48 && phase < 0.52 {
			lc.Flux[i] -= depth
			regions = g.appendDip(regions, i, depth)
		}
	}
	return lc, regions
}

// effectivePeriod folds periods whose first mid-transit (phase 0.5) falls
// outside the window, so at least one dip is visible.
func (g *Generator) effectivePeriod(period float64) float64 {
	if g.fold > 0 && period/2 >= ObservationDays {
		return ObservationDays * g.fold
	}
	return period
}

func (g *Generator) appendDip(regions []models.TransitRegion, i int, depth float64) []models.TransitRegion {
	if n := len(regions); n > 0 && regions[n-1].EndIndex >= i-g.mergeGap {
		last := &regions[n-1]
		last.EndIndex = i
		if depth > last.Depth {
			last.Depth = depth
		}
		return regions
	}
	return append(regions, models.TransitRegion{StartIndex: i, EndIndex: i, Depth: depth})
}

// baseline returns a flat curve of n samples on [0, ObservationDays).
func baseline(n int) models.LightCurve {
	if n <= 0 {
		n = DefaultNumPoints
	}
	lc := models.LightCurve{Time: make([]float64, n), Flux: make([]float64, n)}
	step := ObservationDays / float64(n)
	for i := range lc.Time {
		lc.Time[i] = float64(i) * step
		lc.Flux[i] = 1
	}
	return lc
}

func addNoise(rng *rand.Rand, flux []float64, sigma float64) {
	for i := range flux {
		flux[i] += rng.NormFloat64() * sigma
	}
}

var _ domsvc.LightCurveGenerator = (*Generator)(nil)
