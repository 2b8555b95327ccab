package lightcurve

import (
	"math"
	"testing"

	"CosmicOptic/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitDepth(t *testing.T) {
	// Earth around the Sun is roughly 84 ppm.
	assert.InDelta(t, 8.38e-5, TransitDepth(1, 1), 1e-7)
	assert.InDelta(t, TransitDepth(2, 1), 4*TransitDepth(1, 1), 1e-15)
	assert.InDelta(t, TransitDepth(1, 2), TransitDepth(1, 1)/4, 1e-15)
}

func TestVisibleDepth(t *testing.T) {
	earth := TransitDepth(1, 1)
	assert.InDelta(t, earth*VisibilityGain, VisibleDepth(1), 1e-12, "shallow dips are amplified")

	jupiter := TransitDepth(11.2, 1)
	require.Greater(t, jupiter, VisibilityThreshold)
	assert.Equal(t, jupiter, VisibleDepth(11.2), "deep dips are left alone")
}

func assertGrid(t *testing.T, lc models.LightCurve, n int) {
	t.Helper()
	require.Len(t, lc.Time, n)
	require.Len(t, lc.Flux, n)
	assert.Equal(t, 0.0, lc.Time[0])
	assert.Less(t, lc.Time[n-1], ObservationDays)
	for i := 1; i < n; i++ {
		if lc.Time[i] <= lc.Time[i-1] {
			t.Fatalf("time not strictly increasing at %d", i)
		}
	}
	for i, f := range lc.Flux {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("non-finite flux at %d", i)
		}
	}
}

func assertRegions(t *testing.T, regions []models.TransitRegion, n, gap int) {
	t.Helper()
	for i, r := range regions {
		assert.LessOrEqual(t, r.StartIndex, r.EndIndex)
		assert.GreaterOrEqual(t, r.StartIndex, 0)
		assert.Less(t, r.EndIndex, n)
		assert.Greater(t, r.Depth, 0.0)
		if i > 0 {
			assert.Greater(t, r.StartIndex-regions[i-1].EndIndex, gap, "regions closer than the merge gap must merge")
		}
	}
}

func radius(v float64) *float64 { return &v }

func TestConfirmedPlanet_ShortPeriod(t *testing.T) {
	g := New(WithSeed(1))
	lc, regions := g.ConfirmedPlanet(models.TransitParams{
		PeriodDays:           6.1,
		TransitDurationHours: 0.9,
		NumPoints:            1000,
		PlanetRadiusEarth:    radius(0.92),
	})
	assertGrid(t, lc, 1000)
	assertRegions(t, regions, 1000, MergeGap)
	assert.Len(t, regions, 5, "mid-transits at 3.05 + k*6.1 days")

	depth := VisibleDepth(0.92)
	for _, r := range regions {
		assert.LessOrEqual(t, r.Depth, depth)
		assert.GreaterOrEqual(t, r.Depth, 0.8*depth)
	}
}

func TestConfirmedPlanet_LongPeriodIsFolded(t *testing.T) {
	params := models.TransitParams{
		PeriodDays:           130,
		TransitDurationHours: 2,
		NumPoints:            1000,
		PlanetRadiusEarth:    radius(1.1),
	}

	_, regions := New(WithSeed(1)).ConfirmedPlanet(params)
	require.Len(t, regions, 2, "folded to a 15 day period")
	assert.InDelta(t, 250, regions[0].Center(), 3)
	assert.InDelta(t, 750, regions[1].Center(), 3)

	_, regions = New(WithSeed(1), WithPeriodFold(0)).ConfirmedPlanet(params)
	assert.Empty(t, regions, "without folding the first transit lies outside the window")
}

func TestConfirmedPlanet_DepthWithoutRadius(t *testing.T) {
	_, regions := New(WithSeed(1)).ConfirmedPlanet(models.TransitParams{
		PeriodDays:           10,
		TransitDepth:         0.02,
		TransitDurationHours: 3,
		NumPoints:            1000,
	})
	require.NotEmpty(t, regions)
	for _, r := range regions {
		assert.LessOrEqual(t, r.Depth, 0.02)
	}
}

func TestConfirmedPlanet_DegenerateInputs(t *testing.T) {
	g := New(WithSeed(1))

	lc, regions := g.ConfirmedPlanet(models.TransitParams{PeriodDays: 10, TransitDepth: 0.01, NumPoints: 500})
	assertGrid(t, lc, 500)
	assert.Empty(t, regions, "zero duration has no transit")
	assert.NotNil(t, regions)

	lc, regions = g.ConfirmedPlanet(models.TransitParams{PeriodDays: 0, TransitDepth: 0.01, TransitDurationHours: 3})
	assertGrid(t, lc, DefaultNumPoints)
	assert.Empty(t, regions)
}

func TestConfirmedPlanet_HalfWidthCap(t *testing.T) {
	// duration far longer than the period would cover the whole phase
	_, regions := New(WithSeed(1)).ConfirmedPlanet(models.TransitParams{
		PeriodDays:           2,
		TransitDepth:         0.01,
		TransitDurationHours: 100,
		NumPoints:            1000,
	})
	require.NotEmpty(t, regions)
	// 2*MaxHalfWidth*period days over a 0.03 day step
	window := 2 * MaxHalfWidth * 2 / 0.03
	maxSpan := int(window) + 1
	for _, r := range regions {
		assert.LessOrEqual(t, r.Span(), maxSpan)
	}
}

func TestMergeGap(t *testing.T) {
	params := models.TransitParams{PeriodDays: 1, TransitDepth: 0.01, TransitDurationHours: 1, NumPoints: 1000}

	_, merged := New(WithSeed(1), WithMergeGap(40)).ConfirmedPlanet(params)
	_, split := New(WithSeed(1), WithMergeGap(1)).ConfirmedPlanet(params)
	assert.Len(t, merged, 1, "transits 33 samples apart merge under a 40 sample gap")
	assert.Len(t, split, 30)
	assertRegions(t, split, 1000, 1)
}

func TestFalsePositive(t *testing.T) {
	g := New(WithSeed(2))

	lc, regions := g.FalsePositive(1000, models.AnomalyEclipsingBinary)
	assertGrid(t, lc, 1000)
	assert.Empty(t, regions)
	assert.NotNil(t, regions)
	for _, day := range []int{7, 14, 21} {
		i := int(float64(day) / ObservationDays * 1000)
		assert.Less(t, lc.Flux[i], 0.96, "primary eclipse at day %d", day)
	}

	lc, _ = g.FalsePositive(1000, models.AnomalyStellarVariability)
	assertGrid(t, lc, 1000)
	hi, lo := math.Inf(-1), math.Inf(1)
	for _, f := range lc.Flux {
		hi, lo = math.Max(hi, f), math.Min(lo, f)
	}
	assert.Greater(t, hi-lo, 0.035, "0.02 amplitude sinusoid")

	lc, regions = g.FalsePositive(0, "unknown")
	assertGrid(t, lc, DefaultNumPoints)
	assert.Empty(t, regions)
}

func TestCandidate(t *testing.T) {
	lc, regions := New(WithSeed(3)).Candidate(1000)
	assertGrid(t, lc, 1000)
	assertRegions(t, regions, 1000, MergeGap)
	assert.Len(t, regions, 6, "mid-transits at 2.6 + k*5.2 days")
	for _, r := range regions {
		assert.Equal(t, 0.005, r.Depth)
	}
}

func TestSeedIsReproducible(t *testing.T) {
	a, _ := New(WithSeed(9)).FalsePositive(300, models.AnomalyNoise)
	b, _ := New(WithSeed(9)).FalsePositive(300, models.AnomalyNoise)
	c, _ := New(WithSeed(10)).FalsePositive(300, models.AnomalyNoise)
	assert.Equal(t, a.Flux, b.Flux)
	assert.NotEqual(t, a.Flux, c.Flux)
}
