package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFloat(t *testing.T) {
	assert.Equal(t, 0.0, SanitizeFloat(math.NaN()))
	assert.Equal(t, SanitizeSentinel, SanitizeFloat(math.Inf(1)))
	assert.Equal(t, -SanitizeSentinel, SanitizeFloat(math.Inf(-1)))
	assert.Equal(t, 0.25, SanitizeFloat(0.25))
}

func TestAnalysisResult_Sanitize(t *testing.T) {
	period := math.Inf(1)
	r := &AnalysisResult{
		ConfidenceScore:    math.NaN(),
		ClassProbabilities: map[string]float64{"exoplanet": math.NaN(), "no_planet": 1},
		LightCurveData:     []float64{1, math.Inf(-1)},
		TimePoints:         []float64{0, 0.03},
		HighlightedRegions: []TransitRegion{{StartIndex: 1, EndIndex: 2, Depth: math.NaN()}},
		Analysis:           AnalysisMetadata{OrbitalPeriod: &period},
		SHAPExplanation: &Explanation{
			FeatureImportance:      []float64{math.NaN(), 0.6},
			TopContributingRegions: []TopRegion{{Importance: math.Inf(1)}},
			PredictedValue:         math.NaN(),
		},
	}

	r.Sanitize()
	assert.Equal(t, 0.0, r.ConfidenceScore)
	assert.Equal(t, 0.0, r.ClassProbabilities["exoplanet"])
	assert.Equal(t, []float64{1, -SanitizeSentinel}, r.LightCurveData)
	assert.Equal(t, 0.0, r.HighlightedRegions[0].Depth)
	require.NotNil(t, r.Analysis.OrbitalPeriod)
	assert.Equal(t, SanitizeSentinel, *r.Analysis.OrbitalPeriod)
	assert.True(t, math.IsInf(period, 1), "caller's value is not mutated through the pointer")
	assert.Nil(t, r.Analysis.PlanetRadius)
	assert.Equal(t, []float64{0, 0.6}, r.SHAPExplanation.FeatureImportance)
	assert.Equal(t, SanitizeSentinel, r.SHAPExplanation.TopContributingRegions[0].Importance)

	// every float is finite, so encoding succeeds
	_, err := json.Marshal(r)
	assert.NoError(t, err)
}

func TestLabelOther(t *testing.T) {
	assert.Equal(t, LabelNoPlanet, LabelExoplanet.Other())
	assert.Equal(t, LabelExoplanet, LabelNoPlanet.Other())
}
