package models

import (
	"math"
	"time"
)

// SanitizeSentinel replaces infinities in values leaving the service.
const SanitizeSentinel = 1e10

// DiscoveryMethodTransit is the only discovery method reported.
const DiscoveryMethodTransit = "Transit"

// AnalysisMetadata echoes the sample parameters next to the result.
type AnalysisMetadata struct {
	OrbitalPeriod   *float64 `json:"orbital_period"`
	TransitDuration *float64 `json:"transit_duration"`
	PlanetRadius    *float64 `json:"planet_radius"`
	StarName        string   `json:"star_name"`
	DiscoveryMethod string   `json:"discovery_method"`
}

// AnalysisResult is the assembled response for one sample.
// Note: no transport concerns beyond json tags here.
type AnalysisResult struct {
	AnalysisID         string             `json:"analysis_id"`
	SampleID           string             `json:"sample_id"`
	Classification     Label              `json:"classification"`
	ConfidenceScore    float64            `json:"confidence_score"`
	ClassProbabilities map[string]float64 `json:"class_probabilities"`
	LightCurveData     []float64          `json:"light_curve_data"`
	TimePoints         []float64          `json:"time_points"`
	HighlightedRegions []TransitRegion    `json:"highlighted_regions"`
	Analysis           AnalysisMetadata   `json:"analysis"`
	SHAPExplanation    *Explanation       `json:"shap_explanation,omitempty"`
	ModelVersion       string             `json:"model_version"`
	ProcessingTimeMS   int64              `json:"processing_time_ms"`
	CreatedAt          time.Time          `json:"created_at"`
}

// Sanitize replaces every non-finite float in the result: NaN becomes 0,
// +Inf/-Inf become +/-SanitizeSentinel. It mutates r in place and returns it.
func (r *AnalysisResult) Sanitize() *AnalysisResult {
	r.ConfidenceScore = SanitizeFloat(r.ConfidenceScore)
	for k, v := range r.ClassProbabilities {
		r.ClassProbabilities[k] = SanitizeFloat(v)
	}
	sanitizeSlice(r.LightCurveData)
	sanitizeSlice(r.TimePoints)
	for i := range r.HighlightedRegions {
		r.HighlightedRegions[i].Depth = SanitizeFloat(r.HighlightedRegions[i].Depth)
	}
	r.Analysis.OrbitalPeriod = sanitizePtr(r.Analysis.OrbitalPeriod)
	r.Analysis.TransitDuration = sanitizePtr(r.Analysis.TransitDuration)
	r.Analysis.PlanetRadius = sanitizePtr(r.Analysis.PlanetRadius)

	if e := r.SHAPExplanation; e != nil {
		sanitizeSlice(e.FeatureImportance)
		for i := range e.TopContributingRegions {
			tr := &e.TopContributingRegions[i]
			tr.StartTime = SanitizeFloat(tr.StartTime)
			tr.EndTime = SanitizeFloat(tr.EndTime)
			tr.Importance = SanitizeFloat(tr.Importance)
			tr.ContributionPercent = SanitizeFloat(tr.ContributionPercent)
		}
		e.BaseValue = SanitizeFloat(e.BaseValue)
		e.PredictedValue = SanitizeFloat(e.PredictedValue)
	}
	return r
}

// SanitizeFloat maps NaN to 0 and infinities to the signed sentinel.
func SanitizeFloat(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return SanitizeSentinel
	case math.IsInf(v, -1):
		return -SanitizeSentinel
	default:
		return v
	}
}

func sanitizeSlice(xs []float64) {
	for i, v := range xs {
		xs[i] = SanitizeFloat(v)
	}
}

func sanitizePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := SanitizeFloat(*p)
	return &v
}
