package models

// LightCurve is an evenly sampled brightness series. Time is in days,
// Flux is dimensionless and nominally centered on 1.0.
type LightCurve struct {
	Time []float64
	Flux []float64
}

// Len returns the number of samples.
func (lc LightCurve) Len() int { return len(lc.Time) }

// TransitRegion is a contiguous index range of depressed flux.
// Depth is the maximum depth observed inside the range.
type TransitRegion struct {
	StartIndex int     `json:"start_index"`
	EndIndex   int     `json:"end_index"`
	Depth      float64 `json:"depth"`
}

// Span returns the number of index steps covered by the region.
func (r TransitRegion) Span() int { return r.EndIndex - r.StartIndex }

// Center returns the midpoint index (floor).
func (r TransitRegion) Center() int { return (r.StartIndex + r.EndIndex) / 2 }

// TransitParams parameterizes a confirmed-planet curve. When PlanetRadiusEarth
// is set, the depth is derived from it and TransitDepth is ignored.
type TransitParams struct {
	PeriodDays           float64
	TransitDepth         float64
	TransitDurationHours float64
	NumPoints            int
	PlanetRadiusEarth    *float64
}
