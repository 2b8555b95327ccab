package lightcurve

const (
	// EarthRadiusKm and SunRadiusKm are the fixed radii used for depth conversion.
	EarthRadiusKm = 6371.0
	SunRadiusKm   = 696000.0

	// VisibilityThreshold is the depth below which a demo dip is amplified.
	VisibilityThreshold = 0.0005
	// VisibilityGain is applied to depths under VisibilityThreshold.
	VisibilityGain = 100.0
)

// TransitDepth converts planet radius (Earth radii) and star radius (Solar radii)
// to a fractional dip: (Rp/Rs)^2.
func TransitDepth(planetRadiusEarth, starRadiusSolar float64) float64 {
	rp := planetRadiusEarth * EarthRadiusKm
	rs := starRadiusSolar * SunRadiusKm
	ratio := rp / rs
	return ratio * ratio
}

// VisibleDepth computes TransitDepth around a Sun-like star and, for dips too
// shallow to see in a 1000-point plot, multiplies by VisibilityGain.
// This is a presentation concession for the demo, not a physical correction.
func VisibleDepth(planetRadiusEarth float64) float64 {
	d := TransitDepth(planetRadiusEarth, 1.0)
	if d < VisibilityThreshold {
		d *= VisibilityGain
	}
	return d
}
