package models

// Label is the binary classifier outcome.
type Label string

const (
	LabelExoplanet Label = "exoplanet"
	LabelNoPlanet  Label = "no_planet"
)

// Other returns the opposite label.
func (l Label) Other() Label {
	if l == LabelExoplanet {
		return LabelNoPlanet
	}
	return LabelExoplanet
}

// Classification is the resolved label with its confidence and
// two-way probability mapping (values sum to 1).
type Classification struct {
	Label         Label
	Confidence    float64
	Probabilities map[Label]float64
}

// TopRegion is a time span whose attribution stood out.
type TopRegion struct {
	StartTime           float64 `json:"start_time"`
	EndTime             float64 `json:"end_time"`
	Importance          float64 `json:"importance"`
	ContributionPercent float64 `json:"contribution_percent"`
}

// Explanation is a SHAP-like attribution over a light curve.
// FeatureImportance is aligned index-for-index with the curve it explains.
type Explanation struct {
	FeatureImportance      []float64   `json:"feature_importance"`
	TopContributingRegions []TopRegion `json:"top_contributing_regions"`
	ExplanationSummary     string      `json:"explanation_summary"`
	BaseValue              float64     `json:"base_value"`
	PredictedValue         float64     `json:"predicted_value"`
}
