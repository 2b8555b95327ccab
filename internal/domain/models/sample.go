package models

// Truth is the ground-truth label stored in the sample catalog.
type Truth string

const (
	TruthConfirmed     Truth = "confirmed"
	TruthCandidate     Truth = "candidate"
	TruthFalsePositive Truth = "false_positive"
)

// Anomaly types accepted for false positive samples.
const (
	AnomalyEclipsingBinary    = "eclipsing_binary"
	AnomalyStellarVariability = "stellar_variability"
	AnomalyNoise              = "noise"
)

// SampleParams holds the optional generation parameters of a sample.
// Nil pointers mean "not provided".
type SampleParams struct {
	PeriodDays      *float64 `yaml:"period_days" json:"period_days,omitempty" validate:"omitempty,gt=0"`
	TransitDepth    *float64 `yaml:"transit_depth" json:"transit_depth,omitempty" validate:"omitempty,gt=0,lt=1"`
	TransitDuration *float64 `yaml:"transit_duration" json:"transit_duration,omitempty" validate:"omitempty,gt=0"`
	PlanetRadius    *float64 `yaml:"planet_radius" json:"planet_radius,omitempty" validate:"omitempty,gt=0"`
	AnomalyType     string   `yaml:"anomaly_type" json:"anomaly_type,omitempty" validate:"omitempty,oneof=eclipsing_binary stellar_variability noise"`
}

// Sample is a read-only catalog entry.
type Sample struct {
	ID          string       `yaml:"id" json:"id" validate:"required"`
	Name        string       `yaml:"name" json:"name" validate:"required"`
	Description string       `yaml:"description" json:"description"`
	Truth       Truth        `yaml:"truth" json:"truth" validate:"required,oneof=confirmed candidate false_positive"`
	Params      SampleParams `yaml:"params" json:"params"`
}

// SampleSummary is the public view of a sample; it never carries the truth label.
type SampleSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Summary strips the ground truth and parameters.
func (s Sample) Summary() SampleSummary {
	return SampleSummary{ID: s.ID, Name: s.Name, Description: s.Description}
}

// Float returns a pointer to v, handy for building SampleParams.
func Float(v float64) *float64 { return &v }

// FloatOr dereferences p or returns def.
func FloatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
