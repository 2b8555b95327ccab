package service

import (
	"CosmicOptic/internal/domain/models"
)

// These interfaces are the swap boundary for a real trained model: replacing
// the synthetic implementations must not change their inputs or outputs.

// LightCurveGenerator synthesizes light curves per truth family.
type LightCurveGenerator interface {
	ConfirmedPlanet(p models.TransitParams) (models.LightCurve, []models.TransitRegion)
	FalsePositive(numPoints int, anomalyType string) (models.LightCurve, []models.TransitRegion)
	Candidate(numPoints int) (models.LightCurve, []models.TransitRegion)
}

// Classifier resolves a binary classification for a catalog sample.
type Classifier interface {
	Classify(sampleID string, truth models.Truth) (models.Classification, error)
}

// Explainer attributes a classification to regions of the light curve.
type Explainer interface {
	Explain(lc models.LightCurve, label models.Label, confidence float64, regions []models.TransitRegion) models.Explanation
}
