package classify

import (
	"fmt"

	"CosmicOptic/internal/domain/models"
	domsvc "CosmicOptic/internal/domain/service"

	"github.com/cespare/xxhash/v2"
)

// CandidatePlanetShare is the percentage of candidate hashes resolved as exoplanet.
const CandidatePlanetShare = 70

// Resolver maps ground truth plus an identifier hash to a classification.
// The hash is xxhash64 of the identifier, so outcomes are stable across runs
// and processes; exact numbers differ from any other hash choice.
type Resolver struct {
	hash func(string) uint64
}

// NewResolver creates a Resolver using xxhash.
func NewResolver() *Resolver {
	return &Resolver{hash: xxhash.Sum64String}
}

// Classify resolves label and confidence for a sample.
func (r *Resolver) Classify(sampleID string, truth models.Truth) (models.Classification, error) {
	h := r.hash(sampleID)

	var (
		label models.Label
		conf  float64
	)
	switch truth {
	case models.TruthConfirmed:
		label = models.LabelExoplanet
		conf = 0.90 + float64(h%8)/100
	case models.TruthFalsePositive:
		label = models.LabelNoPlanet
		conf = 0.85 + float64(h%12)/100
	case models.TruthCandidate:
		c := h % 100
		if c < CandidatePlanetShare {
			label = models.LabelExoplanet
			conf = 0.60 + float64(c%20)/100
		} else {
			label = models.LabelNoPlanet
			conf = 0.55 + float64(c%15)/100
		}
	default:
		return models.Classification{}, fmt.Errorf("unknown truth label %q", truth)
	}

	return models.Classification{
		Label:         label,
		Confidence:    conf,
		Probabilities: Probabilities(label, conf),
	}, nil
}

// Probabilities gives the predicted label conf and the other label 1-conf.
func Probabilities(label models.Label, conf float64) map[models.Label]float64 {
	return map[models.Label]float64{
		label:         conf,
		label.Other(): 1 - conf,
	}
}

var _ domsvc.Classifier = (*Resolver)(nil)
