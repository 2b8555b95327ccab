package repository

import (
	"context"
	"errors"
	"time"

	"CosmicOptic/internal/domain/models"
)

// ErrSampleNotFound is returned when an identifier matches no catalog entry.
var ErrSampleNotFound = errors.New("sample not found")

// SampleCatalog is the read-only sample lookup, loaded once at start.
type SampleCatalog interface {
	Get(ctx context.Context, id string) (models.Sample, error)
	List(ctx context.Context) ([]models.Sample, error)
}

// CatalogSource loads every sample from a backing store.
type CatalogSource interface {
	Load(ctx context.Context) ([]models.Sample, error)
	Name() string
}

// ResultCache stores assembled results for a short TTL.
type ResultCache interface {
	Get(ctx context.Context, sampleID string) (*models.AnalysisResult, bool, error)
	Set(ctx context.Context, sampleID string, r *models.AnalysisResult, ttl time.Duration) error
}

// ResultPublisher emits prediction outcomes to a message bus.
type ResultPublisher interface {
	Publish(ctx context.Context, o *models.PredictOutcome) error
	Close() error
}

type Metrics interface {
	RecordPrediction(truth, label string, confidence float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
