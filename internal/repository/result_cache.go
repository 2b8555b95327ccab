package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CosmicOptic/internal/domain/models"
	domrepo "CosmicOptic/internal/domain/repository"
	"CosmicOptic/pkg/cache"
)

const resultKeyPrefix = "analysis"

// CachedResults stores assembled analyses in any pkg/cache backend.
type CachedResults struct {
	c       cache.Service
	version string
}

// NewCachedResults namespaces keys by model version so a version bump never
// serves stale results.
func NewCachedResults(c cache.Service, modelVersion string) *CachedResults {
	return &CachedResults{c: c, version: modelVersion}
}

func (r *CachedResults) key(sampleID string) string {
	return cache.GenerateKeyWithParams(resultKeyPrefix, r.version, sampleID)
}

func (r *CachedResults) Get(ctx context.Context, sampleID string) (*models.AnalysisResult, bool, error) {
	var out models.AnalysisResult
	if err := r.c.Get(ctx, r.key(sampleID), &out); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get %s: %w", sampleID, err)
	}
	return &out, true, nil
}

func (r *CachedResults) Set(ctx context.Context, sampleID string, res *models.AnalysisResult, ttl time.Duration) error {
	if res == nil {
		return nil
	}
	if err := r.c.Set(ctx, r.key(sampleID), res, ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", sampleID, err)
	}
	return nil
}

var _ domrepo.ResultCache = (*CachedResults)(nil)
