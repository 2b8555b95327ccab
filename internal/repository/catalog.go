package repository

import (
	"context"
	"fmt"
	"sort"

	"CosmicOptic/internal/domain/models"
	domrepo "CosmicOptic/internal/domain/repository"

	"github.com/go-playground/validator/v10"
)

// MemoryCatalog is an immutable in-memory SampleCatalog. It is filled once
// and only read afterwards, so concurrent readers need no locking.
type MemoryCatalog struct {
	byID  map[string]models.Sample
	order []string
}

// NewMemoryCatalog validates samples and indexes them by id.
func NewMemoryCatalog(samples []models.Sample) (*MemoryCatalog, error) {
	v := validator.New()
	c := &MemoryCatalog{
		byID:  make(map[string]models.Sample, len(samples)),
		order: make([]string, 0, len(samples)),
	}
	for i, s := range samples {
		if err := v.Struct(s); err != nil {
			return nil, fmt.Errorf("sample #%d (%s): %w", i, s.ID, err)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate sample id %q", s.ID)
		}
		c.byID[s.ID] = s
		c.order = append(c.order, s.ID)
	}
	return c, nil
}

// LoadCatalog reads every sample from src and builds a MemoryCatalog.
func LoadCatalog(ctx context.Context, src domrepo.CatalogSource) (*MemoryCatalog, error) {
	samples, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog from %s: %w", src.Name(), err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", src.Name())
	}
	return NewMemoryCatalog(samples)
}

func (c *MemoryCatalog) Get(_ context.Context, id string) (models.Sample, error) {
	s, ok := c.byID[id]
	if !ok {
		return models.Sample{}, fmt.Errorf("%w: %s", domrepo.ErrSampleNotFound, id)
	}
	return s, nil
}

// List returns samples in load order.
func (c *MemoryCatalog) List(_ context.Context) ([]models.Sample, error) {
	out := make([]models.Sample, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out, nil
}

// IDs returns the sorted sample identifiers.
func (c *MemoryCatalog) IDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	sort.Strings(ids)
	return ids
}

var _ domrepo.SampleCatalog = (*MemoryCatalog)(nil)
