package repository

import (
	"context"
	"fmt"
	"os"

	"CosmicOptic/internal/domain/models"
	domrepo "CosmicOptic/internal/domain/repository"

	"gopkg.in/yaml.v3"
)

// FileCatalogSource reads samples from a YAML (or JSON) document of the form
// {samples: [...]}.
type FileCatalogSource struct {
	path string
}

func NewFileCatalogSource(path string) *FileCatalogSource {
	return &FileCatalogSource{path: path}
}

func (s *FileCatalogSource) Name() string { return "file:" + s.path }

func (s *FileCatalogSource) Load(_ context.Context) ([]models.Sample, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var doc struct {
		Samples []models.Sample `yaml:"samples"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return doc.Samples, nil
}

var _ domrepo.CatalogSource = (*FileCatalogSource)(nil)
