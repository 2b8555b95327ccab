package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"CosmicOptic/internal/domain/models"
	domrepo "CosmicOptic/internal/domain/repository"
	domsvc "CosmicOptic/internal/domain/service"
	"CosmicOptic/internal/services/lightcurve"
	applogger "CosmicOptic/pkg/logger"

	"github.com/google/uuid"
)

// Fallbacks for confirmed samples that omit generation parameters.
const (
	DefaultPeriodDays   = 10.0
	DefaultTransitDepth = 0.01
	DefaultTransitHours = 3.0
)

const DefaultModelVersion = "CosmicNet-v1.0"

// PredictionService assembles a full analysis for a catalog sample.
type PredictionService struct {
	catalog  domrepo.SampleCatalog
	gen      domsvc.LightCurveGenerator
	cls      domsvc.Classifier
	exp      domsvc.Explainer
	metrics  domrepo.Metrics
	cache    domrepo.ResultCache
	cacheTTL time.Duration

	numPoints    int
	modelVersion string
	l            *applogger.Logger
	now          func() time.Time
	newID        func() string
}

type PredictionOption func(*PredictionService)

// WithResultCache enables caching of assembled results for ttl.
func WithResultCache(c domrepo.ResultCache, ttl time.Duration) PredictionOption {
	return func(s *PredictionService) {
		if c != nil && ttl > 0 {
			s.cache, s.cacheTTL = c, ttl
		}
	}
}

func WithNumPoints(n int) PredictionOption {
	return func(s *PredictionService) {
		if n > 0 {
			s.numPoints = n
		}
	}
}

func WithModelVersion(v string) PredictionOption {
	return func(s *PredictionService) {
		if v != "" {
			s.modelVersion = v
		}
	}
}

func WithLogger(l *applogger.Logger) PredictionOption {
	return func(s *PredictionService) {
		if l != nil {
			s.l = l
		}
	}
}

// WithClock replaces time.Now; used by tests.
func WithClock(now func() time.Time) PredictionOption {
	return func(s *PredictionService) { s.now = now }
}

func NewPredictionService(
	catalog domrepo.SampleCatalog,
	gen domsvc.LightCurveGenerator,
	cls domsvc.Classifier,
	exp domsvc.Explainer,
	metrics domrepo.Metrics,
	opts ...PredictionOption,
) *PredictionService {
	s := &PredictionService{
		catalog:      catalog,
		gen:          gen,
		cls:          cls,
		exp:          exp,
		metrics:      metrics,
		numPoints:    lightcurve.DefaultNumPoints,
		modelVersion: DefaultModelVersion,
		l:            applogger.Nop(),
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ModelVersion reports the version stamped on every result.
func (s *PredictionService) ModelVersion() string { return s.modelVersion }

// Predict runs the synthetic pipeline for sampleID. An unknown id yields an
// error wrapping repository.ErrSampleNotFound before any work is done.
func (s *PredictionService) Predict(ctx context.Context, sampleID string) (*models.AnalysisResult, error) {
	start := s.now()

	sample, err := s.catalog.Get(ctx, sampleID)
	if err != nil {
		s.metrics.RecordError("predict_lookup")
		return nil, err
	}

	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, sampleID); err != nil {
			s.l.Warn("result cache read failed", applogger.String("sample_id", sampleID), applogger.Error(err))
		} else if ok {
			s.metrics.RecordLatency("predict_cached", s.now().Sub(start).Seconds())
			return cached, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := s.analyze(sample)
	if err != nil {
		s.metrics.RecordError("predict_analyze")
		return nil, fmt.Errorf("analyze %s: %w", sampleID, err)
	}
	res.AnalysisID = s.newID()
	res.CreatedAt = s.now().UTC()
	res.ProcessingTimeMS = s.now().Sub(start).Milliseconds()
	res.Sanitize()

	s.metrics.RecordPrediction(string(sample.Truth), string(res.Classification), res.ConfidenceScore)
	s.metrics.RecordLatency("predict", s.now().Sub(start).Seconds())
	s.l.Debug("prediction assembled",
		applogger.String("sample_id", sampleID),
		applogger.String("classification", string(res.Classification)),
		applogger.Float64("confidence", res.ConfidenceScore),
		applogger.Int("regions", len(res.HighlightedRegions)),
	)

	if s.cache != nil {
		if err := s.cache.Set(ctx, sampleID, res, s.cacheTTL); err != nil {
			s.l.Warn("result cache write failed", applogger.String("sample_id", sampleID), applogger.Error(err))
		}
	}
	return res, nil
}

func (s *PredictionService) analyze(sample models.Sample) (*models.AnalysisResult, error) {
	cls, err := s.cls.Classify(sample.ID, sample.Truth)
	if err != nil {
		return nil, err
	}

	var (
		lc      models.LightCurve
		regions []models.TransitRegion
	)
	p := sample.Params
	switch sample.Truth {
	case models.TruthConfirmed:
		lc, regions = s.gen.ConfirmedPlanet(models.TransitParams{
			PeriodDays:           models.FloatOr(p.PeriodDays, DefaultPeriodDays),
			TransitDepth:         models.FloatOr(p.TransitDepth, DefaultTransitDepth),
			TransitDurationHours: models.FloatOr(p.TransitDuration, DefaultTransitHours),
			NumPoints:            s.numPoints,
			PlanetRadiusEarth:    p.PlanetRadius,
		})
	case models.TruthCandidate:
		lc, regions = s.gen.Candidate(s.numPoints)
	default:
		anomaly := p.AnomalyType
		if anomaly == "" {
			anomaly = models.AnomalyNoise
		}
		lc, regions = s.gen.FalsePositive(s.numPoints, anomaly)
	}
	if regions == nil {
		regions = []models.TransitRegion{}
	}

	explanation := s.exp.Explain(lc, cls.Label, cls.Confidence, regions)

	probs := make(map[string]float64, len(cls.Probabilities))
	for k, v := range cls.Probabilities {
		probs[string(k)] = v
	}

	return &models.AnalysisResult{
		SampleID:           sample.ID,
		Classification:     cls.Label,
		ConfidenceScore:    cls.Confidence,
		ClassProbabilities: probs,
		LightCurveData:     lc.Flux,
		TimePoints:         lc.Time,
		HighlightedRegions: regions,
		Analysis: models.AnalysisMetadata{
			OrbitalPeriod:   p.PeriodDays,
			TransitDuration: p.TransitDuration,
			PlanetRadius:    p.PlanetRadius,
			StarName:        sample.Name,
			DiscoveryMethod: models.DiscoveryMethodTransit,
		},
		SHAPExplanation: &explanation,
		ModelVersion:    s.modelVersion,
	}, nil
}

// Samples lists the public view of the catalog.
func (s *PredictionService) Samples(ctx context.Context) ([]models.SampleSummary, error) {
	all, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	out := make([]models.SampleSummary, 0, len(all))
	for _, smp := range all {
		out = append(out, smp.Summary())
	}
	return out, nil
}

// PredictRandom analyzes a uniformly chosen catalog sample. It backs the
// upload placeholder until uploaded files are actually parsed.
func (s *PredictionService) PredictRandom(ctx context.Context) (*models.AnalysisResult, error) {
	all, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return s.Predict(ctx, all[rand.IntN(len(all))].ID)
}
