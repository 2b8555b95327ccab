package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CosmicOptic/internal/domain/models"
	domrepo "CosmicOptic/internal/domain/repository"
	pkgkafka "CosmicOptic/pkg/kafka"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// KafkaPredictHandler consumes PredictEvents and publishes a PredictOutcome
// for each one.
type KafkaPredictHandler struct {
	topic     string
	svc       *PredictionService
	publisher domrepo.ResultPublisher
	metrics   domrepo.Metrics
	validate  *validator.Validate
}

func NewKafkaPredictHandler(topic string, svc *PredictionService, publisher domrepo.ResultPublisher, metrics domrepo.Metrics) *KafkaPredictHandler {
	return &KafkaPredictHandler{
		topic:     topic,
		svc:       svc,
		publisher: publisher,
		metrics:   metrics,
		validate:  validator.New(),
	}
}

func (h *KafkaPredictHandler) Topic() string { return h.topic }

// Handle returns an error only for failures worth retrying. Malformed events
// and unknown samples are answered with an error outcome and acknowledged.
func (h *KafkaPredictHandler) Handle(ctx context.Context, b []byte) error {
	start, ok := pkgkafka.StartTimeFrom(ctx)
	if !ok {
		start = time.Now()
	}
	var ev models.PredictEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return h.publish(ctx, &models.PredictOutcome{Error: fmt.Sprintf("invalid event: %v", err)})
	}
	if ev.RequestID == "" {
		ev.RequestID = pkgkafka.TraceIDFrom(ctx)
	}
	if ev.RequestID == "" {
		ev.RequestID = uuid.NewString()
	}
	if err := h.validate.Struct(ev); err != nil {
		h.metrics.RecordError("consumer_validate")
		return h.publish(ctx, &models.PredictOutcome{RequestID: ev.RequestID, SampleID: ev.SampleID, Error: err.Error()})
	}

	res, err := h.svc.Predict(ctx, ev.SampleID)
	out := &models.PredictOutcome{RequestID: ev.RequestID, SampleID: ev.SampleID, Result: res}
	switch {
	case errors.Is(err, domrepo.ErrSampleNotFound):
		out.Error = err.Error()
	case err != nil:
		return err
	}
	if err := h.publish(ctx, out); err != nil {
		return err
	}
	h.metrics.RecordLatency("consumer_predict", time.Since(start).Seconds())
	return nil
}

func (h *KafkaPredictHandler) publish(ctx context.Context, o *models.PredictOutcome) error {
	if err := h.publisher.Publish(ctx, o); err != nil {
		h.metrics.RecordError("consumer_publish")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaPredictHandler)(nil)
