package repository

import (
	"context"
	"fmt"

	"CosmicOptic/internal/domain/models"
	domrepo "CosmicOptic/internal/domain/repository"
	pkgkafka "CosmicOptic/pkg/kafka"
)

// KafkaResultPublisher emits prediction outcomes keyed by sample id.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaResultPublisher creates a Kafka publisher for outcomes.
func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) Publish(ctx context.Context, o *models.PredictOutcome) error {
	if o == nil {
		return nil
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(o.SampleID), o); err != nil {
		return fmt.Errorf("publish outcome %s: %w", o.RequestID, err)
	}
	return nil
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopResultPublisher drops outcomes; used when Kafka is disabled.
type NoopResultPublisher struct{}

func (NoopResultPublisher) Publish(context.Context, *models.PredictOutcome) error { return nil }
func (NoopResultPublisher) Close() error                                         { return nil }

var (
	_ domrepo.ResultPublisher = (*KafkaResultPublisher)(nil)
	_ domrepo.ResultPublisher = NoopResultPublisher{}
)
