package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes events. Keyed messages for the same sample land on the
// same partition, so a consumer sees them in publish order.
type Producer struct {
	writer *kafka.Writer
	now    func() time.Time
}

// NewProducer validates cfg and builds the underlying writer. No connection
// is made until the first publish.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka producer: brokers are required")
	}
	codec, err := parseCompression(cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	initMetricsOnce()
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  codec,
			MaxAttempts:  cfg.MaxAttempts,
			WriteTimeout: cfg.WriteTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			BatchSize:    cfg.BatchSize,
			BatchBytes:   int64(cfg.BatchBytes),
			BatchTimeout: cfg.Linger,
			Async:        cfg.Async,
		},
		now: time.Now,
	}, nil
}

// Publish encodes value and writes it to topic under key. A trace id carried
// by ctx is forwarded in the trace_id header.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value any) error {
	msg, err := p.message(ctx, topic, key, value)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, msg)
	result := "ok"
	if err != nil {
		result = "error"
	}
	producerMessages.WithLabelValues(topic, result).Inc()
	producerBytes.WithLabelValues(topic).Add(float64(len(msg.Value)))
	producerLatency.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// PublishMessage sends an unkeyed message. It lets the producer act as the
// log collector's Publisher.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload any) error {
	return p.Publish(ctx, topic, nil, payload)
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *Producer) message(ctx context.Context, topic string, key []byte, value any) (kafka.Message, error) {
	v, err := encode(value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s payload: %w", topic, err)
	}
	msg := kafka.Message{Topic: topic, Key: key, Value: v, Time: p.now()}
	if id := TraceIDFrom(ctx); id != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: HeaderTraceID, Value: []byte(id)})
	}
	return msg, nil
}

// encode passes raw bytes and strings through and JSON-encodes everything else.
func encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(value)
	}
}
