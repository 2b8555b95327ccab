package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_Validation(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brokers are required")

	_, err = NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("brotli"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brotli")
}

func TestNewProducer_Writer(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"a:9092", "b:9092"}),
		WithCompression("none"),
		WithBatching(10, 0, time.Second),
		WithMaxAttempts(0),
	)
	require.NoError(t, err)
	defer p.Close()

	w := p.writer
	assert.Equal(t, kafka.Compression(0), w.Compression)
	assert.Equal(t, 10, w.BatchSize)
	assert.Equal(t, int64(1<<20), w.BatchBytes)
	assert.Equal(t, time.Second, w.BatchTimeout)
	assert.Equal(t, 3, w.MaxAttempts)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}

func TestProducer_MessageCarriesTraceID(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &Producer{now: func() time.Time { return at }}

	km := kafka.Message{Headers: []kafka.Header{{Key: HeaderTraceID, Value: []byte("trace-7")}}}
	ctx, _, _, err := NewTraceHook().BeforeHandle(context.Background(), "requests", km, nil)
	require.NoError(t, err)

	msg, err := p.message(ctx, "results", []byte("kepler-186f"), map[string]string{"status": "ok"})
	require.NoError(t, err)
	assert.Equal(t, "results", msg.Topic)
	assert.Equal(t, []byte("kepler-186f"), msg.Key)
	assert.JSONEq(t, `{"status":"ok"}`, string(msg.Value))
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, "trace-7", ExtractTraceID(msg))

	msg, err = p.message(context.Background(), "logs", nil, "raw line")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw line"), msg.Value)
	assert.Empty(t, msg.Headers)
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := encode(make(chan int))
	assert.Error(t, err)
}
