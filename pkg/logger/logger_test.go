package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
	signal  chan struct{}
}

func newCapture() *capturePublisher {
	return &capturePublisher{signal: make(chan struct{}, 8)}
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	p.mu.Unlock()
	p.signal <- struct{}{}
	return nil
}

func (p *capturePublisher) all() [][]AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batches
}

func TestLogger_WritesTypedFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.InfoLevel).With(String("component", "test"))

	l.Debug("hidden")
	l.Info("analysis done",
		String("sample_id", "kepler-186f"),
		Int("points", 1000),
		Float64("confidence", 0.93),
		Bool("cached", false),
		Duration("took_ms", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var ev map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &ev))
	assert.Equal(t, "info", ev["level"])
	assert.Equal(t, "test", ev["component"])
	assert.Equal(t, "kepler-186f", ev["sample_id"])
	assert.Equal(t, float64(1000), ev["points"])
	assert.Equal(t, float64(1500), ev["took_ms"])
	assert.Equal(t, "boom", ev["error"])
}

func TestCollector_AggregatesAndFlushesOnClose(t *testing.T) {
	pub := newCapture()
	l := Nop().With(String("component", "consumer"))
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("analysis failed", String("sample_id", "x"))
	}
	l.Warn("below collector level")
	l.Error("analysis failed", String("sample_id", "y"))
	l.RemoveCollector()

	batches := pub.all()
	require.Len(t, batches, 1)
	assert.Equal(t, "logs", pub.topic)
	require.Len(t, batches[0], 2)

	counts := map[any]int{}
	for _, e := range batches[0] {
		assert.Equal(t, "error", e.Level)
		assert.Equal(t, "consumer", e.Fields["component"])
		counts[e.Fields["sample_id"]] = e.Count
	}
	assert.Equal(t, map[any]int{"x": 3, "y": 1}, counts)
}

func TestCollector_ThresholdFlush(t *testing.T) {
	pub := newCapture()
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub, MinLevel: "warn"})
	defer c.Close()

	c.AddLog("warn", "a", nil, "x.go:1")
	c.AddLog("warn", "b", nil, "x.go:2")

	select {
	case <-pub.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("threshold did not trigger a flush")
	}
	require.Len(t, pub.all()[0], 2)
	assert.Equal(t, zerolog.WarnLevel, c.minLevel)
}

func TestEntryKey_IgnoresMapOrder(t *testing.T) {
	a := entryKey("error", "m", map[string]any{"a": 1, "b": "2"}, "c")
	b := entryKey("error", "m", map[string]any{"b": "2", "a": 1}, "c")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, entryKey("error", "m", map[string]any{"a": 2, "b": "2"}, "c"))
}
