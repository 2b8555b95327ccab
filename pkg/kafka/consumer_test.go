package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newFakeReader() *fakeReader { return &fakeReader{msgs: make(chan kafka.Message, 64)} }

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type fakeDLQ struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *fakeDLQ) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	w.msgs = append(w.msgs, msgs...)
	w.mu.Unlock()
	return nil
}

func (w *fakeDLQ) Close() error { return nil }

func (w *fakeDLQ) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

type recordingHandler struct {
	topic string
	fail  func(data []byte) error

	mu   sync.Mutex
	seen map[int][]string
}

func (h *recordingHandler) Topic() string { return h.topic }

func (h *recordingHandler) Handle(_ context.Context, data []byte) error {
	if h.fail != nil {
		if err := h.fail(data); err != nil {
			return err
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	var part int
	var id string
	_, _ = fmt.Sscanf(string(data), "%d/%s", &part, &id)
	h.seen[part] = append(h.seen[part], id)
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ids := range h.seen {
		n += len(ids)
	}
	return n
}

func newTestConsumer(t *testing.T, r *fakeReader, opts ...ConsumerOption) *Consumer {
	t.Helper()
	opts = append([]ConsumerOption{
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(1, time.Millisecond, 2*time.Millisecond),
	}, opts...)
	c, err := NewConsumer(opts...)
	require.NoError(t, err)
	c.newReader = func(string) (fetcher, error) { return r, nil }
	return c
}

func TestNewConsumer_Validation(t *testing.T) {
	_, err := NewConsumer()
	require.Error(t, err)

	_, err = NewConsumer(WithConsumerBrokers([]string{"b"}), WithConsumerStartOffset("middle"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "middle")

	c, err := NewConsumer(WithConsumerBrokers([]string{"b"}))
	require.NoError(t, err)
	assert.Error(t, c.Start())
}

func TestConsumer_PreservesPartitionOrder(t *testing.T) {
	r := newFakeReader()
	c := newTestConsumer(t, r, WithConsumerWorkers(4, 4))
	h := &recordingHandler{topic: "requests", seen: map[int][]string{}}
	c.RegisterHandler(h)
	require.NoError(t, c.Start())

	var offset int64
	for i := 0; i < 10; i++ {
		for part := 0; part < 3; part++ {
			offset++
			r.msgs <- kafka.Message{
				Topic:     "requests",
				Partition: part,
				Offset:    offset,
				Value:     []byte(fmt.Sprintf("%d/%02d", part, i)),
			}
		}
	}

	require.Eventually(t, func() bool { return h.count() == 30 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop(context.Background()))

	for part := 0; part < 3; part++ {
		ids := h.seen[part]
		require.Len(t, ids, 10)
		for i, id := range ids {
			assert.Equal(t, fmt.Sprintf("%02d", i), id, "partition %d", part)
		}
	}
	assert.Len(t, r.commits(), 30)
	assert.True(t, r.closed)
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	r := newFakeReader()
	c := newTestConsumer(t, r, WithConsumerDLQ("requests.dlq"))
	dlq := &fakeDLQ{}
	c.dlq = dlq

	var mu sync.Mutex
	calls := 0
	h := &recordingHandler{topic: "requests", seen: map[int][]string{}, fail: func([]byte) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("catalog unavailable")
	}}
	c.RegisterHandler(h)

	var hookErr error
	c.WithConsumerHook(HookFuncs{Err: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) {
		mu.Lock()
		hookErr = err
		mu.Unlock()
	}})
	require.NoError(t, c.Start())

	r.msgs <- kafka.Message{Topic: "requests", Partition: 2, Offset: 41, Key: []byte("k"), Value: []byte("2/x")}

	require.Eventually(t, func() bool { return len(r.commits()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop(context.Background()))

	mu.Lock()
	assert.Equal(t, 2, calls)
	require.Error(t, hookErr)
	mu.Unlock()

	out := dlq.written()
	require.Len(t, out, 1)
	assert.Equal(t, []byte("k"), out[0].Key)
	headers := map[string]string{}
	for _, hd := range out[0].Headers {
		headers[hd.Key] = string(hd.Value)
	}
	assert.Equal(t, "requests", headers[HeaderSourceTopic])
	assert.Equal(t, "2", headers[HeaderSourcePartition])
	assert.Equal(t, "41", headers[HeaderSourceOffset])
	assert.Equal(t, "catalog unavailable", headers[HeaderError])
}

func TestConsumer_FailureWithoutDLQIsNotCommitted(t *testing.T) {
	r := newFakeReader()
	c := newTestConsumer(t, r, WithConsumerRetry(0, time.Millisecond, time.Millisecond))
	done := make(chan struct{})
	h := &recordingHandler{topic: "requests", seen: map[int][]string{}, fail: func([]byte) error {
		defer close(done)
		return errors.New("boom")
	}}
	c.RegisterHandler(h)
	require.NoError(t, c.Start())

	r.msgs <- kafka.Message{Topic: "requests", Offset: 1, Value: []byte("0/a")}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	require.NoError(t, c.Stop(context.Background()))
	assert.Empty(t, r.commits())
}

func TestShard(t *testing.T) {
	assert.Equal(t, 0, shard("t", 5, 1))
	for p := 0; p < 16; p++ {
		s := shard("t", p, 4)
		assert.True(t, s >= 0 && s < 4)
		assert.Equal(t, s, shard("t", p, 4))
	}
}

func TestBackoff(t *testing.T) {
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoff(100*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
	d := backoff(100*time.Millisecond, time.Second, 1)
	assert.True(t, d > 50*time.Millisecond && d <= 100*time.Millisecond)
}
