package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceHook(t *testing.T) {
	at := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)
	h := &TraceHook{now: func() time.Time { return at }}
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}

	ctx, _, _, err := h.BeforeHandle(context.Background(), "t", km, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", TraceIDFrom(ctx))
	start, ok := StartTimeFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, at, start)

	ctx, _, _, _ = h.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	assert.Empty(t, TraceIDFrom(ctx))
}

func TestHookChain_OrderAndPanics(t *testing.T) {
	var calls []string
	record := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, d []byte) (context.Context, kafka.Message, []byte, error) {
				calls = append(calls, "before:"+name)
				return ctx, km, append(d, name...), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				calls = append(calls, "after:"+name)
			},
		}
	}
	chain := NewHookChain(record("a"), nil, record("b"))

	ctx, km, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))
	chain.AfterHandle(ctx, "t", km, data, nil)
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, calls)

	panicky := HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		},
		Err: func(context.Context, string, kafka.Message, []byte, error) { panic("again") },
	}
	chain = NewHookChain(panicky)
	_, _, _, err = chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	assert.Error(t, err)
	assert.NotPanics(t, func() { chain.OnError(context.Background(), "t", kafka.Message{}, nil, errors.New("x")) })
}
