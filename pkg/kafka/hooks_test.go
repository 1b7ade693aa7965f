package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookChainOrderAndPanic(t *testing.T) {
	var calls []string
	rec := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, _ kafka.Message) (context.Context, error) {
				calls = append(calls, "before:"+name)
				return ctx, nil
			},
			After: func(context.Context, string, kafka.Message, error) {
				calls = append(calls, "after:"+name)
			},
		}
	}
	chain := NewHookChain(rec("a"), nil, rec("b"))

	ctx, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{})
	require.NoError(t, err)
	chain.AfterHandle(ctx, "t", kafka.Message{}, nil)
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, calls)

	boom := HookFuncs{Before: func(context.Context, string, kafka.Message) (context.Context, error) {
		panic("boom")
	}}
	_, err = NewHookChain(boom).BeforeHandle(context.Background(), "t", kafka.Message{})
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "ERR_PANIC", he.Code)
}

func TestTraceHook(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	ctx, err := TraceHook().BeforeHandle(context.Background(), "t", km)
	require.NoError(t, err)
	assert.Equal(t, "abc", TraceID(ctx))
	assert.Equal(t, "", TraceID(context.Background()))
}
