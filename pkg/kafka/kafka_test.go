package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestProducer_EncodesValues(t *testing.T) {
	w := &memWriter{}
	p := NewProducerWithWriter(w, "gzip")

	require.NoError(t, p.Publish(context.Background(), "t", []byte("k"), map[string]int{"n": 1}))
	require.NoError(t, p.Publish(context.Background(), "t", nil, "raw"))
	require.NoError(t, p.PublishBatch(context.Background(), "t", nil))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "t", w.msgs[0].Topic)
	assert.Equal(t, []byte("k"), w.msgs[0].Key)
	var got map[string]int
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, 1, got["n"])
	assert.Equal(t, "raw", string(w.msgs[1].Value))
}

func TestProducer_WrapsWriteErrors(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&memWriter{err: boom}, "gzip")
	err := p.Publish(context.Background(), "t", nil, "x")
	assert.ErrorIs(t, err, boom)

	err = p.Publish(context.Background(), "t", nil, func() {})
	assert.Error(t, err)
}

type flakyHandler struct {
	fails int
	calls int
	panic bool
}

func (h *flakyHandler) Topic() string { return "prefetch" }
func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.panic {
		panic("bad payload")
	}
	if h.calls <= h.fails {
		return errors.New("transient")
	}
	return nil
}

func newTestConsumer(t *testing.T) *Consumer {
	t.Helper()
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestConsumer_ProcessRetries(t *testing.T) {
	c := newTestConsumer(t)
	msg := &message{topic: "prefetch", data: []byte("{}")}

	h := &flakyHandler{fails: 2}
	attempts, err := c.process(h, msg)
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)

	h = &flakyHandler{fails: 10}
	attempts, err = c.process(h, msg)
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestConsumer_ProcessRecoversPanics(t *testing.T) {
	c := newTestConsumer(t)
	_, err := c.process(&flakyHandler{panic: true}, &message{topic: "prefetch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad payload")
}

func TestConsumer_HookErrorSkipsHandler(t *testing.T) {
	c := newTestConsumer(t)
	var seen []error
	c.WithConsumerHook(NewHookChain(
		HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, d []byte) (context.Context, kafka.Message, []byte, error) {
				return ctx, km, d, &HookError{Code: "ERR_VALIDATION"}
			},
			Err: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) { seen = append(seen, err) },
		},
	))

	h := &flakyHandler{}
	_, err := c.process(h, &message{topic: "prefetch"})
	var he *HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "ERR_VALIDATION", he.Code)
	assert.Zero(t, h.calls)
	assert.NotEmpty(t, seen)
}

func TestHookChain_ThreadsContextAndRecovers(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	chain := NewHookChain(CorrelationHook(), nil, HookFuncs{
		After: func(context.Context, string, kafka.Message, []byte, error) { panic("ignored") },
	})

	ctx, _, _, err := chain.BeforeHandle(context.Background(), "t", km, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", TraceIDFrom(ctx))
	_, ok := ctx.Value(CtxStartTime).(time.Time)
	assert.True(t, ok)

	assert.NotPanics(t, func() { chain.AfterHandle(ctx, "t", km, nil, nil) })

	panicky := NewHookChain(HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		},
	})
	_, _, _, err = panicky.BeforeHandle(context.Background(), "t", km, nil)
	var he *HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "ERR_PANIC", he.Code)
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt < 70; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 200*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}
	d := backoffWithJitter(10*time.Millisecond, 200*time.Millisecond, 1)
	assert.GreaterOrEqual(t, d, 5*time.Millisecond)
}

func TestProducerOptions_ZeroKeepsDefaults(t *testing.T) {
	cfg := defaultProducerConfig()
	for _, opt := range []ProducerOption{
		WithCompression(""),
		WithRequiredAcks(0),
		WithMaxAttempts(0),
		WithBatch(0, 0, 0),
		WithTimeouts(0, 0),
	} {
		opt(cfg)
	}
	assert.Equal(t, defaultProducerConfig(), cfg)

	WithBatch(10, 2048, 5*time.Millisecond)(cfg)
	WithRequiredAcks(1)(cfg)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 2048, cfg.BatchBytes)
	assert.Equal(t, 5*time.Millisecond, cfg.BatchTimeout)
	assert.Equal(t, 1, cfg.RequiredAcks)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(WithCompression("snappy"))
	assert.Error(t, err)
}
