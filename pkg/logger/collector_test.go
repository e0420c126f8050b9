package logger

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) all() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func TestLogCollector_DeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		c.AddLog("error", "provider down", map[string]interface{}{"stage": "stooq"}, "cascade.go:10")
	}
	c.AddLog("error", "provider down", map[string]interface{}{"stage": "yahoo"}, "cascade.go:10")
	assert.Equal(t, 2, c.Pending())

	c.Close()

	got := pub.all()
	require.Len(t, got, 2)
	counts := map[interface{}]int{}
	for _, e := range got {
		counts[e.Fields["stage"]] = e.Count
	}
	assert.Equal(t, map[interface{}]int{"stooq": 3, "yahoo": 1}, counts)
	assert.Equal(t, []string{"logs"}, pub.topics)
}

func TestLogCollector_ThresholdTriggersFlush(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})

	c.AddLog("error", "a", nil, "x")
	c.AddLog("error", "b", nil, "x")
	assert.Equal(t, 0, c.Pending())

	c.Close()
	assert.Len(t, pub.all(), 2)
}

func TestLogger_ErrorsReachCollector(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: "debug", Format: "json", Writer: &buf})
	require.NoError(t, err)

	pub := &capturePublisher{}
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "fincast.logs", Publisher: pub})
	l.Error("archive failed", String("symbol", "AAPL.US"))
	l.Warn("not collected")
	l.RemoveCollector()

	got := pub.all()
	require.Len(t, got, 1)
	assert.Equal(t, "archive failed", got[0].Message)
	assert.Equal(t, "AAPL.US", got[0].Fields["symbol"])
	assert.Contains(t, buf.String(), "archive failed")
}
