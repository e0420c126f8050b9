package repository

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
	pkgkafka "FinCast/pkg/kafka"
)

type memWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestKafkaEventPublisher_RoutesByEventType(t *testing.T) {
	w := &memWriter{}
	pub := NewKafkaEventPublisher(pkgkafka.NewProducerWithWriter(w, "gzip"), Topics{Datasets: "ds", Forecasts: "fc"})
	ctx := context.Background()

	require.NoError(t, pub.PublishDataset(ctx, models.DatasetEvent{Symbol: "AAPL.US", Source: models.SourcePrimary, Rows: 20}))
	require.NoError(t, pub.PublishForecast(ctx, models.ForecastEvent{ID: "f-1", Symbol: "MSFT.US", Kind: models.KindLSTM}))
	require.NoError(t, pub.PublishMessage(ctx, "logs", []string{"a"}))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "ds", w.msgs[0].Topic)
	assert.Equal(t, "AAPL.US", string(w.msgs[0].Key))
	assert.Equal(t, "fc", w.msgs[1].Topic)
	assert.Equal(t, "logs", w.msgs[2].Topic)
	assert.Empty(t, w.msgs[2].Key)

	var evt models.ForecastEvent
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &evt))
	assert.Equal(t, "f-1", evt.ID)
	assert.Equal(t, models.KindLSTM, evt.Kind)
}

func TestInsertStatement(t *testing.T) {
	q := insertStatement("fincast.daily_candles", 2)
	assert.True(t, strings.HasPrefix(q, "INSERT INTO fincast.daily_candles (symbol, date,"))
	assert.Equal(t, 18, strings.Count(q, "?"))
}

func TestCandleArgsOrderMatchesColumns(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	at := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	args := candleArgs("AAPL.US", "primary", at, models.Candle{Date: day, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100})
	assert.Equal(t, []interface{}{"AAPL.US", day, 1.0, 2.0, 0.5, 1.5, int64(100), "primary", at}, args)
}

func TestCandleSchema(t *testing.T) {
	stmts := CandleSchema("fincast", "daily_candles")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE DATABASE IF NOT EXISTS fincast")
	assert.Contains(t, stmts[1], "fincast.daily_candles")
	assert.Contains(t, stmts[1], "ReplacingMergeTree")
}
