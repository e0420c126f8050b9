package repository

import (
	"context"
	"time"

	"FinCast/internal/domain/models"
)

// MarketDataProvider is one stage of the data source cascade. A miss is
// reported as models.ErrUpstreamUnavailable; any other error aborts the cascade.
type MarketDataProvider interface {
	Name() string
	Source() models.Source
	Label() string
	Fetch(ctx context.Context, symbol string, start, end time.Time) (*models.RawTable, error)
}

// CandleArchive stores daily candles fetched from upstream providers.
type CandleArchive interface {
	Save(ctx context.Context, ds *models.Dataset) error
	Load(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error)
	Health(ctx context.Context) error
}

// EventPublisher emits domain events to the message bus.
type EventPublisher interface {
	PublishDataset(ctx context.Context, evt models.DatasetEvent) error
	PublishForecast(ctx context.Context, evt models.ForecastEvent) error
	Close() error
}

// Metrics records pipeline observations.
type Metrics interface {
	RecordCascadeSource(stage string, hit bool)
	RecordCacheLookup(hit bool)
	RecordForecast(kind, outcome string, seconds float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
