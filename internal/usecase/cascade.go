package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	"FinCast/internal/service/cache"
	"FinCast/internal/services/features"
	"FinCast/pkg/logger"
	"FinCast/pkg/tracing"
	"FinCast/pkg/util"
)

// Cascade walks the configured providers in order and falls back to the
// synthetic generator, so a non-empty range always yields a dataset.
type Cascade struct {
	stages  []domrepo.MarketDataProvider
	cache   *cache.SourceCache
	mat     *Materializer
	archive domrepo.CandleArchive
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
	log     *logger.Logger
	now     func() time.Time
}

type CascadeOption func(*Cascade)

// WithArchive stores upstream datasets after a fresh fetch.
func WithArchive(a domrepo.CandleArchive) CascadeOption {
	return func(c *Cascade) { c.archive = a }
}

func WithEvents(p domrepo.EventPublisher) CascadeOption {
	return func(c *Cascade) { c.events = p }
}

func WithCascadeMetrics(m domrepo.Metrics) CascadeOption {
	return func(c *Cascade) { c.metrics = m }
}

func WithCascadeLogger(l *logger.Logger) CascadeOption {
	return func(c *Cascade) { c.log = l }
}

func NewCascade(chain []domrepo.MarketDataProvider, synthetic domrepo.MarketDataProvider, sc *cache.SourceCache, mat *Materializer, opts ...CascadeOption) *Cascade {
	stages := make([]domrepo.MarketDataProvider, 0, len(chain)+1)
	stages = append(stages, chain...)
	stages = append(stages, synthetic)

	c := &Cascade{stages: stages, cache: sc, mat: mat, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	return c
}

// Fetch resolves daily data for symbol over [start, end], both inclusive.
// Upstream misses move on to the next stage; any other error aborts.
func (c *Cascade) Fetch(ctx context.Context, symbol string, start, end time.Time) (*models.Dataset, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: ticker is required", models.ErrInvalidInput)
	}
	start, end = util.CalendarDate(start), util.CalendarDate(end)
	if util.DaysInclusive(start, end) == 0 {
		return nil, fmt.Errorf("range %s..%s: %w", start.Format(models.DateLayout), end.Format(models.DateLayout), models.ErrNoDataAvailable)
	}

	ctx, span := tracing.StartSpan(ctx, "cascade.fetch")
	defer span.End()

	for _, p := range c.stages {
		began := time.Now()
		ds, hit, err := c.cache.GetOrFetch(ctx, cache.Key(p.Name(), symbol, start, end), func(ctx context.Context) (*models.Dataset, error) {
			return c.fetchStage(ctx, p, symbol, start, end)
		})
		if c.metrics != nil {
			c.metrics.RecordLatency("cascade."+p.Name(), time.Since(began).Seconds())
		}
		if err != nil {
			if errors.Is(err, models.ErrUpstreamUnavailable) {
				c.log.Warn("cascade stage missed",
					logger.String("stage", p.Name()),
					logger.String("symbol", symbol),
					logger.Error(err),
				)
				continue
			}
			span.RecordError(err)
			return nil, fmt.Errorf("%s: %w", p.Name(), err)
		}

		if made := Complete(ds); len(made) > 0 {
			c.log.Warn("synthesized missing columns",
				logger.String("symbol", symbol),
				logger.String("stage", p.Name()),
				logger.Strings("columns", made),
			)
		}
		if c.metrics != nil {
			c.metrics.RecordCascadeSource(p.Name(), hit)
		}
		c.log.Info("dataset resolved",
			logger.String("symbol", symbol),
			logger.String("source", ds.Label),
			logger.Int("rows", ds.Len()),
			logger.Bool("cached", hit),
		)
		if !hit {
			c.afterFetch(ctx, ds, start, end)
		}
		return ds, nil
	}

	return nil, fmt.Errorf("symbol %s: %w", symbol, models.ErrNoDataAvailable)
}

func (c *Cascade) fetchStage(ctx context.Context, p domrepo.MarketDataProvider, symbol string, start, end time.Time) (*models.Dataset, error) {
	t, err := p.Fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	ds := c.mat.Build(t, symbol, p.Source(), p.Label(), start)
	if ds.Len() == 0 {
		return nil, models.Unavailable(p.Name(), fmt.Errorf("no rows after parsing"))
	}
	return ds, nil
}

// afterFetch archives and announces a freshly fetched dataset. Failures are
// logged and never reach the caller.
func (c *Cascade) afterFetch(ctx context.Context, ds *models.Dataset, start, end time.Time) {
	if c.archive != nil && ds.Source.Upstream() {
		if err := c.archive.Save(ctx, ds); err != nil {
			c.log.Warn("archive dataset failed", logger.String("symbol", ds.Symbol), logger.Error(err))
			c.recordError("archive_save")
		}
	}
	if c.events != nil {
		sum := features.Summarize(ds)
		evt := models.DatasetEvent{
			Symbol:     ds.Symbol,
			Source:     ds.Source,
			Start:      start.Format(models.DateLayout),
			End:        end.Format(models.DateLayout),
			Rows:       ds.Len(),
			LastClose:  sum.LastClose,
			Volatility: sum.Volatility,
			At:         c.now().UTC(),
		}
		if err := c.events.PublishDataset(ctx, evt); err != nil {
			c.log.Warn("publish dataset event failed", logger.String("symbol", ds.Symbol), logger.Error(err))
			c.recordError("publish_dataset")
		}
	}
}

// FromRecords builds a dataset from client supplied rows. No columns are
// synthesized besides a missing Date column.
func (c *Cascade) FromRecords(symbol string, records []map[string]any) (*models.Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: data is empty", models.ErrInvalidInput)
	}
	t := models.NewRawTable(records)
	ds := c.mat.Build(t, symbol, models.SourceClient, "Client Data", time.Time{})
	return ds, nil
}

func (c *Cascade) recordError(kind string) {
	if c.metrics != nil {
		c.metrics.RecordError(kind)
	}
}
