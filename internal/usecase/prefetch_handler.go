package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	pkgkafka "FinCast/pkg/kafka"
	"FinCast/pkg/logger"
	"FinCast/pkg/util"
)

const defaultPrefetchSpan = 365 * 24 * time.Hour

// PrefetchHandler warms the dataset cache from prefetch requests on Kafka.
// Message schema: {ticker, start_date?, end_date?} with YYYY-MM-DD dates.
type PrefetchHandler struct {
	topic   string
	cascade *Cascade
	symbols *SymbolCatalog
	metrics domrepo.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewPrefetchHandler(topic string, cascade *Cascade, symbols *SymbolCatalog, metrics domrepo.Metrics, l *logger.Logger) *PrefetchHandler {
	if l == nil {
		l = logger.NewNop()
	}
	return &PrefetchHandler{topic: topic, cascade: cascade, symbols: symbols, metrics: metrics, log: l, now: time.Now}
}

func (h *PrefetchHandler) Topic() string { return h.topic }

// Handle resolves the requested range through the cascade. Unsupported
// tickers are skipped; malformed payloads are returned as errors so the
// consumer can route them to its DLQ.
func (h *PrefetchHandler) Handle(ctx context.Context, b []byte) error {
	var m models.PrefetchMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.recordError("prefetch_unmarshal")
		return fmt.Errorf("%w: prefetch payload: %v", models.ErrInvalidInput, err)
	}
	start, end, err := h.window(m)
	if err != nil {
		h.recordError("prefetch_dates")
		return err
	}
	if h.symbols != nil && !h.symbols.Supported(m.Ticker) {
		h.log.Warn("prefetch skipped unsupported ticker", logger.String("ticker", m.Ticker))
		return nil
	}

	began := time.Now()
	ds, err := h.cascade.Fetch(ctx, m.Ticker, start, end)
	if h.metrics != nil {
		h.metrics.RecordLatency("prefetch", time.Since(began).Seconds())
	}
	if err != nil {
		h.recordError("prefetch_fetch")
		return fmt.Errorf("prefetch %s: %w", m.Ticker, err)
	}
	h.log.Info("prefetched dataset",
		logger.String("ticker", m.Ticker),
		logger.String("source", string(ds.Source)),
		logger.Int("rows", ds.Len()),
	)
	return nil
}

func (h *PrefetchHandler) window(m models.PrefetchMessage) (time.Time, time.Time, error) {
	end := util.CalendarDate(h.now())
	if m.EndDate != "" {
		t, err := time.Parse(models.DateLayout, m.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date %q", models.ErrInvalidInput, m.EndDate)
		}
		end = t
	}
	start := end.Add(-defaultPrefetchSpan)
	if m.StartDate != "" {
		t, err := time.Parse(models.DateLayout, m.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date %q", models.ErrInvalidInput, m.StartDate)
		}
		start = t
	}
	return start, end, nil
}

func (h *PrefetchHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

var _ pkgkafka.MessageHandler = (*PrefetchHandler)(nil)
