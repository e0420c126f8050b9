package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	pkgch "FinCast/pkg/clickhouse"
	applogger "FinCast/pkg/logger"
)

const archiveChunkSize = 2000

// CandleSchema returns the DDL for the daily candle archive. ReplacingMergeTree
// keeps the latest row per (symbol, date) so repeated saves are idempotent.
func CandleSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    symbol     LowCardinality(String),
    date       Date,
    open       Float64,
    high       Float64,
    low        Float64,
    close      Float64,
    volume     Int64,
    source     LowCardinality(String),
    fetched_at DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree(fetched_at)
ORDER BY (symbol, date)`, database, table),
	}
}

// CHCandleArchive implements CandleArchive backed by ClickHouse.
type CHCandleArchive struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

// NewCHCandleArchive uses table qualified with the client's database.
func NewCHCandleArchive(ch *pkgch.Client, table string, l *applogger.Logger) *CHCandleArchive {
	return &CHCandleArchive{db: ch.DB(), table: ch.Database() + "." + table, l: l, now: time.Now}
}

// Save writes upstream candles in chunks of multi-row inserts.
func (s *CHCandleArchive) Save(ctx context.Context, ds *models.Dataset) error {
	if ds.Len() == 0 {
		return nil
	}
	start := time.Now()
	fetched := s.now().UTC()
	for lo := 0; lo < len(ds.Candles); lo += archiveChunkSize {
		hi := min(lo+archiveChunkSize, len(ds.Candles))
		chunk := ds.Candles[lo:hi]

		args := make([]interface{}, 0, len(chunk)*9)
		for _, c := range chunk {
			args = append(args, candleArgs(ds.Symbol, string(ds.Source), fetched, c)...)
		}
		if _, err := s.db.ExecContext(ctx, insertStatement(s.table, len(chunk)), args...); err != nil {
			s.l.Error("clickhouse archive insert error",
				applogger.String("table", s.table),
				applogger.String("symbol", ds.Symbol),
				applogger.Int("rows", len(chunk)),
				applogger.Error(err),
			)
			return fmt.Errorf("archive candles: %w", err)
		}
	}
	s.l.Debug("clickhouse archive insert ok",
		applogger.String("symbol", ds.Symbol),
		applogger.Int("rows", ds.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// Load returns archived candles in [from, to] ordered by date.
func (s *CHCandleArchive) Load(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT date, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		s.l.Error("clickhouse archive query error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("load candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 256)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Date, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Date = c.Date.UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse archive query ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHCandleArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func insertStatement(table string, n int) string {
	values := make([]string, n)
	for i := range values {
		values[i] = "(?, ?, ?, ?, ?, ?, ?, ?, ?)"
	}
	return fmt.Sprintf("INSERT INTO %s (symbol, date, open, high, low, close, volume, source, fetched_at) VALUES %s",
		table, strings.Join(values, ","))
}

func candleArgs(symbol, source string, fetched time.Time, c models.Candle) []interface{} {
	return []interface{}{symbol, c.Date.UTC(), c.Open, c.High, c.Low, c.Close, c.Volume, source, fetched}
}

var _ domrepo.CandleArchive = (*CHCandleArchive)(nil)
