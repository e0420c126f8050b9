package providers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	xhttp "FinCast/pkg/http"
)

// Stooq downloads daily bars as CSV from stooq.com. It is the primary source.
type Stooq struct {
	client  *xhttp.Client
	baseURL string
}

func NewStooq(client *xhttp.Client, baseURL string) *Stooq {
	return &Stooq{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Stooq) Name() string          { return NameStooq }
func (s *Stooq) Source() models.Source { return models.SourcePrimary }
func (s *Stooq) Label() string         { return "Stooq" }

func (s *Stooq) Fetch(ctx context.Context, symbol string, start, end time.Time) (*models.RawTable, error) {
	var body []byte
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL + "/q/d/l/",
		QueryParams: map[string][]string{
			"s":  {strings.ToLower(symbol)},
			"d1": {ymd(start)},
			"d2": {ymd(end)},
			"i":  {"d"},
		},
	}, &body)
	if err != nil {
		return nil, miss(ctx, s.Name(), err)
	}

	t, err := ParseCSV(body)
	if err != nil {
		return nil, miss(ctx, s.Name(), err)
	}
	return t, nil
}

// ParseCSV reads a header plus rows into a RawTable. Numeric cells become
// float64, empty cells are left out of the row, anything else stays a string.
// A body without a Date column or without rows is rejected.
func ParseCSV(body []byte) (*models.RawTable, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty body")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = normalizeColumn(header[i])
	}

	t := &models.RawTable{Columns: header}
	if !t.HasColumn(models.ColDate) {
		return nil, fmt.Errorf("no %s column in %q", models.ColDate, strings.Join(header, ","))
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make(map[string]any, len(header))
		for i, cell := range rec {
			if i >= len(header) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if header[i] != models.ColDate {
				if f, err := strconv.ParseFloat(cell, 64); err == nil {
					row[header[i]] = f
					continue
				}
			}
			row[header[i]] = cell
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("no rows")
	}
	return t, nil
}

// normalizeColumn maps vendor header spellings onto the dataset column names.
func normalizeColumn(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	switch strings.ToLower(h) {
	case "date":
		return models.ColDate
	case "open":
		return models.ColOpen
	case "high":
		return models.ColHigh
	case "low":
		return models.ColLow
	case "close":
		return models.ColClose
	case "volume":
		return models.ColVolume
	case "adj close", "adj_close", "adjclose":
		return models.ColAdjClose
	}
	return h
}
