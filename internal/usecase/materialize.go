package usecase

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	"FinCast/internal/services/dates"
	"FinCast/pkg/util"
)

// Materializer turns a heterogeneous RawTable into a typed Dataset.
type Materializer struct {
	norm *dates.Normalizer
}

func NewMaterializer(norm *dates.Normalizer) *Materializer {
	return &Materializer{norm: norm}
}

// Build fills a missing Date column from start (one day per row), normalizes
// dates, then parses every other column as numbers. Gaps inside a column are
// forward filled, leading gaps back filled. A column with no numeric value at
// all is dropped. A zero start leaves date synthesis to the normalizer.
func (m *Materializer) Build(t *models.RawTable, symbol string, src models.Source, label string, start time.Time) *models.Dataset {
	if !t.HasColumn(models.ColDate) && !start.IsZero() {
		day := util.CalendarDate(start)
		for i := range t.Rows {
			if t.Rows[i] == nil {
				t.Rows[i] = make(map[string]any)
			}
			t.Rows[i][models.ColDate] = day.AddDate(0, 0, i)
		}
		t.AddColumn(models.ColDate)
	}
	m.norm.Normalize(t, models.ColDate)

	ds := &models.Dataset{
		Symbol:  symbol,
		Source:  src,
		Label:   label,
		Columns: []string{models.ColDate},
		Candles: make([]models.Candle, len(t.Rows)),
	}
	for i, row := range t.Rows {
		d, _ := row[models.ColDate].(time.Time)
		ds.Candles[i].Date = d
	}

	for _, col := range t.Columns {
		if col == models.ColDate {
			continue
		}
		values, ok := numericColumn(t.Rows, col)
		if !ok {
			continue
		}
		ds.AddColumn(col)
		for i, v := range values {
			ds.Candles[i].SetValue(col, v)
		}
	}
	return ds
}

func numericColumn(rows []map[string]any, col string) ([]float64, bool) {
	out := make([]float64, len(rows))
	have := make([]bool, len(rows))
	first := -1
	for i, row := range rows {
		if v, ok := toFloat(row[col]); ok {
			out[i], have[i] = v, true
			if first < 0 {
				first = i
			}
		}
	}
	if first < 0 {
		return nil, false
	}
	for i := 0; i < first; i++ {
		out[i] = out[first]
	}
	for i := first + 1; i < len(out); i++ {
		if !have[i] {
			out[i] = out[i-1]
		}
	}
	return out, true
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
