package models

import (
	"sort"
	"time"
)

// Column names used across providers, the cascade and the API.
const (
	ColDate     = "Date"
	ColOpen     = "Open"
	ColHigh     = "High"
	ColLow      = "Low"
	ColClose    = "Close"
	ColVolume   = "Volume"
	ColAdjClose = "Adj_Close"
)

// RequiredColumns must be populated on every Dataset leaving the cascade.
var RequiredColumns = []string{ColDate, ColOpen, ColHigh, ColLow, ColClose}

// Candle is one trading day.
type Candle struct {
	Date   time.Time          `json:"Date"`
	Open   float64            `json:"Open"`
	High   float64            `json:"High"`
	Low    float64            `json:"Low"`
	Close  float64            `json:"Close"`
	Volume int64              `json:"Volume"`
	Extra  map[string]float64 `json:"Extra,omitempty"`
}

// Source identifies which cascade stage produced a dataset.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceArchive   Source = "archive"
	SourceSynthetic Source = "synthetic"
	SourceClient    Source = "client"
)

// Upstream reports whether the data came from a real market-data provider.
func (s Source) Upstream() bool {
	return s == SourcePrimary || s == SourceSecondary
}

// Dataset is an ordered sequence of candles with provenance.
type Dataset struct {
	Symbol  string   `json:"symbol"`
	Source  Source   `json:"source"`
	Label   string   `json:"source_label"`
	Columns []string `json:"columns"`
	Candles []Candle `json:"candles"`
}

// Len returns the number of candles.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Candles)
}

// HasColumn reports whether the named column was present at the source.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn records a column as present, keeping order of first appearance.
func (d *Dataset) AddColumn(name string) {
	if !d.HasColumn(name) {
		d.Columns = append(d.Columns, name)
	}
}

// Column returns the numeric series for a present column.
func (d *Dataset) Column(name string) ([]float64, bool) {
	if name == ColDate || !d.HasColumn(name) {
		return nil, false
	}
	out := make([]float64, len(d.Candles))
	for i := range d.Candles {
		v, ok := d.Candles[i].Value(name)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Dates returns the date of every candle.
func (d *Dataset) Dates() []time.Time {
	out := make([]time.Time, len(d.Candles))
	for i := range d.Candles {
		out[i] = d.Candles[i].Date
	}
	return out
}

// SortByDate orders candles ascending, keeping source order among equal dates.
func (d *Dataset) SortByDate() {
	sort.SliceStable(d.Candles, func(i, j int) bool {
		return d.Candles[i].Date.Before(d.Candles[j].Date)
	})
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Symbol:  d.Symbol,
		Source:  d.Source,
		Label:   d.Label,
		Columns: append([]string(nil), d.Columns...),
		Candles: make([]Candle, len(d.Candles)),
	}
	for i, c := range d.Candles {
		if c.Extra != nil {
			extra := make(map[string]float64, len(c.Extra))
			for k, v := range c.Extra {
				extra[k] = v
			}
			c.Extra = extra
		}
		out.Candles[i] = c
	}
	return out
}

// Value returns a numeric field by column name.
func (c *Candle) Value(name string) (float64, bool) {
	switch name {
	case ColOpen:
		return c.Open, true
	case ColHigh:
		return c.High, true
	case ColLow:
		return c.Low, true
	case ColClose:
		return c.Close, true
	case ColVolume:
		return float64(c.Volume), true
	}
	v, ok := c.Extra[name]
	return v, ok
}

// SetValue assigns a numeric field by column name.
func (c *Candle) SetValue(name string, v float64) {
	switch name {
	case ColOpen:
		c.Open = v
	case ColHigh:
		c.High = v
	case ColLow:
		c.Low = v
	case ColClose:
		c.Close = v
	case ColVolume:
		c.Volume = int64(v)
	default:
		if c.Extra == nil {
			c.Extra = make(map[string]float64)
		}
		c.Extra[name] = v
	}
}

// Records flattens the dataset into row maps keyed by column, dates as YYYY-MM-DD.
func (d *Dataset) Records() []map[string]any {
	out := make([]map[string]any, len(d.Candles))
	for i := range d.Candles {
		row := make(map[string]any, len(d.Columns))
		for _, col := range d.Columns {
			if col == ColDate {
				row[col] = d.Candles[i].Date.Format(DateLayout)
				continue
			}
			if col == ColVolume {
				row[col] = d.Candles[i].Volume
				continue
			}
			if v, ok := d.Candles[i].Value(col); ok {
				row[col] = v
			}
		}
		out[i] = row
	}
	return out
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"
