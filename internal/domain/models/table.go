package models

import "sort"

// RawTable is a heterogeneous table as received from a provider or a client:
// ordered column names and one map per row. Values are left untyped until the
// dates are normalized and the numerics parsed.
type RawTable struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// NewRawTable builds a table from records, deriving the column order from the
// first row that carries each key.
func NewRawTable(records []map[string]any) *RawTable {
	t := &RawTable{Rows: records}
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, k := range sortedKeys(r) {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			t.Columns = append(t.Columns, k)
		}
	}
	return t
}

// Len returns the row count.
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the column is declared.
func (t *RawTable) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn declares a column if missing.
func (t *RawTable) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// sortedKeys puts Date first, the OHLCV columns next, the rest alphabetically,
// so JSON-decoded maps produce a stable column order.
func sortedKeys(m map[string]any) []string {
	rank := map[string]int{ColDate: 0, ColOpen: 1, ColHigh: 2, ColLow: 3, ColClose: 4, ColAdjClose: 5, ColVolume: 6}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	less := func(a, b string) bool {
		ra, oka := rank[a]
		rb, okb := rank[b]
		switch {
		case oka && okb:
			return ra < rb
		case oka:
			return true
		case okb:
			return false
		}
		return a < b
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}
