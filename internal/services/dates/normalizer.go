package dates

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/util"
)

var dayMonYear = regexp.MustCompile(`([0-9]{1,2}\s[A-Za-z]{3}\s[0-9]{4})`)

// explicitLayouts are tried in order after the mixed parse and the pattern
// extraction: YYYY-MM-DD, DD-MM-YYYY, MM/DD/YYYY, YYYY/MM/DD, DD/MM/YYYY.
var explicitLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"01/02/2006",
	"2006/01/02",
	"02/01/2006",
}

const day = 24 * time.Hour

// Report counts how many rows each stage resolved.
type Report struct {
	Rows        int
	Mixed       int
	Extracted   int
	Explicit    int
	Synthesized int
	WholeColumn bool
}

// Option configures Normalizer.
type Option func(*Normalizer)

// WithClock overrides the processing time used for synthesized dates.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithLogger attaches a structured logger.
func WithLogger(l *applogger.Logger) Option {
	return func(n *Normalizer) { n.l = l }
}

// Normalizer coerces a date column of unknown format into calendar dates.
type Normalizer struct {
	now func() time.Time
	l   *applogger.Logger
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize rewrites field on every row to a UTC calendar date and sorts the
// rows ascending. Row count is preserved; unparseable values get synthetic
// dates instead of being dropped.
func (n *Normalizer) Normalize(t *models.RawTable, field string) Report {
	rep := Report{Rows: t.Len()}
	if rep.Rows == 0 {
		if t != nil {
			t.AddColumn(field)
		}
		return rep
	}
	for i := range t.Rows {
		if t.Rows[i] == nil {
			t.Rows[i] = make(map[string]any)
		}
	}

	if !t.HasColumn(field) {
		n.synthesizeColumn(t, field)
		rep.WholeColumn = true
		rep.Synthesized = rep.Rows
		n.log(rep)
		return rep
	}

	parsed := make([]time.Time, rep.Rows)
	ok := make([]bool, rep.Rows)

	for i, row := range t.Rows {
		if v, good := util.ParseAny(row[field]); good {
			parsed[i], ok[i] = v, true
			rep.Mixed++
		}
	}
	for i, row := range t.Rows {
		if ok[i] {
			continue
		}
		s, isStr := row[field].(string)
		if !isStr {
			continue
		}
		if m := dayMonYear.FindString(s); m != "" {
			if v, err := time.Parse("2 Jan 2006", normalizeSpace(m)); err == nil {
				parsed[i], ok[i] = v, true
				rep.Extracted++
			}
		}
	}
	for i, row := range t.Rows {
		if ok[i] {
			continue
		}
		s, isStr := row[field].(string)
		if !isStr {
			continue
		}
		s = strings.TrimSpace(s)
		for _, layout := range explicitLayouts {
			if v, err := time.Parse(layout, s); err == nil {
				parsed[i], ok[i] = v, true
				rep.Explicit++
				break
			}
		}
	}

	rep.Synthesized = rep.Rows - rep.Mixed - rep.Extracted - rep.Explicit
	if rep.Synthesized > 0 {
		anchor := util.CalendarDate(n.now())
		found := false
		for i := range parsed {
			if !ok[i] {
				continue
			}
			d := util.CalendarDate(parsed[i])
			if !found || d.After(anchor) {
				anchor, found = d, true
			}
		}
		next := anchor.Add(-time.Duration(rep.Synthesized) * day)
		for i := range parsed {
			if ok[i] {
				continue
			}
			parsed[i], ok[i] = next, true
			next = next.Add(day)
		}
	}

	for i := range t.Rows {
		t.Rows[i][field] = util.CalendarDate(parsed[i])
	}
	sortRows(t.Rows, field)
	n.log(rep)
	return rep
}

// synthesizeColumn fills the whole column with a daily run ending now.
func (n *Normalizer) synthesizeColumn(t *models.RawTable, field string) {
	end := util.CalendarDate(n.now())
	count := len(t.Rows)
	for i := range t.Rows {
		t.Rows[i][field] = end.Add(-time.Duration(count-1-i) * day)
	}
	t.AddColumn(field)
}

func (n *Normalizer) log(rep Report) {
	if n.l == nil {
		return
	}
	if rep.Synthesized > 0 {
		n.l.Warn("dates synthesized",
			applogger.Int("rows", rep.Rows),
			applogger.Int("synthesized", rep.Synthesized),
			applogger.Bool("whole_column", rep.WholeColumn),
		)
		return
	}
	n.l.Debug("dates normalized",
		applogger.Int("rows", rep.Rows),
		applogger.Int("mixed", rep.Mixed),
		applogger.Int("extracted", rep.Extracted),
		applogger.Int("explicit", rep.Explicit),
	)
}

func sortRows(rows []map[string]any, field string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := rows[i][field].(time.Time)
		b, _ := rows[j][field].(time.Time)
		return a.Before(b)
	})
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
