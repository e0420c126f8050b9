package util

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// mixedLayouts are the unambiguous layouts tried by ParseTime, in order.
// Day/month ordered numeric forms are left to the caller.
var mixedLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"2006.01.02",
}

// ParseTime tries the mixed layouts, compact YYYYMMDD and unix seconds or
// milliseconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range mixedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if !allDigits(s) {
		return time.Time{}, false
	}
	// Eight digits is YYYYMMDD only; epoch values need at least nine so a
	// bare year or counter never lands in 1970.
	switch n := len(s); {
	case n == 8:
		if t, err := time.Parse("20060102", s); err == nil {
			return t, true
		}
	case n >= 9:
		if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
			return fromNumber(float64(ts))
		}
	}
	return time.Time{}, false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// ParseAny accepts the value shapes found in decoded JSON and CSV cells.
func ParseAny(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	case string:
		return ParseTime(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromNumber(f)
	case float64:
		return fromNumber(x)
	case float32:
		return fromNumber(float64(x))
	case int:
		return fromNumber(float64(x))
	case int64:
		return fromNumber(float64(x))
	case int32:
		return fromNumber(float64(x))
	}
	return time.Time{}, false
}

// fromNumber reads YYYYMMDD, unix seconds, or unix milliseconds.
func fromNumber(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}, false
	}
	if f >= 19000101 && f <= 21001231 && f == math.Trunc(f) {
		if t, err := time.Parse("20060102", strconv.FormatInt(int64(f), 10)); err == nil {
			return t, true
		}
	}
	if f >= 1e11 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Unix(int64(f), 0).UTC(), true
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// CalendarDate keeps the wall-clock date of t and drops time of day and zone.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysInclusive counts calendar days from start to end, both included.
// Returns 0 when end is before start.
func DaysInclusive(start, end time.Time) int {
	s, e := CalendarDate(start), CalendarDate(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}
