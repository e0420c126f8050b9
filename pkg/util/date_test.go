package util

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeNamedMonths(t *testing.T) {
	want := time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2023-03-05", "Mar 5, 2023", "5 Mar 2023", "March 5, 2023", "20230305", "Sun, 05 Mar 2023 00:00:00 GMT"} {
		got, ok := ParseTime(s)
		if !ok {
			t.Fatalf("%q: expected ok", s)
		}
		if !CalendarDate(got).Equal(want) {
			t.Fatalf("%q: got %v", s, got)
		}
	}
}

func TestParseTimeRejectsAmbiguousNumeric(t *testing.T) {
	for _, s := range []string{"05/03/2023", "13-02-2023", "garbage", ""} {
		if _, ok := ParseTime(s); ok {
			t.Fatalf("%q: expected not ok", s)
		}
	}
}

func TestParseTimeShortDigitStrings(t *testing.T) {
	for _, s := range []string{"2024", "123", "7", "12345678", "-1700000000"} {
		if got, ok := ParseTime(s); ok {
			t.Fatalf("%q: expected not ok, got %v", s, got)
		}
	}
	got, ok := ParseTime("20240115")
	if !ok {
		t.Fatalf("expected ok for YYYYMMDD")
	}
	if !got.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}
	got, ok = ParseTime("1700000000123")
	if !ok || got.UnixMilli() != 1700000000123 {
		t.Fatalf("unexpected millis %v %v", got, ok)
	}
}

func TestParseAnyShapes(t *testing.T) {
	ms := time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	cases := []any{
		time.Date(2022, 1, 2, 15, 0, 0, 0, time.FixedZone("X", 3600)),
		float64(ms),
		json.Number(strconv.FormatInt(ms, 10)),
		"2022-01-02",
		20220102,
	}
	for _, c := range cases {
		got, ok := ParseAny(c)
		if !ok {
			t.Fatalf("%v: expected ok", c)
		}
		if CalendarDate(got).Format("2006-01-02") != "2022-01-02" {
			t.Fatalf("%v: got %v", c, got)
		}
	}
	if _, ok := ParseAny(nil); ok {
		t.Fatalf("nil: expected not ok")
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestDaysInclusive(t *testing.T) {
	s := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	e := time.Date(2024, 1, 10, 1, 0, 0, 0, time.UTC)
	if got := DaysInclusive(s, e); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := DaysInclusive(e, s); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
