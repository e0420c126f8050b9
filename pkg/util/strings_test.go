package util

import (
	"reflect"
	"testing"
)

func TestParseIntDefault(t *testing.T) {
	cases := map[string]int{"": 7, "abc": 7, " 9090 ": 9090, "-1": -1}
	for in, want := range cases {
		if got := ParseIntDefault(in, 7); got != want {
			t.Fatalf("ParseIntDefault(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" stooq, ,yahoo,,")
	if want := []string{"stooq", "yahoo"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitList = %v, want %v", got, want)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}
