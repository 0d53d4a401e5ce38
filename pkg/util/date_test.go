package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2025-06-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimePlainDate(t *testing.T) {
	got, ok := ParseTime("2025-06-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2025 || got.Month() != time.June || got.Day() != 10 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2025, 6, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if got := ParseTimeDefault("", def); !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestSameOrAfterDay(t *testing.T) {
	sig := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	bar := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if !SameOrAfterDay(bar, sig) {
		t.Fatalf("same day should count")
	}
	if SameOrAfterDay(bar.AddDate(0, 0, -1), sig) {
		t.Fatalf("prior day should not count")
	}
}

func TestNormalizeTicker(t *testing.T) {
	if got := NormalizeTicker(" aapl "); got != "AAPL" {
		t.Fatalf("got %q", got)
	}
}
