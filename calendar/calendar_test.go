package calendar

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%s) error = %v", name, err)
	}
	return loc
}

func TestDayBoundaries_UseLocation(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	// 02:30 UTC on the 10th is still the evening of the 9th in New York.
	now := time.Date(2024, 1, 10, 2, 30, 0, 0, time.UTC)

	start := StartOfDay(now, ny)
	if want := time.Date(2024, 1, 9, 0, 0, 0, 0, ny); !start.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", start, want)
	}
	end := EndOfDay(now, ny)
	if want := time.Date(2024, 1, 10, 0, 0, 0, 0, ny).Add(-time.Nanosecond); !end.Equal(want) {
		t.Errorf("EndOfDay = %v, want %v", end, want)
	}
}

func TestWeekBoundaries(t *testing.T) {
	// Wednesday 2024-01-10.
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	if got, want := StartOfWeek(now, time.UTC), time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("StartOfWeek = %v, want %v", got, want)
	}
	if got, want := EndOfWeek(now, time.UTC), time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond); !got.Equal(want) {
		t.Errorf("EndOfWeek = %v, want %v", got, want)
	}

	sunday := time.Date(2024, 1, 7, 8, 0, 0, 0, time.UTC)
	if got := StartOfWeek(sunday, time.UTC); got.Day() != 7 {
		t.Errorf("StartOfWeek(sunday) day = %d, want 7", got.Day())
	}
}

func TestPast(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	r := Past(now, time.UTC)

	if !r.Start.Equal(time.Unix(0, 0)) {
		t.Errorf("Past start = %v, want epoch", r.Start)
	}
	if !r.Contains(time.Date(2024, 1, 9, 23, 59, 0, 0, time.UTC)) {
		t.Error("yesterday evening should be in the past range")
	}
	if r.Contains(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Error("start of today should not be in the past range")
	}
}

func TestParseDate(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	d, err := ParseDate("2024-03-01", ny)
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, ny); !d.Equal(want) {
		t.Errorf("ParseDate = %v, want %v", d, want)
	}

	ts, err := ParseDate("2024-03-01T10:00:00Z", ny)
	if err != nil {
		t.Fatalf("ParseDate(rfc3339) error = %v", err)
	}
	if ts.Hour() != 10 {
		t.Errorf("expected hour 10, got %d", ts.Hour())
	}

	if _, err := ParseDate("03/01/2024", ny); err == nil {
		t.Error("expected error for unsupported format")
	}
}
