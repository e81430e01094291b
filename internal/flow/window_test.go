package flow

import (
	"testing"
	"time"
)

func TestSnapWeekToMonday(t *testing.T) {
	thursday := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	start := SnapToStart(thursday, "week")
	if start.Weekday() != time.Monday {
		t.Errorf("Week start weekday = %v, want Monday", start.Weekday())
	}
	if start.Day() != 2 {
		t.Errorf("Week start day = %d, want 2", start.Day())
	}

	end := SnapToEnd(thursday, "week")
	if end.Weekday() != time.Sunday {
		t.Errorf("Week end weekday = %v, want Sunday", end.Weekday())
	}
}

func TestSubdivideAndIndex(t *testing.T) {
	w := NewWindow(base, base.AddDate(0, 0, 6), "day")
	buckets := w.Subdivide()
	if len(buckets) != 7 {
		t.Fatalf("Expected 7 day buckets, got %d", len(buckets))
	}
	if idx := w.FindBucketIndex(base.AddDate(0, 0, 3).Add(5 * time.Hour)); idx != 3 {
		t.Errorf("FindBucketIndex = %d, want 3", idx)
	}
	if idx := w.FindBucketIndex(base.AddDate(0, 0, 10)); idx != -1 {
		t.Errorf("FindBucketIndex out of range = %d, want -1", idx)
	}
}

func TestBucketIndexAcrossSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// US clocks jump forward on 2026-03-08, making it a 23-hour day.
	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, loc)
	w := NewWindow(friday, friday.AddDate(0, 0, 6), "day")
	monday := time.Date(2026, 3, 9, 12, 0, 0, 0, loc)
	if idx := w.FindBucketIndex(monday); idx != 3 {
		t.Errorf("FindBucketIndex across DST = %d, want 3", idx)
	}

	series := NewMetricSeries(friday, friday.AddDate(0, 0, 6))
	if idx := series.DayIndex(monday); idx != 3 {
		t.Errorf("DayIndex across DST = %d, want 3", idx)
	}

	weekly := NewWindow(time.Date(2026, 3, 2, 0, 0, 0, 0, loc), time.Date(2026, 3, 15, 0, 0, 0, 0, loc), "week")
	if idx := weekly.FindBucketIndex(monday); idx != 1 {
		t.Errorf("Week index across DST = %d, want 1", idx)
	}
}

func TestWindowLabels(t *testing.T) {
	d := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if got := NewWindow(d, d, "day").Label(d); got != "2026-01-05" {
		t.Errorf("day label = %q", got)
	}
	if got := NewWindow(d, d, "week").Label(d); got != "2026-W02" {
		t.Errorf("week label = %q", got)
	}
	if got := NewWindow(d, d, "month").Label(d); got != "Jan 2026" {
		t.Errorf("month label = %q", got)
	}
}

func TestBusinessDaysBetween(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		from, to time.Time
		want     int
	}{
		{monday, monday, 0},
		{monday, monday.AddDate(0, 0, 1), 1},
		{monday, monday.AddDate(0, 0, 5), 5}, // Mon..Sat spans the work week
		{monday, monday.AddDate(0, 0, 7), 5}, // full week skips the weekend
		{monday, monday.AddDate(0, 0, 14), 10},
		{monday.AddDate(0, 0, 5), monday.AddDate(0, 0, 7), 0}, // Sat to Mon
		{monday, monday.AddDate(0, 0, -3), 0},                 // reversed
	}
	for _, tc := range cases {
		if got := BusinessDaysBetween(tc.from, tc.to); got != tc.want {
			t.Errorf("BusinessDaysBetween(%s, %s) = %d, want %d",
				tc.from.Format("2006-01-02"), tc.to.Format("2006-01-02"), got, tc.want)
		}
	}
}
