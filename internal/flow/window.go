package flow

import (
	"fmt"
	"time"
)

// Window is the temporal frame for a bucketed query. Boundaries are snapped
// to bucket edges at construction so consumers never see ragged partials at
// the front.
type Window struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Bucket string    `json:"bucket"` // "day", "week", "month"
}

// NewWindow builds a window with normalized boundaries. An empty bucket
// defaults to "day".
func NewWindow(start, end time.Time, bucket string) Window {
	if bucket == "" {
		bucket = "day"
	}
	return Window{
		Start:  SnapToStart(start, bucket),
		End:    SnapToEnd(end, bucket),
		Bucket: bucket,
	}
}

// SnapToStart normalizes a timestamp to the beginning of its bucket. Weeks
// start on Monday.
func SnapToStart(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	switch bucket {
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case "week":
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()-(weekday-1), 0, 0, 0, 0, t.Location())
	default: // day
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// SnapToEnd normalizes a timestamp to the last nanosecond of its bucket.
func SnapToEnd(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	switch bucket {
	case "month":
		next := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
		return next.Add(-time.Nanosecond)
	case "week":
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()+(7-weekday), 23, 59, 59, 999999999, t.Location())
	default: // day
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
	}
}

// Subdivide returns the start time of every bucket inside the window.
func (w Window) Subdivide() []time.Time {
	var buckets []time.Time
	current := w.Start
	for current.Before(w.End) {
		buckets = append(buckets, current)
		switch w.Bucket {
		case "month":
			current = current.AddDate(0, 1, 0)
		case "week":
			current = current.AddDate(0, 0, 7)
		default:
			current = current.AddDate(0, 0, 1)
		}
	}
	return buckets
}

// FindBucketIndex returns the index of the bucket containing t, or -1 when
// t falls outside the window.
func (w Window) FindBucketIndex(t time.Time) int {
	norm := SnapToStart(t, w.Bucket)
	if norm.Before(w.Start) || norm.After(w.End) {
		return -1
	}
	switch w.Bucket {
	case "month":
		return (norm.Year()-w.Start.Year())*12 + int(norm.Month()-w.Start.Month())
	case "week":
		// Calendar-day counting keeps 23- and 25-hour DST days honest.
		return daysBetween(w.Start, norm) / 7
	default:
		return daysBetween(w.Start, norm)
	}
}

// Label returns a human-readable label for a bucket start.
func (w Window) Label(t time.Time) string {
	switch w.Bucket {
	case "month":
		return t.Format("Jan 2006")
	case "week":
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return t.Format("2006-01-02")
	}
}

// BusinessDaysBetween counts Monday-to-Friday days elapsed from one date to
// another. Same-day and reversed inputs yield zero.
func BusinessDaysBetween(from, to time.Time) int {
	day := startOfDay(from)
	last := startOfDay(to)
	count := 0
	for day.Before(last) {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}
