package flow

import (
	"fmt"
	"time"
)

// UnitFunc measures how much a single item contributes to scope. Charts are
// parameterized on it so the same code serves counts and estimates.
type UnitFunc func(item *WorkItem) float64

// CountUnit weighs every item as one.
func CountUnit(*WorkItem) float64 { return 1 }

// EstimateUnit weighs an item by its estimate, or zero when unestimated.
func EstimateUnit(item *WorkItem) float64 {
	if item.Estimate != nil {
		return *item.Estimate
	}
	return 0
}

// Burndown charts remaining scope over a fixed interval against a straight
// ideal line from total scope at the start to zero at the end. An item
// stops counting as remaining on the day its completion lands.
func Burndown(items []*WorkItem, records map[string]CompletionRecord, start, end time.Time, unit UnitFunc) *MetricSeries {
	series := NewMetricSeries(start, end, "remaining", "ideal")
	if series.Len() == 0 {
		return series
	}

	total := 0.0
	for _, item := range items {
		total += unit(item)
	}

	span := float64(series.Len() - 1)
	remaining := series.Column("remaining")
	ideal := series.Column("ideal")
	for i, day := range series.Dates {
		eod := endOfDay(day)
		done := 0.0
		for _, item := range items {
			rec, ok := records[item.ID]
			if ok && rec.CompletedAt != nil && !rec.CompletedAt.After(eod) {
				done += unit(item)
			}
		}
		remaining[i] = total - done
		if span > 0 {
			ideal[i] = total * (span - float64(i)) / span
		}
	}
	return series
}

// Burnup charts total scope and completed work from the first item's
// creation through asOf. Both columns are non-decreasing by construction;
// completed exceeding scope can only come from corrupt timestamps and is
// flagged rather than clamped.
func Burnup(items []*WorkItem, records map[string]CompletionRecord, asOf time.Time, unit UnitFunc) (*MetricSeries, []Warning) {
	if len(items) == 0 {
		return NewMetricSeries(asOf, asOf.AddDate(0, 0, -1)), nil
	}

	earliest := items[0].Created
	for _, item := range items[1:] {
		if item.Created.Before(earliest) {
			earliest = item.Created
		}
	}

	series := NewMetricSeries(earliest, asOf, "scope", "completed")
	scope := series.Column("scope")
	completed := series.Column("completed")

	var warnings []Warning
	for i, day := range series.Dates {
		eod := endOfDay(day)
		for _, item := range items {
			if !item.Created.After(eod) {
				scope[i] += unit(item)
			}
			rec, ok := records[item.ID]
			if ok && rec.CompletedAt != nil && !rec.CompletedAt.After(eod) {
				completed[i] += unit(item)
			}
		}
		if completed[i] > scope[i] && warnings == nil {
			warnings = append(warnings, Warning{
				Kind:    WarnCompletedExceedsScope,
				Message: fmt.Sprintf("completed %.1f exceeds scope %.1f on %s", completed[i], scope[i], day.Format("2006-01-02")),
			})
		}
	}
	return series, warnings
}
