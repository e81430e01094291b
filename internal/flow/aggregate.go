package flow

import (
	"sort"
	"time"
)

// Throughput counts completions whose timestamp falls inside the window,
// both endpoints inclusive. Inputs are normalized to day boundaries so a
// completion at any time on the end date still counts.
func Throughput(records []CompletionRecord, start, end time.Time) int {
	lo := startOfDay(start)
	hi := endOfDay(end)
	count := 0
	for _, rec := range records {
		if rec.CompletedAt == nil {
			continue
		}
		if !rec.CompletedAt.Before(lo) && !rec.CompletedAt.After(hi) {
			count++
		}
	}
	return count
}

// ThroughputBucket is one bar of a bucketed throughput chart.
type ThroughputBucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// ThroughputSeries buckets completions over a window. Every bucket is
// emitted even when empty.
func ThroughputSeries(records []CompletionRecord, w Window) []ThroughputBucket {
	starts := w.Subdivide()
	buckets := make([]ThroughputBucket, len(starts))
	for i, s := range starts {
		buckets[i] = ThroughputBucket{Label: w.Label(s), Start: s}
	}
	for _, rec := range records {
		if rec.CompletedAt == nil {
			continue
		}
		if idx := w.FindBucketIndex(*rec.CompletedAt); idx >= 0 && idx < len(buckets) {
			buckets[idx].Count++
		}
	}
	return buckets
}

// CumulativeFlow builds a day-by-day census of where every item sat at the
// end of each day. Each created item occupies exactly one status column per
// day, so the columns always sum to the number of items created by that
// day. Items with no recorded birth status are parked in a synthetic
// "Created" column.
func CumulativeFlow(items []*WorkItem, start, end time.Time) *MetricSeries {
	columns := map[string]bool{}
	for _, item := range items {
		birth := item.InitialStatus()
		if birth == "" {
			birth = "Created"
		}
		columns[birth] = true
		for _, tr := range item.Transitions {
			if tr.ToStatus != "" {
				columns[tr.ToStatus] = true
			}
		}
	}
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	series := NewMetricSeries(start, end, names...)
	for i, day := range series.Dates {
		eod := endOfDay(day)
		for _, item := range items {
			status := item.StatusAt(eod)
			if status == "" {
				if item.Created.After(eod) {
					continue // not yet created
				}
				status = "Created"
			}
			col := series.Column(status)
			col[i]++
		}
	}
	return series
}

// WIPAgeEntry is one row of the aging report for in-flight work.
type WIPAgeEntry struct {
	ItemID       string    `json:"itemId"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	AgeDays      int       `json:"ageDays"`
	LastActivity time.Time `json:"lastActivity"`
}

// classifier resolves a status for a specific item, letting callers route
// through per-project taxonomies.
type classifier func(item *WorkItem, status string) Category

// WIPAging reports every in-flight item with its age in business days since
// the last status change, oldest first. Items in initial, done, or ignored
// statuses are excluded; unmapped statuses count as in flight.
func WIPAging(items []*WorkItem, classify classifier, today time.Time) []WIPAgeEntry {
	var entries []WIPAgeEntry
	for _, item := range items {
		switch classify(item, item.Status) {
		case CategoryInProgress, CategoryUnmapped:
		default:
			continue
		}
		anchor := item.Created
		if n := len(item.Transitions); n > 0 {
			anchor = item.Transitions[n-1].Date
		}
		entries = append(entries, WIPAgeEntry{
			ItemID:       item.ID,
			Type:         item.Type,
			Status:       item.Status,
			AgeDays:      BusinessDaysBetween(anchor, today),
			LastActivity: anchor,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AgeDays != entries[j].AgeDays {
			return entries[i].AgeDays > entries[j].AgeDays
		}
		return entries[i].ItemID < entries[j].ItemID
	})
	return entries
}
