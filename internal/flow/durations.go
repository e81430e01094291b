package flow

import (
	"fmt"
	"strings"
	"time"
)

// StatusSegment is a contiguous interval an item spent in one status.
type StatusSegment struct {
	Status string
	Start  time.Time
	End    time.Time
}

// statusSegments rebuilds the residency timeline for an item: creation to
// first transition in the birth status, one segment per transition, and an
// open tail capped at asOf.
func statusSegments(item *WorkItem, asOf time.Time) []StatusSegment {
	if asOf.Before(item.Created) {
		return nil
	}
	var segs []StatusSegment
	cursor := item.Created
	status := item.InitialStatus()
	for _, tr := range item.Transitions {
		if tr.Date.After(asOf) {
			break
		}
		if tr.Date.After(cursor) {
			segs = append(segs, StatusSegment{Status: status, Start: cursor, End: tr.Date})
		}
		cursor = tr.Date
		status = tr.ToStatus
	}
	if asOf.After(cursor) {
		segs = append(segs, StatusSegment{Status: status, Start: cursor, End: asOf})
	}
	return segs
}

// LeadTime measures creation to completion in whole days, floored. A nil
// result means the duration is undefined for this item. A completion
// timestamp earlier than creation is reported as an anomaly instead of a
// negative duration.
func LeadTime(item *WorkItem, rec CompletionRecord) (*int, []Warning) {
	if rec.CompletedAt == nil {
		return nil, nil
	}
	d := rec.CompletedAt.Sub(item.Created)
	if d < 0 {
		return nil, []Warning{{
			Kind:    WarnNegativeDuration,
			ItemID:  item.ID,
			Message: fmt.Sprintf("completion %s precedes creation %s", rec.CompletedAt.Format(time.RFC3339), item.Created.Format(time.RFC3339)),
		}}
	}
	days := int(d.Hours() / 24)
	return &days, nil
}

// CycleTime measures from the first exit out of an initial-category status
// to completion, in whole days floored. Items that never left the initial
// category have no cycle time.
func CycleTime(item *WorkItem, rec CompletionRecord, res *Resolver) (*int, []Warning) {
	if rec.CompletedAt == nil {
		return nil, nil
	}
	var start *time.Time
	for _, tr := range item.Transitions {
		if res.Classify(tr.FromStatus) == CategoryInitial && res.Classify(tr.ToStatus) != CategoryInitial {
			d := tr.Date
			start = &d
			break
		}
	}
	if start == nil {
		return nil, nil
	}
	d := rec.CompletedAt.Sub(*start)
	if d < 0 {
		return nil, []Warning{{
			Kind:    WarnNegativeDuration,
			ItemID:  item.ID,
			Message: fmt.Sprintf("completion %s precedes work start %s", rec.CompletedAt.Format(time.RFC3339), start.Format(time.RFC3339)),
		}}
	}
	days := int(d.Hours() / 24)
	return &days, nil
}

// checkDurations cross-validates the two headline durations. Cycle time
// exceeding lead time is impossible with clean data, so it surfaces as an
// anomaly rather than being silently clamped.
func checkDurations(itemID string, lead, cycle *int) []Warning {
	if lead == nil || cycle == nil || *cycle <= *lead {
		return nil
	}
	return []Warning{{
		Kind:    WarnCycleExceedsLead,
		ItemID:  itemID,
		Message: fmt.Sprintf("cycle time %dd exceeds lead time %dd", *cycle, *lead),
	}}
}

// TimeInStatus sums the days an item spent in any of the target statuses,
// as of the given instant. Open residency in a target status is counted up
// to asOf. Matching is case-insensitive.
func TimeInStatus(item *WorkItem, targets []string, asOf time.Time) float64 {
	want := lowerSet(targets)
	var total time.Duration
	for _, seg := range statusSegments(item, asOf) {
		if want[strings.ToLower(strings.TrimSpace(seg.Status))] {
			total += seg.End.Sub(seg.Start)
		}
	}
	return total.Hours() / 24
}
