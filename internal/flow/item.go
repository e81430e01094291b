package flow

import (
	"sort"
	"time"
)

// Category is the workflow bucket a raw status name resolves to.
type Category int

const (
	CategoryUnmapped Category = iota
	CategoryInitial
	CategoryInProgress
	CategoryDone
	CategoryIgnored
)

func (c Category) String() string {
	switch c {
	case CategoryInitial:
		return "initial"
	case CategoryInProgress:
		return "in_progress"
	case CategoryDone:
		return "done"
	case CategoryIgnored:
		return "ignored"
	default:
		return "unmapped"
	}
}

// StatusTransition is a single status change recorded in an item's history.
type StatusTransition struct {
	Date       time.Time `json:"date"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
}

// WorkItem is the normalized view of a tracker issue. All analysis code
// operates on this shape; tracker quirks stop at the mapper.
type WorkItem struct {
	ID             string             `json:"id"`
	Project        string             `json:"project"`
	Type           string             `json:"type"`
	Status         string             `json:"status"`
	Created        time.Time          `json:"created"`
	Resolved       *time.Time         `json:"resolved,omitempty"`
	CompletedField *time.Time         `json:"completedField,omitempty"`
	DueDate        *time.Time         `json:"dueDate,omitempty"`
	Estimate       *float64           `json:"estimate,omitempty"`
	Transitions    []StatusTransition `json:"transitions,omitempty"`
}

// SortTransitions orders the history chronologically. The sort is stable so
// that entries sharing a timestamp keep their original file order, which the
// completion resolver relies on for tie-breaking.
func (w *WorkItem) SortTransitions() {
	sort.SliceStable(w.Transitions, func(i, j int) bool {
		return w.Transitions[i].Date.Before(w.Transitions[j].Date)
	})
}

// InitialStatus returns the status the item was born in: the FromStatus of
// the earliest transition, or the current status when no history exists.
func (w *WorkItem) InitialStatus() string {
	if len(w.Transitions) > 0 {
		return w.Transitions[0].FromStatus
	}
	return w.Status
}

// StatusAt reconstructs the status the item held at a point in time by
// replaying its history. Before creation it returns "".
func (w *WorkItem) StatusAt(t time.Time) string {
	if t.Before(w.Created) {
		return ""
	}
	current := w.InitialStatus()
	for _, tr := range w.Transitions {
		if tr.Date.After(t) {
			break
		}
		current = tr.ToStatus
	}
	return current
}

// CompletionMethod records which rule of the resolution ladder produced a
// completion timestamp.
type CompletionMethod string

const (
	MethodExplicitField      CompletionMethod = "explicit_field"
	MethodChangelog          CompletionMethod = "changelog_transition"
	MethodResolutionFallback CompletionMethod = "resolution_fallback"
	MethodUnresolved         CompletionMethod = "unresolved"
)

// CompletionRecord pairs an item with its resolved completion timestamp.
// CompletedAt is nil exactly when Method is MethodUnresolved.
type CompletionRecord struct {
	ItemID      string           `json:"itemId"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	Method      CompletionMethod `json:"method"`
}

// Completed reports whether the record carries a usable timestamp.
func (r CompletionRecord) Completed() bool {
	return r.CompletedAt != nil
}

// WarningKind labels a non-fatal data quality finding.
type WarningKind string

const (
	WarnMissingConfiguration  WarningKind = "missing_configuration"
	WarnTaxonomyOverlap       WarningKind = "taxonomy_overlap"
	WarnNegativeDuration      WarningKind = "negative_duration"
	WarnCycleExceedsLead      WarningKind = "cycle_exceeds_lead"
	WarnCompletedExceedsScope WarningKind = "completed_exceeds_scope"
	WarnMalformedHistory      WarningKind = "malformed_history"
)

// Warning is a data anomaly surfaced alongside results instead of failing
// the batch.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	ItemID  string      `json:"itemId,omitempty"`
	Message string      `json:"message"`
}
