package flow

import (
	"testing"
	"time"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // a Monday

func day(n int) time.Time {
	return base.AddDate(0, 0, n)
}

func TestResolveCompletionExplicitFieldWins(t *testing.T) {
	r := NewResolver(testTaxonomy())
	fieldDate := day(3)
	item := &WorkItem{
		ID:             "A-1",
		Status:         "Done",
		Created:        base,
		CompletedField: &fieldDate,
		Resolved:       ptrTime(day(5)),
		Transitions: []StatusTransition{
			{Date: day(4), FromStatus: "In Progress", ToStatus: "Done"},
		},
	}

	rec := ResolveCompletion(item, "customfield_10100", r)
	if rec.Method != MethodExplicitField {
		t.Fatalf("Method = %v, want explicit_field", rec.Method)
	}
	if !rec.CompletedAt.Equal(fieldDate) {
		t.Errorf("CompletedAt = %v, want %v", rec.CompletedAt, fieldDate)
	}
}

func TestResolveCompletionLatestDoneTransition(t *testing.T) {
	r := NewResolver(testTaxonomy())
	item := &WorkItem{
		ID:      "A-2",
		Status:  "Done",
		Created: base,
		Transitions: []StatusTransition{
			{Date: day(1), FromStatus: "Open", ToStatus: "In Progress"},
			{Date: day(2), FromStatus: "In Progress", ToStatus: "Done"},
			{Date: day(3), FromStatus: "Done", ToStatus: "In Progress"}, // reopened
			{Date: day(6), FromStatus: "In Progress", ToStatus: "Done"},
		},
	}

	rec := ResolveCompletion(item, "", r)
	if rec.Method != MethodChangelog {
		t.Fatalf("Method = %v, want changelog_transition", rec.Method)
	}
	if !rec.CompletedAt.Equal(day(6)) {
		t.Errorf("CompletedAt = %v, want the later done transition %v", rec.CompletedAt, day(6))
	}
}

func TestResolveCompletionSameTimestampTieBreak(t *testing.T) {
	r := NewResolver(testTaxonomy())
	at := day(2)
	item := &WorkItem{
		ID:      "A-3",
		Status:  "Closed",
		Created: base,
		Transitions: []StatusTransition{
			{Date: at, FromStatus: "In Progress", ToStatus: "Done"},
			{Date: at, FromStatus: "Done", ToStatus: "Closed"},
		},
	}
	item.SortTransitions()

	rec := ResolveCompletion(item, "", r)
	if rec.Method != MethodChangelog {
		t.Fatalf("Method = %v, want changelog_transition", rec.Method)
	}
	// Both entries share a timestamp; the later file entry must win.
	if !rec.CompletedAt.Equal(at) {
		t.Errorf("CompletedAt = %v, want %v", rec.CompletedAt, at)
	}
}

func TestResolveCompletionResolutionFallback(t *testing.T) {
	r := NewResolver(testTaxonomy())
	resolved := day(4)
	item := &WorkItem{
		ID:       "A-4",
		Status:   "Done",
		Created:  base,
		Resolved: &resolved,
		// No changelog at all: imported item.
	}

	rec := ResolveCompletion(item, "", r)
	if rec.Method != MethodResolutionFallback {
		t.Fatalf("Method = %v, want resolution_fallback", rec.Method)
	}
	if !rec.CompletedAt.Equal(resolved) {
		t.Errorf("CompletedAt = %v, want %v", rec.CompletedAt, resolved)
	}
}

func TestResolveCompletionUnresolved(t *testing.T) {
	r := NewResolver(testTaxonomy())
	item := &WorkItem{
		ID:      "A-5",
		Status:  "In Progress",
		Created: base,
		Transitions: []StatusTransition{
			{Date: day(1), FromStatus: "Open", ToStatus: "In Progress"},
		},
	}

	rec := ResolveCompletion(item, "", r)
	if rec.Method != MethodUnresolved {
		t.Fatalf("Method = %v, want unresolved", rec.Method)
	}
	if rec.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil", rec.CompletedAt)
	}
}

func TestResolveCompletionNoDoneStatuses(t *testing.T) {
	// Without done statuses the changelog and fallback rules can never
	// fire, even for items sitting in a terminal-looking status.
	r := NewResolver(Taxonomy{Initial: []string{"Open"}})
	item := &WorkItem{
		ID:       "A-6",
		Status:   "Done",
		Created:  base,
		Resolved: ptrTime(day(2)),
		Transitions: []StatusTransition{
			{Date: day(2), FromStatus: "Open", ToStatus: "Done"},
		},
	}

	rec := ResolveCompletion(item, "", r)
	if rec.Method != MethodUnresolved {
		t.Errorf("Method = %v, want unresolved", rec.Method)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrFloat(v float64) *float64 { return &v }
