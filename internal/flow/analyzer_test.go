package flow

import (
	"context"
	"testing"
)

func analyzerConfig() Config {
	return Config{
		Taxonomy:      testTaxonomy(),
		TrailingWeeks: 4,
		Workers:       2,
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	asOf := day(14)
	items := []*WorkItem{
		{
			ID: "P-1", Project: "P", Status: "Done", Created: day(0),
			DueDate: ptrTime(day(10)),
			Transitions: []StatusTransition{
				{Date: day(2), FromStatus: "Open", ToStatus: "In Progress"},
				{Date: day(8), FromStatus: "In Progress", ToStatus: "Done"},
			},
		},
		{
			ID: "P-2", Project: "P", Status: "In Progress", Created: day(3),
			Transitions: []StatusTransition{
				{Date: day(5), FromStatus: "Open", ToStatus: "In Progress"},
			},
		},
		{ID: "P-3", Project: "P", Status: "Open", Created: day(6)},
		{ID: "", Created: day(1)}, // malformed, must be skipped with a warning
	}

	a, err := Analyze(context.Background(), items, analyzerConfig(), asOf)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(a.Records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(a.Records))
	}
	if a.Summary.TotalItems != 3 || a.Summary.CompletedItems != 1 {
		t.Errorf("Summary totals = %d/%d, want 3/1", a.Summary.TotalItems, a.Summary.CompletedItems)
	}
	if a.Summary.MedianLeadDays != 8 {
		t.Errorf("MedianLeadDays = %v, want 8", a.Summary.MedianLeadDays)
	}
	if a.Summary.ItemsWithDueDate != 1 || a.Summary.ScheduleAdherence != 1 {
		t.Errorf("Schedule adherence = %v over %d items, want 1 over 1",
			a.Summary.ScheduleAdherence, a.Summary.ItemsWithDueDate)
	}

	rec := a.Records[0]
	if rec.ID != "P-1" || rec.Method != MethodChangelog {
		t.Errorf("P-1 record = %+v", rec)
	}
	if rec.LeadTimeDays == nil || *rec.LeadTimeDays != 8 {
		t.Errorf("P-1 lead = %v, want 8", rec.LeadTimeDays)
	}
	if rec.CycleTimeDays == nil || *rec.CycleTimeDays != 6 {
		t.Errorf("P-1 cycle = %v, want 6", rec.CycleTimeDays)
	}

	foundMalformed := false
	for _, w := range a.Warnings {
		if w.Kind == WarnMalformedHistory {
			foundMalformed = true
		}
	}
	if !foundMalformed {
		t.Error("Expected a malformed_history warning for the skipped item")
	}

	// The CFD and burnup must cover creation through asOf.
	if a.CFD.Len() != 15 || a.Burnup.Len() != 15 {
		t.Errorf("Series lengths = %d/%d, want 15/15", a.CFD.Len(), a.Burnup.Len())
	}
	if len(a.WIPAging) != 1 || a.WIPAging[0].ItemID != "P-2" {
		t.Errorf("WIPAging = %+v, want only P-2", a.WIPAging)
	}
}

func TestAnalyzeMissingConfigurationDegrades(t *testing.T) {
	// Without done statuses the run must still complete: every item comes
	// back unresolved with undefined durations, flagged once.
	cfg := Config{Taxonomy: Taxonomy{Initial: []string{"Open"}}}
	items := []*WorkItem{
		{
			ID: "M-1", Status: "Done", Created: day(0),
			Resolved: ptrTime(day(3)),
			Transitions: []StatusTransition{
				{Date: day(3), FromStatus: "Open", ToStatus: "Done"},
			},
		},
		{ID: "M-2", Status: "Open", Created: day(1)},
	}

	a, err := Analyze(context.Background(), items, cfg, day(5))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(a.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(a.Records))
	}
	for _, rec := range a.Records {
		if rec.Method != MethodUnresolved {
			t.Errorf("%s method = %v, want unresolved", rec.ID, rec.Method)
		}
		if rec.LeadTimeDays != nil || rec.CycleTimeDays != nil {
			t.Errorf("%s durations should be undefined", rec.ID)
		}
	}

	missing := 0
	for _, w := range a.Warnings {
		if w.Kind == WarnMissingConfiguration {
			missing++
		}
	}
	if missing != 1 {
		t.Errorf("Expected exactly 1 missing_configuration warning, got %d", missing)
	}

	// A completion field alone is enough configuration to not warn.
	cfg.CompletionField = "customfield_10100"
	a, err = Analyze(context.Background(), items, cfg, day(5))
	if err != nil {
		t.Fatalf("Analyze with completion field: %v", err)
	}
	for _, w := range a.Warnings {
		if w.Kind == WarnMissingConfiguration {
			t.Error("Completion field configured, should not warn")
		}
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a, err := Analyze(context.Background(), nil, analyzerConfig(), day(0))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(a.Records) != 0 || a.Summary.TotalItems != 0 {
		t.Errorf("Expected empty analysis, got %+v", a.Summary)
	}
	if a.Forecast.Date != nil {
		t.Errorf("Forecast date = %v, want nil without data", a.Forecast.Date)
	}
}

func TestAnalyzeProjectOverride(t *testing.T) {
	cfg := analyzerConfig()
	cfg.ProjectTaxonomies = map[string]Taxonomy{
		"OPS": {Done: []string{"Deployed"}},
	}
	asOf := day(10)
	items := []*WorkItem{
		{
			ID: "OPS-1", Project: "OPS", Status: "Deployed", Created: day(0),
			Transitions: []StatusTransition{
				{Date: day(4), FromStatus: "Open", ToStatus: "Deployed"},
			},
		},
		{
			// Same shape in a project without the override: "Deployed" is
			// unmapped there, so the item stays open.
			ID: "WEB-1", Project: "WEB", Status: "Deployed", Created: day(0),
			Transitions: []StatusTransition{
				{Date: day(4), FromStatus: "Open", ToStatus: "Deployed"},
			},
		},
	}

	a, err := Analyze(context.Background(), items, cfg, asOf)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	byID := map[string]ItemRecord{}
	for _, rec := range a.Records {
		byID[rec.ID] = rec
	}
	if byID["OPS-1"].Method != MethodChangelog {
		t.Errorf("OPS-1 method = %v, want changelog_transition", byID["OPS-1"].Method)
	}
	if byID["WEB-1"].Method != MethodUnresolved {
		t.Errorf("WEB-1 method = %v, want unresolved", byID["WEB-1"].Method)
	}
}

func TestAnalyzeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := make([]*WorkItem, 100)
	for i := range items {
		items[i] = &WorkItem{ID: itemID(i % 20), Created: day(0)}
	}
	if _, err := Analyze(ctx, items, analyzerConfig(), day(1)); err == nil {
		t.Error("Expected an error from a cancelled context")
	}
}

func TestConfigHashStable(t *testing.T) {
	a := analyzerConfig()
	b := analyzerConfig()
	if a.Hash() != b.Hash() {
		t.Error("Identical configs must hash identically")
	}
	b.TrailingWeeks = 8
	if a.Hash() == b.Hash() {
		t.Error("Different configs must hash differently")
	}
}

func TestConfigUnitLabel(t *testing.T) {
	if got := (Config{}).UnitLabel(); got != "items" {
		t.Errorf("UnitLabel = %q, want items", got)
	}
	if got := (Config{UseEstimates: true}).UnitLabel(); got != "points" {
		t.Errorf("UnitLabel = %q, want points", got)
	}
	if got := (Config{Unit: "hours"}).UnitLabel(); got != "hours" {
		t.Errorf("UnitLabel = %q, want hours", got)
	}
}

func TestAnalyzeBoundedWorkers(t *testing.T) {
	// A worker limit of one must still process everything.
	cfg := analyzerConfig()
	cfg.Workers = 1
	var items []*WorkItem
	for i := 0; i < 50; i++ {
		items = append(items, &WorkItem{
			ID:      itemID(i % 26),
			Created: day(i % 7),
			Status:  "Open",
		})
	}
	a, err := Analyze(context.Background(), items, cfg, day(10))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(a.Records) != 50 {
		t.Errorf("Records = %d, want 50", len(a.Records))
	}
}
