package flow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Config controls one analysis run. It is pure data so it can be hashed
// for cache keys.
type Config struct {
	Taxonomy          Taxonomy            `json:"taxonomy"`
	ProjectTaxonomies map[string]Taxonomy `json:"projectTaxonomies,omitempty"`
	CompletionField   string              `json:"completionField,omitempty"`
	UseEstimates      bool                `json:"useEstimates"`
	Unit              string              `json:"unit,omitempty"`
	TrailingWeeks     int                 `json:"trailingWeeks"`
	Workers           int                 `json:"workers,omitempty"`
}

// TaxonomyFor returns the effective taxonomy for a project, applying any
// per-project override category by category.
func (c Config) TaxonomyFor(project string) Taxonomy {
	if override, ok := c.ProjectTaxonomies[project]; ok {
		return c.Taxonomy.Merge(override)
	}
	return c.Taxonomy
}

// UnitLabel names the scope unit used in charts and forecasts.
func (c Config) UnitLabel() string {
	if c.Unit != "" {
		return c.Unit
	}
	if c.UseEstimates {
		return "points"
	}
	return "items"
}

// Hash fingerprints the config for cache keys. Identical configs always
// hash identically because encoding/json sorts map keys.
func (c Config) Hash() string {
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ItemRecord is the per-item output row of an analysis.
type ItemRecord struct {
	ID            string           `json:"id"`
	Project       string           `json:"project,omitempty"`
	Type          string           `json:"type,omitempty"`
	Status        string           `json:"status"`
	Created       time.Time        `json:"created"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	Method        CompletionMethod `json:"completionMethod"`
	LeadTimeDays  *int             `json:"leadTimeDays,omitempty"`
	CycleTimeDays *int             `json:"cycleTimeDays,omitempty"`
	Estimate      *float64         `json:"estimate,omitempty"`
	DueDate       *time.Time       `json:"dueDate,omitempty"`
}

// Summary holds the scalar rollups of an analysis run. Schedule adherence
// is the share of due-dated completed items that finished on or before
// their due date; slip is the signed average of completion minus due in
// days over the same set.
type Summary struct {
	TotalItems          int     `json:"totalItems"`
	CompletedItems      int     `json:"completedItems"`
	CompletionRate      float64 `json:"completionRate"`
	MedianLeadDays      float64 `json:"medianLeadDays"`
	MedianCycleDays     float64 `json:"medianCycleDays"`
	ThroughputLast7Days int     `json:"throughputLast7Days"`
	ScheduleAdherence   float64 `json:"scheduleAdherence"`
	AvgDeadlineSlipDays float64 `json:"avgDeadlineSlipDays"`
	ItemsWithDueDate    int     `json:"itemsWithDueDate"`
}

// Analysis is the full output of one run over a snapshot.
type Analysis struct {
	AsOf     time.Time      `json:"asOf"`
	Records  []ItemRecord   `json:"records"`
	Summary  Summary        `json:"summary"`
	CFD      *MetricSeries  `json:"cfd"`
	Burnup   *MetricSeries  `json:"burnup"`
	Forecast ForecastResult `json:"forecast"`
	WIPAging []WIPAgeEntry  `json:"wipAging"`
	Warnings []Warning      `json:"warnings,omitempty"`
	records  map[string]CompletionRecord
	items    []*WorkItem
	unit     UnitFunc
}

// CompletionRecords exposes the per-item completion map for follow-up
// queries like burndowns over arbitrary intervals.
func (a *Analysis) CompletionRecords() map[string]CompletionRecord {
	return a.records
}

// Items returns the surviving items of the run.
func (a *Analysis) Items() []*WorkItem {
	return a.items
}

// Unit returns the scope measure the run was configured with.
func (a *Analysis) Unit() UnitFunc {
	return a.unit
}

type itemResult struct {
	record   ItemRecord
	rec      CompletionRecord
	item     *WorkItem
	warnings []Warning
	skipped  bool
}

// Analyze runs the full pipeline over a snapshot as of a fixed instant.
// Per-item work fans out across a bounded worker pool; aggregation is
// single-threaded over the collected results so output order is stable.
func Analyze(ctx context.Context, items []*WorkItem, cfg Config, asOf time.Time) (*Analysis, error) {
	base := NewResolver(cfg.Taxonomy)
	var warnings []Warning
	if !base.HasDone() && cfg.CompletionField == "" {
		// Completion can never resolve; every item degrades to unresolved
		// with undefined durations, and the run proceeds.
		warnings = append(warnings, Warning{
			Kind:    WarnMissingConfiguration,
			Message: "no done statuses or completion field configured, completion metrics are undefined",
		})
	}

	resolvers := map[string]*Resolver{"": base}
	resolverFor := func(project string) *Resolver {
		if _, ok := cfg.ProjectTaxonomies[project]; !ok {
			return base
		}
		if r, ok := resolvers[project]; ok {
			return r
		}
		r := NewResolver(cfg.TaxonomyFor(project))
		resolvers[project] = r
		return r
	}
	// Instantiate every override up front: warnings come out in a
	// deterministic order, and the resolver map is read-only by the time
	// the workers fan out.
	warnings = append(warnings, base.Warnings()...)
	projects := make([]string, 0, len(cfg.ProjectTaxonomies))
	for p := range cfg.ProjectTaxonomies {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	for _, p := range projects {
		warnings = append(warnings, resolverFor(p).Warnings()...)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]itemResult, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = analyzeItem(item, cfg, resolverFor(item.Project))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	unit := UnitFunc(CountUnit)
	if cfg.UseEstimates {
		unit = EstimateUnit
	}

	analysis := &Analysis{
		AsOf:    asOf,
		records: make(map[string]CompletionRecord),
		unit:    unit,
	}
	for _, res := range results {
		warnings = append(warnings, res.warnings...)
		if res.skipped {
			continue
		}
		analysis.items = append(analysis.items, res.item)
		analysis.Records = append(analysis.Records, res.record)
		analysis.records[res.rec.ItemID] = res.rec
	}

	analysis.Summary = summarize(analysis.Records, asOf)
	if len(analysis.items) > 0 {
		earliest := analysis.items[0].Created
		for _, item := range analysis.items[1:] {
			if item.Created.Before(earliest) {
				earliest = item.Created
			}
		}
		analysis.CFD = CumulativeFlow(analysis.items, earliest, asOf)
	} else {
		analysis.CFD = NewMetricSeries(asOf, asOf.AddDate(0, 0, -1))
	}

	var burnWarnings []Warning
	analysis.Burnup, burnWarnings = Burnup(analysis.items, analysis.records, asOf, unit)
	warnings = append(warnings, burnWarnings...)

	analysis.Forecast = Forecast(analysis.Burnup, cfg.TrailingWeeks, asOf, cfg.UnitLabel())
	analysis.WIPAging = WIPAging(analysis.items, func(item *WorkItem, status string) Category {
		return resolverFor(item.Project).Classify(status)
	}, asOf)
	analysis.Warnings = warnings
	return analysis, nil
}

func analyzeItem(item *WorkItem, cfg Config, res *Resolver) itemResult {
	if item.ID == "" || item.Created.IsZero() {
		return itemResult{
			skipped: true,
			warnings: []Warning{{
				Kind:    WarnMalformedHistory,
				ItemID:  item.ID,
				Message: "item missing id or creation date, skipped",
			}},
		}
	}
	item.SortTransitions()
	for _, tr := range item.Transitions {
		if tr.Date.IsZero() {
			return itemResult{
				skipped: true,
				warnings: []Warning{{
					Kind:    WarnMalformedHistory,
					ItemID:  item.ID,
					Message: "transition without timestamp, item skipped",
				}},
			}
		}
	}

	rec := ResolveCompletion(item, cfg.CompletionField, res)
	lead, leadWarns := LeadTime(item, rec)
	cycle, cycleWarns := CycleTime(item, rec, res)

	var warns []Warning
	warns = append(warns, leadWarns...)
	warns = append(warns, cycleWarns...)
	warns = append(warns, checkDurations(item.ID, lead, cycle)...)

	return itemResult{
		item: item,
		rec:  rec,
		record: ItemRecord{
			ID:            item.ID,
			Project:       item.Project,
			Type:          item.Type,
			Status:        item.Status,
			Created:       item.Created,
			CompletedAt:   rec.CompletedAt,
			Method:        rec.Method,
			LeadTimeDays:  lead,
			CycleTimeDays: cycle,
			Estimate:      item.Estimate,
			DueDate:       item.DueDate,
		},
		warnings: warns,
	}
}

func summarize(records []ItemRecord, asOf time.Time) Summary {
	s := Summary{TotalItems: len(records)}
	var leads, cycles []float64
	var onTime int
	var slipSum float64
	weekAgo := asOf.AddDate(0, 0, -6)
	for _, r := range records {
		if r.CompletedAt == nil {
			continue
		}
		s.CompletedItems++
		if r.LeadTimeDays != nil {
			leads = append(leads, float64(*r.LeadTimeDays))
		}
		if r.CycleTimeDays != nil {
			cycles = append(cycles, float64(*r.CycleTimeDays))
		}
		if !r.CompletedAt.Before(startOfDay(weekAgo)) && !r.CompletedAt.After(endOfDay(asOf)) {
			s.ThroughputLast7Days++
		}
		if r.DueDate != nil {
			s.ItemsWithDueDate++
			if !r.CompletedAt.After(endOfDay(*r.DueDate)) {
				onTime++
			}
			slipSum += r.CompletedAt.Sub(endOfDay(*r.DueDate)).Hours() / 24
		}
	}
	if s.TotalItems > 0 {
		s.CompletionRate = float64(s.CompletedItems) / float64(s.TotalItems)
	}
	if s.ItemsWithDueDate > 0 {
		s.ScheduleAdherence = float64(onTime) / float64(s.ItemsWithDueDate)
		s.AvgDeadlineSlipDays = slipSum / float64(s.ItemsWithDueDate)
	}
	s.MedianLeadDays = median(leads)
	s.MedianCycleDays = median(cycles)
	return s
}
