package flow

import (
	"math/rand"
	"sort"
	"time"
)

// ThroughputHistogram holds one completion count per calendar day over an
// observation period. Zero-throughput days are kept; sampling them is what
// makes the simulation honest about idle time.
type ThroughputHistogram struct {
	Counts []int `json:"counts"`
}

// NewThroughputHistogram tallies daily completions between start and end
// inclusive.
func NewThroughputHistogram(records []CompletionRecord, start, end time.Time) *ThroughputHistogram {
	series := NewMetricSeries(start, end)
	counts := make([]int, series.Len())
	for _, rec := range records {
		if rec.CompletedAt == nil {
			continue
		}
		if idx := series.DayIndex(*rec.CompletedAt); idx >= 0 {
			counts[idx]++
		}
	}
	return &ThroughputHistogram{Counts: counts}
}

// Total returns the number of completions across the whole histogram.
func (h *ThroughputHistogram) Total() int {
	sum := 0
	for _, c := range h.Counts {
		sum += c
	}
	return sum
}

// SimResult holds the day-count percentiles of a simulation run. Feasible
// is false when history shows no throughput at all, in which case the
// percentiles are meaningless and zeroed.
type SimResult struct {
	P50      int  `json:"p50"`
	P85      int  `json:"p85"`
	P95      int  `json:"p95"`
	Feasible bool `json:"feasible"`
}

// Simulator runs Monte-Carlo completion trials by resampling historical
// daily throughput.
type Simulator struct {
	histogram *ThroughputHistogram
	rng       *rand.Rand
}

// NewSimulator builds a simulator with an explicit seed so callers that
// need reproducible output can pin one.
func NewSimulator(h *ThroughputHistogram, seed int64) *Simulator {
	return &Simulator{
		histogram: h,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Run simulates burning down the backlog the requested number of times and
// reports the spread of outcomes in days.
func (s *Simulator) Run(backlog, trials int) SimResult {
	if len(s.histogram.Counts) == 0 || s.histogram.Total() == 0 || backlog <= 0 || trials <= 0 {
		return SimResult{}
	}

	durations := make([]int, trials)
	for i := range durations {
		durations[i] = s.trial(backlog)
	}
	sort.Ints(durations)

	return SimResult{
		P50:      durations[int(float64(trials)*0.50)],
		P85:      durations[int(float64(trials)*0.85)],
		P95:      durations[int(float64(trials)*0.95)],
		Feasible: true,
	}
}

func (s *Simulator) trial(backlog int) int {
	days := 0
	remaining := backlog
	for remaining > 0 {
		days++
		remaining -= s.histogram.Counts[s.rng.Intn(len(s.histogram.Counts))]
		if days > 10000 { // safety brake
			break
		}
	}
	return days
}
