package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"
)

type GeneratorConfig struct {
	Scenario     string
	Distribution string // "uniform" or "weibull"
	Count        int
	Now          time.Time
}

// Issue mirrors the tracker export shape, built as loose maps so custom
// fields land next to the standard ones exactly like a real export.
type Issue map[string]any

const stamp = "2006-01-02T15:04:05.000-0700"

// Generate produces a synthetic issue snapshot. Each item arrives one day
// apart, walks Open -> Refinement -> In Progress -> Done on a sampled
// duration, and is frozen wherever its age says it should be today.
func Generate(cfg GeneratorConfig) []Issue {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}

	var issues []Issue
	tArrival := cfg.Now.AddDate(0, 0, -cfg.Count)

	for i := 0; i < cfg.Count; i++ {
		key := fmt.Sprintf("FLOW-%d", i+1)
		arrival := tArrival.Add(time.Duration(i*24) * time.Hour)

		k, lambda := 2.5, 9.5
		switch cfg.Scenario {
		case "chaos":
			k = 0.8
			if cfg.Distribution == "weibull" {
				lambda = 12.0
			}
		case "drift":
			ratio := float64(i) / float64(cfg.Count)
			k = 2.5 - (1.7 * ratio)
			lambda = 9.5 + (2.5 * ratio)
		}

		var totalDuration float64
		if cfg.Distribution == "weibull" {
			totalDuration = weibullSample(k, lambda)
		} else {
			totalDuration = 6.0 + rand.Float64()*5.0
			if cfg.Scenario == "chaos" && rand.Float64() < 0.2 {
				totalDuration += 10 + rand.Float64()*15
			}
			if cfg.Scenario == "drift" && i > cfg.Count/2 {
				totalDuration *= 2.0
			}
		}

		ageDays := cfg.Now.Sub(arrival).Hours() / 24.0
		status := "Done"
		if ageDays <= totalDuration {
			progress := ageDays / totalDuration
			switch {
			case progress < 0.15:
				status = "Open"
			case progress < 0.40:
				status = "Refinement"
			default:
				status = "In Progress"
			}
		}

		var histories []map[string]any
		addChange := func(at time.Time, from, to string) {
			histories = append(histories, map[string]any{
				"created": at.Format(stamp),
				"items": []map[string]any{{
					"field":      "status",
					"fromString": from,
					"toString":   to,
				}},
			})
		}

		tRefinement := arrival.Add(time.Duration(totalDuration * 0.15 * 24 * float64(time.Hour)))
		if tRefinement.Before(cfg.Now) {
			addChange(tRefinement, "Open", "Refinement")
		}
		tInProgress := arrival.Add(time.Duration(totalDuration * 0.40 * 24 * float64(time.Hour)))
		if tInProgress.Before(cfg.Now) && status != "Refinement" {
			addChange(tInProgress, "Refinement", "In Progress")
		}
		tDone := arrival.Add(time.Duration(totalDuration * 24 * float64(time.Hour)))

		fields := map[string]any{
			"issuetype": map[string]any{"name": "Story", "subtask": false},
			"project":   map[string]any{"key": "FLOW"},
			"status":    map[string]any{"name": status},
			"created":   arrival.Format(stamp),
			"updated":   cfg.Now.Format(stamp),
			// story points under a typical custom field ID
			"customfield_10016": math.Round(totalDuration / 2),
		}
		if status == "Done" {
			addChange(tDone, "In Progress", "Done")
			fields["resolution"] = map[string]any{"name": "Fixed"}
			fields["resolutiondate"] = tDone.Format(stamp)
		}

		issues = append(issues, Issue{
			"key":       key,
			"fields":    fields,
			"changelog": map[string]any{"histories": histories},
		})
	}

	return issues
}

func weibullSample(k, lambda float64) float64 {
	u := rand.Float64()
	if u == 0 {
		u = 0.0001
	}
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes the issues as a search-response snapshot.
func Save(path string, issues []Issue) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"total":  len(issues),
		"issues": issues,
	})
}
