package flow

import (
	"fmt"
	"sort"
	"strings"
)

// Taxonomy declares which raw status names belong to each workflow category.
// Matching is case-insensitive.
type Taxonomy struct {
	Initial    []string `json:"initial"`
	InProgress []string `json:"in_progress"`
	Done       []string `json:"done"`
	Ignored    []string `json:"ignored"`
}

// Merge returns a copy of t with any non-empty category replaced wholesale
// by the override. Categories the override leaves empty keep the base lists.
func (t Taxonomy) Merge(override Taxonomy) Taxonomy {
	out := t
	if len(override.Initial) > 0 {
		out.Initial = override.Initial
	}
	if len(override.InProgress) > 0 {
		out.InProgress = override.InProgress
	}
	if len(override.Done) > 0 {
		out.Done = override.Done
	}
	if len(override.Ignored) > 0 {
		out.Ignored = override.Ignored
	}
	return out
}

// Resolver classifies raw status names against a taxonomy. Lookups are
// precomputed at construction so classification is a pair of map hits.
type Resolver struct {
	initial    map[string]bool
	inProgress map[string]bool
	done       map[string]bool
	ignored    map[string]bool
	warnings   []Warning
}

// NewResolver builds a resolver for the given taxonomy. A status listed in
// more than one category produces exactly one overlap warning naming every
// category that claims it; classification still succeeds using the
// precedence ignored > done > in_progress > initial.
func NewResolver(tax Taxonomy) *Resolver {
	r := &Resolver{
		initial:    lowerSet(tax.Initial),
		inProgress: lowerSet(tax.InProgress),
		done:       lowerSet(tax.Done),
		ignored:    lowerSet(tax.Ignored),
	}

	claims := map[string][]string{}
	for name := range r.initial {
		claims[name] = append(claims[name], "initial")
	}
	for name := range r.inProgress {
		claims[name] = append(claims[name], "in_progress")
	}
	for name := range r.done {
		claims[name] = append(claims[name], "done")
	}
	for name := range r.ignored {
		claims[name] = append(claims[name], "ignored")
	}

	var overlapping []string
	for name, cats := range claims {
		if len(cats) > 1 {
			overlapping = append(overlapping, name)
		}
	}
	sort.Strings(overlapping)
	for _, name := range overlapping {
		cats := claims[name]
		sort.Strings(cats)
		r.warnings = append(r.warnings, Warning{
			Kind:    WarnTaxonomyOverlap,
			Message: fmt.Sprintf("status %q appears in multiple categories: %s", name, strings.Join(cats, ", ")),
		})
	}
	return r
}

// Classify maps a raw status name to its category. Unknown names resolve to
// CategoryUnmapped, which downstream code treats as work in progress.
func (r *Resolver) Classify(status string) Category {
	name := strings.ToLower(strings.TrimSpace(status))
	switch {
	case r.ignored[name]:
		return CategoryIgnored
	case r.done[name]:
		return CategoryDone
	case r.inProgress[name]:
		return CategoryInProgress
	case r.initial[name]:
		return CategoryInitial
	default:
		return CategoryUnmapped
	}
}

// InFlight reports whether an item in this status counts as work in
// progress. Unmapped statuses deliberately count so that surprise workflow
// states inflate WIP instead of vanishing.
func (r *Resolver) InFlight(status string) bool {
	switch r.Classify(status) {
	case CategoryInProgress, CategoryUnmapped:
		return true
	default:
		return false
	}
}

// HasDone reports whether the taxonomy declares any terminal statuses.
// Without them changelog-based completion can never fire.
func (r *Resolver) HasDone() bool {
	return len(r.done) > 0
}

// Warnings returns overlap findings in deterministic order.
func (r *Resolver) Warnings() []Warning {
	return r.warnings
}

func lowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = true
		}
	}
	return set
}
