package flow

// ResolveCompletion determines when, if ever, an item finished. The rules
// are tried strictly in order and the first hit wins:
//
//  1. explicit field: a configured completion-date field carries a value
//  2. changelog: the latest transition into a done status
//  3. resolution fallback: current status is done and the tracker recorded
//     a resolution timestamp
//
// Anything else is unresolved. The function never consults the wall clock;
// the same inputs always produce the same record.
func ResolveCompletion(item *WorkItem, completionField string, res *Resolver) CompletionRecord {
	rec := CompletionRecord{ItemID: item.ID, Method: MethodUnresolved}

	if completionField != "" && item.CompletedField != nil {
		rec.CompletedAt = item.CompletedField
		rec.Method = MethodExplicitField
		return rec
	}

	// Walk the history backwards so the latest qualifying transition wins.
	// Transitions sharing a timestamp keep file order, so the higher index
	// is the later entry.
	for i := len(item.Transitions) - 1; i >= 0; i-- {
		tr := item.Transitions[i]
		if res.Classify(tr.ToStatus) == CategoryDone {
			d := tr.Date
			rec.CompletedAt = &d
			rec.Method = MethodChangelog
			return rec
		}
	}

	if res.Classify(item.Status) == CategoryDone && item.Resolved != nil {
		rec.CompletedAt = item.Resolved
		rec.Method = MethodResolutionFallback
		return rec
	}

	return rec
}
