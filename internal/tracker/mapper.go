package tracker

import (
	"encoding/json"
	"fmt"
	"time"

	"flowlens/internal/flow"
)

// FieldConfig names the tracker fields the mapper should mine beyond the
// standard set. EstimationSource selects how the estimation field is read:
// "custom_field" takes the number as-is, "standard_time" treats it as
// seconds of tracked time and normalizes to hours.
type FieldConfig struct {
	CompletionField  string `json:"completionField,omitempty"`
	EstimationField  string `json:"estimationField,omitempty"`
	EstimationSource string `json:"estimationSource,omitempty"`
	DueDateField     string `json:"dueDateField,omitempty"`
}

// MapItem converts one raw issue into the normalized model. Only status
// changes survive from the changelog; everything else the tracker logs is
// noise here. An error means the issue cannot be trusted and should be
// skipped, not that the batch failed.
func MapItem(dto IssueDTO, fields FieldConfig) (*flow.WorkItem, error) {
	created, err := ParseTime(dto.Fields.Created)
	if err != nil {
		return nil, fmt.Errorf("issue %s: bad created date %q: %w", dto.Key, dto.Fields.Created, err)
	}

	item := &flow.WorkItem{
		ID:      dto.Key,
		Project: dto.Fields.Project.Key,
		Type:    dto.Fields.IssueType.Name,
		Status:  dto.Fields.Status.Name,
		Created: created,
	}

	if dto.Fields.ResolutionDate != "" {
		if t, err := ParseTime(dto.Fields.ResolutionDate); err == nil {
			item.Resolved = &t
		}
	}

	if dto.Changelog != nil {
		for _, h := range dto.Changelog.Histories {
			for _, change := range h.Items {
				if change.Field != "status" {
					continue
				}
				at, err := ParseTime(h.Created)
				if err != nil {
					return nil, fmt.Errorf("issue %s: bad transition date %q: %w", dto.Key, h.Created, err)
				}
				item.Transitions = append(item.Transitions, flow.StatusTransition{
					Date:       at,
					FromStatus: change.FromString,
					ToStatus:   change.ToString,
				})
			}
		}
	}
	item.SortTransitions()

	if fields.CompletionField != "" {
		if t, ok := timeField(dto.Fields, fields.CompletionField); ok {
			item.CompletedField = &t
		}
	}

	if fields.EstimationField != "" {
		if v, ok := numberField(dto.Fields, fields.EstimationField); ok {
			if fields.EstimationSource == "standard_time" {
				v = v / 3600 // tracked seconds to hours
			}
			item.Estimate = &v
		}
	}

	dueField := fields.DueDateField
	if dueField == "" && dto.Fields.DueDate != "" {
		if t, err := ParseDate(dto.Fields.DueDate); err == nil {
			item.DueDate = &t
		}
	} else if dueField != "" {
		if t, ok := timeField(dto.Fields, dueField); ok {
			item.DueDate = &t
		}
	}

	return item, nil
}

// MapItems converts a batch, turning per-issue mapping failures into
// warnings instead of dropping the whole snapshot.
func MapItems(dtos []IssueDTO, fields FieldConfig) ([]*flow.WorkItem, []flow.Warning) {
	items := make([]*flow.WorkItem, 0, len(dtos))
	var warnings []flow.Warning
	for _, dto := range dtos {
		item, err := MapItem(dto, fields)
		if err != nil {
			warnings = append(warnings, flow.Warning{
				Kind:    flow.WarnMalformedHistory,
				ItemID:  dto.Key,
				Message: err.Error(),
			})
			continue
		}
		items = append(items, item)
	}
	return items, warnings
}

func timeField(f FieldsDTO, id string) (time.Time, bool) {
	raw, ok := f.Custom(id)
	if !ok {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return time.Time{}, false
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func numberField(f FieldsDTO, id string) (float64, bool) {
	raw, ok := f.Custom(id)
	if !ok {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}
