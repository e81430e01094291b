package tracker

import (
	"encoding/json"
	"time"
)

// SearchResponse is the top-level container of an exported issue snapshot.
type SearchResponse struct {
	Total  int        `json:"total"`
	Issues []IssueDTO `json:"issues"`
}

// IssueDTO is one issue as exported by the tracker.
type IssueDTO struct {
	Key       string        `json:"key"`
	Fields    FieldsDTO     `json:"fields"`
	Changelog *ChangelogDTO `json:"changelog,omitempty"`
}

// FieldsDTO carries the standard fields we read plus a raw map of
// everything else, so configured custom field IDs can be looked up without
// declaring them ahead of time.
type FieldsDTO struct {
	IssueType struct {
		Name    string `json:"name"`
		Subtask bool   `json:"subtask"`
	} `json:"issuetype"`
	Status struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"status"`
	Project struct {
		Key string `json:"key"`
	} `json:"project"`
	Resolution struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"resolution"`
	ResolutionDate string `json:"resolutiondate"`
	Created        string `json:"created"`
	Updated        string `json:"updated"`
	DueDate        string `json:"duedate"`

	raw map[string]json.RawMessage
}

func (f *FieldsDTO) UnmarshalJSON(b []byte) error {
	type plain FieldsDTO
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*f = FieldsDTO(p)
	return json.Unmarshal(b, &f.raw)
}

// Custom returns the raw JSON of an arbitrary field by ID.
func (f *FieldsDTO) Custom(id string) (json.RawMessage, bool) {
	v, ok := f.raw[id]
	return v, ok
}

// ChangelogDTO contains historical field changes.
type ChangelogDTO struct {
	Histories []HistoryDTO `json:"histories"`
}

// HistoryDTO is a single changelog entry.
type HistoryDTO struct {
	Created string    `json:"created"`
	Items   []ItemDTO `json:"items"`
}

// ItemDTO is one field change within a history entry.
type ItemDTO struct {
	Field      string `json:"field"`
	FromString string `json:"fromString"`
	ToString   string `json:"toString"`
	From       string `json:"from"`
	To         string `json:"to"`
}

// ParseTime parses the tracker's strict timestamp format.
func ParseTime(s string) (time.Time, error) {
	return time.Parse("2006-01-02T15:04:05.000-0700", s)
}

// ParseDate parses a date-only field, falling back to the full timestamp
// format for trackers that export dates with a time component.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return ParseTime(s)
}
