package tracker

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"flowlens/internal/flow"
)

// Snapshot is a loaded, mapped issue export ready for analysis. The
// fingerprint changes whenever the file content does, which is what cache
// keys hang off.
type Snapshot struct {
	Items       []*flow.WorkItem
	Warnings    []flow.Warning
	Fingerprint string
	LoadedAt    time.Time
}

// LoadSnapshot reads an exported search response from disk and maps it to
// the normalized model. The file may be either a full search response or a
// bare issue array.
func LoadSnapshot(path string, fields FieldConfig) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	var resp SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		var issues []IssueDTO
		if err2 := json.Unmarshal(data, &issues); err2 != nil {
			return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
		}
		resp.Issues = issues
	}

	items, warnings := MapItems(resp.Issues, fields)
	sum := sha256.Sum256(data)

	log.Info().
		Str("path", path).
		Int("issues", len(resp.Issues)).
		Int("mapped", len(items)).
		Int("warnings", len(warnings)).
		Msg("Snapshot loaded")

	return &Snapshot{
		Items:       items,
		Warnings:    warnings,
		Fingerprint: hex.EncodeToString(sum[:]),
		LoadedAt:    time.Now(),
	}, nil
}
