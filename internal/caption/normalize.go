package caption

import (
	"slices"
	"sort"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
)

// Normalize sorts captions ascending by start time (stable for ties) and
// merges adjacent entries with identical text into one, keeping the
// first-seen text with the min start and max end of the pair. Only adjacent
// post-sort duplicates merge; identical captions separated by different text
// stay separate. Runs once per raw ingestion.
//
// Normalize is idempotent: applying it to its own output returns an equal
// sequence.
func Normalize(captions []models.Caption) []models.Caption {
	if len(captions) == 0 {
		return []models.Caption{}
	}

	sorted := slices.Clone(captions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartMs < sorted[j].StartMs
	})

	out := make([]models.Caption, 0, len(sorted))
	for _, c := range sorted {
		if n := len(out); n > 0 && out[n-1].Text == c.Text {
			prev := &out[n-1]
			prev.StartMs = min(prev.StartMs, c.StartMs)
			prev.EndMs = max(prev.EndMs, c.EndMs)
			continue
		}
		out = append(out, c)
	}

	return out
}
