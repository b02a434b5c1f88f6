// Package reader implements the per-session core of the lesson view: page
// math over the sentence sequence, the growing sentence buffer with
// look-ahead page loading, active-sentence resolution against the playback
// cursor, and debounced progress writes.
package reader

import "github.com/jlightning/polyglot-io-sub000/internal/models"

const (
	DefaultPageSize   = 20
	DefaultLookahead  = 2
	DefaultWindowSize = 3
)

// PageForOrdinal maps a 0-based sentence ordinal to its 1-indexed page.
func PageForOrdinal(ordinal, pageSize int) int {
	return ordinal/pageSize + 1
}

// Window returns the half-open ordinal range covered by a page.
func Window(page, pageSize int) models.PageWindow {
	start := (page - 1) * pageSize
	return models.PageWindow{
		PageNumber:   page,
		StartOrdinal: start,
		EndOrdinal:   start + pageSize,
	}
}

// PageCount returns how many pages a lesson of totalSentences spans.
func PageCount(totalSentences, pageSize int) int {
	if totalSentences <= 0 {
		return 0
	}
	return (totalSentences + pageSize - 1) / pageSize
}
