package reader

import (
	"slices"
	"sort"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
)

// Resolution is the outcome of resolving a playback cursor against the
// buffered sentences: the active sentence plus bounded display windows
// around it. Active is nil when the cursor sits before the first timed
// sentence.
type Resolution struct {
	Active   *models.Sentence
	Previous []models.Sentence
	Next     []models.Sentence

	// IsLast is true only when every page is loaded and no buffered
	// sentence starts at or after the active one. An unloaded tail must
	// never be mistaken for the end of the lesson.
	IsLast bool
}

// Resolve picks the active sentence for cursor position t.
//
// Precedence: a sentence containing t (start <= t <= end) wins; when t lands
// exactly on one sentence's end and the next one's start, the later sentence
// wins. Failing containment, the sentence with the greatest end <= t is
// active, ties broken by later ordinal. Untimed sentences never participate.
//
// Previous holds up to windowSize sentences starting before the active one,
// nearest last (ascending for display); Next holds up to windowSize
// sentences starting at or after it, excluding the active one, ascending.
func Resolve(sentences []models.Sentence, allLoaded bool, t float64, windowSize int) Resolution {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	var active *models.Sentence
	for i := range sentences {
		s := &sentences[i]
		if !s.Timed() {
			continue
		}
		if *s.StartTimeSec <= t && t <= *s.EndTimeSec {
			if active == nil || *s.StartTimeSec >= *active.StartTimeSec {
				active = s
			}
		}
	}

	if active == nil {
		for i := range sentences {
			s := &sentences[i]
			if !s.Timed() || *s.EndTimeSec > t {
				continue
			}
			switch {
			case active == nil:
				active = s
			case *s.EndTimeSec > *active.EndTimeSec:
				active = s
			case *s.EndTimeSec == *active.EndTimeSec && s.Ordinal > active.Ordinal:
				active = s
			}
		}
	}

	if active == nil {
		return Resolution{}
	}

	var previous, next []models.Sentence
	for _, s := range sentences {
		if !s.Timed() {
			continue
		}
		switch {
		case *s.StartTimeSec < *active.StartTimeSec:
			previous = append(previous, s)
		case s.ID != active.ID:
			next = append(next, s)
		}
	}

	sort.Slice(previous, func(i, j int) bool {
		return *previous[i].StartTimeSec > *previous[j].StartTimeSec
	})
	if len(previous) > windowSize {
		previous = previous[:windowSize]
	}
	slices.Reverse(previous)

	sort.Slice(next, func(i, j int) bool {
		return *next[i].StartTimeSec < *next[j].StartTimeSec
	})
	isLast := allLoaded && len(next) == 0
	if len(next) > windowSize {
		next = next[:windowSize]
	}

	activeCopy := *active
	return Resolution{
		Active:   &activeCopy,
		Previous: previous,
		Next:     next,
		IsLast:   isLast,
	}
}
