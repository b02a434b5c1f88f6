package reader

import (
	"sort"
	"sync"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
)

// Buffer is the client-held, growing set of loaded sentences for one viewing
// session. Sentences stay sorted by ordinal with unique ids; a page appears
// in the loaded set only after its sentences are merged in, and in the
// pending set only while its fetch is outstanding.
//
// Merging is idempotent and commutative, so pages arriving out of order
// still converge to the full ordinal-sorted sequence.
type Buffer struct {
	mu        sync.Mutex
	pageSize  int
	total     int
	sentences []models.Sentence
	ids       map[int64]struct{}
	loaded    map[int]struct{}
	pending   map[int]struct{}
}

func NewBuffer(totalSentences, pageSize int) *Buffer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Buffer{
		pageSize: pageSize,
		total:    totalSentences,
		ids:      make(map[int64]struct{}),
		loaded:   make(map[int]struct{}),
		pending:  make(map[int]struct{}),
	}
}

func (b *Buffer) PageSize() int { return b.pageSize }
func (b *Buffer) Total() int    { return b.total }

func (b *Buffer) PageCount() int {
	return PageCount(b.total, b.pageSize)
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sentences)
}

// Sentences returns a snapshot of the buffered sequence, sorted by ordinal.
func (b *Buffer) Sentences() []models.Sentence {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Sentence, len(b.sentences))
	copy(out, b.sentences)
	return out
}

// AllLoaded reports whether every page of the lesson has been merged in.
func (b *Buffer) AllLoaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.loaded) >= b.PageCount()
}

func (b *Buffer) IsLoaded(page int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.loaded[page]
	return ok
}

func (b *Buffer) IsPending(page int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[page]
	return ok
}

// MarkPending atomically claims a page for fetching. It returns false when
// the page is already loaded or already has a fetch outstanding, which is
// what guarantees a page is never requested twice concurrently.
func (b *Buffer) MarkPending(page int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.loaded[page]; ok {
		return false
	}
	if _, ok := b.pending[page]; ok {
		return false
	}
	b.pending[page] = struct{}{}
	return true
}

// ClearPending releases a failed page so a later prefetch evaluation can
// retry it.
func (b *Buffer) ClearPending(page int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, page)
}

// MergePage merges fetched sentences into the buffer, dropping ids already
// present, re-sorts by ordinal, marks the page loaded and clears its pending
// flag.
func (b *Buffer) MergePage(page int, sentences []models.Sentence) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range sentences {
		if _, ok := b.ids[s.ID]; ok {
			continue
		}
		b.ids[s.ID] = struct{}{}
		b.sentences = append(b.sentences, s)
	}
	sort.Slice(b.sentences, func(i, j int) bool {
		return b.sentences[i].Ordinal < b.sentences[j].Ordinal
	})

	b.loaded[page] = struct{}{}
	delete(b.pending, page)
}
