package reader

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
)

// pageOf builds the sentences of a 1-indexed page for a lesson of total
// sentences, ids ascending with ordinal starting at 1.
func pageOf(page, pageSize, total int) []models.Sentence {
	w := Window(page, pageSize)
	var out []models.Sentence
	for ord := w.StartOrdinal; ord < w.EndOrdinal && ord < total; ord++ {
		start := float64(ord * 2)
		end := start + 2
		out = append(out, models.Sentence{
			ID:           int64(ord + 1),
			Ordinal:      ord,
			OriginalText: fmt.Sprintf("sentence %d", ord),
			StartTimeSec: &start,
			EndTimeSec:   &end,
		})
	}
	return out
}

func TestBufferMergeOutOfOrderConverges(t *testing.T) {
	const total, pageSize = 23, 5
	buf := NewBuffer(total, pageSize)

	pages := rand.Perm(buf.PageCount())
	for _, i := range pages {
		page := i + 1
		if !buf.MarkPending(page) {
			t.Fatalf("page %d unexpectedly claimed", page)
		}
		buf.MergePage(page, pageOf(page, pageSize, total))
	}
	// merging a page twice must not duplicate
	buf.MergePage(1, pageOf(1, pageSize, total))

	got := buf.Sentences()
	if len(got) != total {
		t.Fatalf("expected %d sentences, got %d", total, len(got))
	}
	seen := make(map[int64]bool)
	for i, s := range got {
		if s.Ordinal != i {
			t.Fatalf("sentence at index %d has ordinal %d", i, s.Ordinal)
		}
		if seen[s.ID] {
			t.Fatalf("duplicate sentence id %d", s.ID)
		}
		seen[s.ID] = true
	}
	if !buf.AllLoaded() {
		t.Fatal("all pages merged, AllLoaded should be true")
	}
}

func TestMarkPendingIsExclusive(t *testing.T) {
	buf := NewBuffer(10, 5)

	if !buf.MarkPending(1) {
		t.Fatal("first claim should succeed")
	}
	if buf.MarkPending(1) {
		t.Fatal("second claim while pending must fail")
	}

	buf.MergePage(1, pageOf(1, 5, 10))
	if buf.MarkPending(1) {
		t.Fatal("claim of a loaded page must fail")
	}
	if buf.IsPending(1) {
		t.Fatal("pending flag should clear on merge")
	}
}

func TestLoaderSingleFetchPerPage(t *testing.T) {
	const total, pageSize = 10, 5
	buf := NewBuffer(total, pageSize)

	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context, page int) ([]models.Sentence, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return pageOf(page, pageSize, total), nil
	}

	loader := NewLoader(buf, fetch, 2)
	loader.RequestPage(context.Background(), 1)
	loader.RequestPage(context.Background(), 1) // before the first resolves
	close(release)
	loader.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly 1 fetch for page 1, got %d", n)
	}
	if !buf.IsLoaded(1) {
		t.Fatal("page 1 should be loaded")
	}
}

func TestLoaderFailureAllowsRetry(t *testing.T) {
	const total, pageSize = 10, 5
	buf := NewBuffer(total, pageSize)

	var calls int32
	fetch := func(ctx context.Context, page int) ([]models.Sentence, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("store unavailable")
		}
		return pageOf(page, pageSize, total), nil
	}

	loader := NewLoader(buf, fetch, 2)
	loader.RequestPage(context.Background(), 1)
	loader.Wait()

	if buf.IsLoaded(1) || buf.IsPending(1) {
		t.Fatal("failed page must be neither loaded nor pending")
	}

	loader.RequestPage(context.Background(), 1)
	loader.Wait()

	if !buf.IsLoaded(1) {
		t.Fatal("retry should load the page")
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 fetches, got %d", calls)
	}
}

func TestLoaderIgnoresOutOfRangePages(t *testing.T) {
	buf := NewBuffer(10, 5)
	var calls int32
	fetch := func(ctx context.Context, page int) ([]models.Sentence, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}
	loader := NewLoader(buf, fetch, 2)
	loader.RequestPage(context.Background(), 0)
	loader.RequestPage(context.Background(), 3)
	loader.Wait()
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("out-of-range pages must not be fetched, got %d calls", n)
	}
}

func TestCursorAdvancePrefetchesLookahead(t *testing.T) {
	const total, pageSize = 100, 5
	buf := NewBuffer(total, pageSize)

	var mu sync.Mutex
	fetched := make(map[int]int)
	fetch := func(ctx context.Context, page int) ([]models.Sentence, error) {
		mu.Lock()
		fetched[page]++
		mu.Unlock()
		return pageOf(page, pageSize, total), nil
	}

	loader := NewLoader(buf, fetch, 2)
	loader.RequestPage(context.Background(), 1)
	loader.Wait()

	// cursor inside ordinal 2 (page 1): expect pages 1..3 requested
	loader.OnCursorAdvance(context.Background(), 4.5, 3)
	loader.Wait()

	mu.Lock()
	defer mu.Unlock()
	for _, page := range []int{1, 2, 3} {
		if fetched[page] == 0 {
			t.Errorf("page %d not prefetched", page)
		}
	}
	if fetched[1] != 1 {
		t.Errorf("loaded page 1 refetched %d times", fetched[1])
	}
	if fetched[5] != 0 {
		t.Errorf("page 5 fetched too eagerly")
	}
}

func TestTailTriggersLoadAllRemaining(t *testing.T) {
	const total, pageSize = 20, 5
	buf := NewBuffer(total, pageSize)

	fetch := func(ctx context.Context, page int) ([]models.Sentence, error) {
		return pageOf(page, pageSize, total), nil
	}

	loader := NewLoader(buf, fetch, 1)
	loader.RequestPage(context.Background(), 1)
	loader.Wait()

	// 15 of 20 unbuffered: above the 2-page-width threshold, cursor on page 1
	// with lookahead 1 pulls page 2 only.
	loader.OnCursorAdvance(context.Background(), 0.5, 3)
	loader.Wait()
	if buf.IsLoaded(4) {
		t.Fatal("tail page loaded before the threshold was reached")
	}

	// now 10 of 20 unbuffered = exactly two page-widths: everything loads
	loader.OnCursorAdvance(context.Background(), 0.5, 3)
	loader.Wait()
	if !buf.AllLoaded() {
		t.Fatal("remaining pages should all load once the tail threshold is hit")
	}

	res := loader.OnCursorAdvance(context.Background(), float64(total*2)-1, 3)
	if res.Active == nil || !res.IsLast {
		t.Fatalf("cursor in the final sentence should be last, got %+v", res)
	}
}
