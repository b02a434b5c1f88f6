package reader

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
)

// FetchFunc pulls one page of sentences from the store.
type FetchFunc func(ctx context.Context, page int) ([]models.Sentence, error)

// Loader drives the buffer: explicit page requests plus cursor-driven
// look-ahead prefetch. A page is fetched at most once at a time; failed
// fetches are released for retry on the next prefetch evaluation.
type Loader struct {
	buf       *Buffer
	fetch     FetchFunc
	lookahead int
	wg        sync.WaitGroup
}

func NewLoader(buf *Buffer, fetch FetchFunc, lookahead int) *Loader {
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	return &Loader{buf: buf, fetch: fetch, lookahead: lookahead}
}

func (l *Loader) Buffer() *Buffer { return l.buf }

// RequestPage fetches page asynchronously unless it is already loaded or has
// a fetch in flight. The pending flag is claimed before the goroutine starts
// and cleared whether the fetch succeeds or fails.
func (l *Loader) RequestPage(ctx context.Context, page int) {
	if page < 1 || page > l.buf.PageCount() {
		return
	}
	if !l.buf.MarkPending(page) {
		return
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		sentences, err := l.fetch(ctx, page)
		if err != nil {
			l.buf.ClearPending(page)
			zap.S().Warn("fetch sentence page", zap.Int("page", page), zap.Error(err))
			return
		}
		l.buf.MergePage(page, sentences)
	}()
}

// OnCursorAdvance resolves the active sentence for the new cursor position
// and schedules prefetches: the active page plus the next lookahead pages,
// and, once at most two page-widths of the lesson remain unbuffered, every
// page still unloaded. The tail rule is what makes last-sentence detection
// reliable without waiting for the cursor to cross each page boundary.
func (l *Loader) OnCursorAdvance(ctx context.Context, cursorSec float64, windowSize int) Resolution {
	buffered := l.buf.Len()
	res := Resolve(l.buf.Sentences(), l.buf.AllLoaded(), cursorSec, windowSize)

	if res.Active != nil {
		page := PageForOrdinal(res.Active.Ordinal, l.buf.PageSize())
		for p := page; p <= page+l.lookahead; p++ {
			l.RequestPage(ctx, p)
		}
	}

	if l.buf.Total()-buffered <= 2*l.buf.PageSize() {
		for p := 1; p <= l.buf.PageCount(); p++ {
			l.RequestPage(ctx, p)
		}
	}

	return res
}

// Wait blocks until all in-flight fetches complete.
func (l *Loader) Wait() {
	l.wg.Wait()
}
