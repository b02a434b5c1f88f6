package reader

import (
	"context"
	"time"
)

// SessionConfig carries the per-view tuning knobs. Zero values fall back to
// the package defaults.
type SessionConfig struct {
	PageSize   int
	Lookahead  int
	WindowSize int
	Debounce   time.Duration
}

// Session owns the state of one open lesson view: the sentence buffer with
// its loader and the debounced progress writer. One instance per view, no
// state shared across sessions; methods are driven by the single playback
// tick producer.
type Session struct {
	cfg    SessionConfig
	loader *Loader
	sync   *Synchronizer
}

func NewSession(totalSentences int, cfg SessionConfig, fetch FetchFunc, write WriteProgressFunc) *Session {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = DefaultLookahead
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}

	buf := NewBuffer(totalSentences, cfg.PageSize)
	return &Session{
		cfg:    cfg,
		loader: NewLoader(buf, fetch, cfg.Lookahead),
		sync:   NewSynchronizer(cfg.Debounce, write),
	}
}

func (s *Session) Buffer() *Buffer { return s.loader.Buffer() }

// RequestPage loads a page on explicit demand (initial open, manual paging).
func (s *Session) RequestPage(ctx context.Context, page int) {
	s.loader.RequestPage(ctx, page)
}

// ResolveActive resolves the cursor against the current buffer without
// scheduling prefetches or progress writes.
func (s *Session) ResolveActive(cursorSec float64) Resolution {
	b := s.loader.Buffer()
	return Resolve(b.Sentences(), b.AllLoaded(), cursorSec, s.cfg.WindowSize)
}

// OnCursorAdvance is the playback-tick entry point: resolve the active
// sentence, prefetch ahead of it, and feed the debounced progress writer.
func (s *Session) OnCursorAdvance(ctx context.Context, cursorSec float64) Resolution {
	res := s.loader.OnCursorAdvance(ctx, cursorSec, s.cfg.WindowSize)
	if res.Active != nil {
		s.sync.Observe(res.Active.ID)
	}
	return res
}

// FinishLesson flushes progress immediately with the finished flag set.
func (s *Session) FinishLesson() {
	s.sync.Finish()
}

// Close abandons any pending debounce and waits for in-flight writes; it
// does not wait for page fetches, which are harmless to complete late.
func (s *Session) Close() {
	s.sync.Close()
}
