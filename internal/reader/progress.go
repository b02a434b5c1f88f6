package reader

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultDebounce = 2 * time.Second

// WriteProgressFunc persists an absolute read-till position; finish also
// marks the lesson finished.
type WriteProgressFunc func(ctx context.Context, sentenceID int64, finish bool) error

// Synchronizer debounces progress writes. Every observed value restarts the
// timer; when it fires, the value read at that moment is written, so fast
// scrubbing produces one write, not dozens. A zero delay writes immediately
// (the paged-lesson mode).
//
// Writes are drained by a single goroutine in observation order, so a stale
// write can never land after a newer one. Failures are logged and dropped;
// the next observation supersedes the lost value anyway.
type Synchronizer struct {
	mu     sync.Mutex
	delay  time.Duration
	write  WriteProgressFunc
	timer  *time.Timer
	latest int64
	finish bool
	dirty  bool
	closed bool

	fireCh  chan struct{}
	done    chan struct{}
	drained sync.WaitGroup
}

func NewSynchronizer(delay time.Duration, write WriteProgressFunc) *Synchronizer {
	s := &Synchronizer{
		delay:  delay,
		write:  write,
		fireCh: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	s.drained.Add(1)
	go s.drain()
	return s
}

// Observe records the newest active sentence and restarts the debounce
// timer.
func (s *Synchronizer) Observe(sentenceID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.latest = sentenceID
	s.dirty = true

	if s.delay <= 0 {
		s.signal()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.signal)
}

// Finish flags the next write to mark the lesson finished and fires it
// immediately, bypassing the debounce delay.
func (s *Synchronizer) Finish() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.finish = true
	s.dirty = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.signal()
}

func (s *Synchronizer) signal() {
	select {
	case s.fireCh <- struct{}{}:
	default:
	}
}

func (s *Synchronizer) drain() {
	defer s.drained.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.fireCh:
			s.mu.Lock()
			if !s.dirty {
				s.mu.Unlock()
				continue
			}
			sentenceID, finish := s.latest, s.finish
			s.dirty = false
			s.mu.Unlock()

			if err := s.write(context.Background(), sentenceID, finish); err != nil {
				zap.S().Warn("write reading progress",
					zap.Int64("sentence_id", sentenceID), zap.Error(err))
			}
		}
	}
}

// Close cancels a pending debounce without firing it. A write already handed
// to the drain goroutine is allowed to complete.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	close(s.done)
	s.drained.Wait()
}
