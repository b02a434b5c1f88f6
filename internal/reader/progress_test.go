package reader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type progressRecorder struct {
	mu     sync.Mutex
	writes []int64
	finish []bool
	err    error
}

func (r *progressRecorder) write(ctx context.Context, sentenceID int64, finish bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	// monotonic acceptance: the store never regresses
	if n := len(r.writes); n > 0 && sentenceID < r.writes[n-1] {
		return errors.New("progress regression rejected")
	}
	r.writes = append(r.writes, sentenceID)
	r.finish = append(r.finish, finish)
	return nil
}

func (r *progressRecorder) snapshot() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.writes...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSynchronizerDebouncesToLastValue(t *testing.T) {
	rec := &progressRecorder{}
	s := NewSynchronizer(30*time.Millisecond, rec.write)
	defer s.Close()

	// fast scrubbing: only the final value should be persisted
	for id := int64(1); id <= 5; id++ {
		s.Observe(id)
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	if got := rec.snapshot(); got[0] != 5 {
		t.Fatalf("expected only the last value 5, got %v", got)
	}
}

func TestSynchronizerReadsValueAtFireTime(t *testing.T) {
	rec := &progressRecorder{}
	s := NewSynchronizer(25*time.Millisecond, rec.write)
	defer s.Close()

	s.Observe(1)
	s.Observe(2) // supersedes before the timer elapses

	waitFor(t, func() bool { return len(rec.snapshot()) >= 1 })
	if got := rec.snapshot(); got[0] != 2 {
		t.Fatalf("expected the live value 2 at fire time, got %v", got)
	}
}

func TestSynchronizerImmediateMode(t *testing.T) {
	rec := &progressRecorder{}
	s := NewSynchronizer(0, rec.write)
	defer s.Close()

	s.Observe(7)
	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	if got := rec.snapshot(); got[0] != 7 {
		t.Fatalf("expected immediate write of 7, got %v", got)
	}
}

func TestSynchronizerNeverRegresses(t *testing.T) {
	rec := &progressRecorder{}
	s := NewSynchronizer(5*time.Millisecond, rec.write)
	defer s.Close()

	for id := int64(1); id <= 20; id++ {
		s.Observe(id)
		time.Sleep(2 * time.Millisecond)
	}

	waitFor(t, func() bool {
		w := rec.snapshot()
		return len(w) > 0 && w[len(w)-1] == 20
	})

	writes := rec.snapshot()
	for i := 1; i < len(writes); i++ {
		if writes[i] < writes[i-1] {
			t.Fatalf("write sequence regressed: %v", writes)
		}
	}
}

func TestSynchronizerFinishFiresImmediately(t *testing.T) {
	rec := &progressRecorder{}
	s := NewSynchronizer(time.Hour, rec.write) // debounce would never fire on its own
	defer s.Close()

	s.Observe(3)
	s.Finish()

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.writes[0] != 3 || !rec.finish[0] {
		t.Fatalf("expected finish write of sentence 3, got id=%d finish=%v", rec.writes[0], rec.finish[0])
	}
}

func TestSynchronizerCloseCancelsPendingTimer(t *testing.T) {
	rec := &progressRecorder{}
	s := NewSynchronizer(20*time.Millisecond, rec.write)

	s.Observe(9)
	s.Close() // before the debounce elapses

	time.Sleep(50 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("pending debounce must be cancelled, not fired; got %v", got)
	}
}

func TestSynchronizerWriteFailureDoesNotCrash(t *testing.T) {
	rec := &progressRecorder{err: errors.New("store down")}
	s := NewSynchronizer(0, rec.write)
	defer s.Close()

	s.Observe(1)
	time.Sleep(20 * time.Millisecond)

	// recovery: later observations still go through
	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	s.Observe(2)
	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	if got := rec.snapshot(); got[0] != 2 {
		t.Fatalf("expected write of 2 after recovery, got %v", got)
	}
}
