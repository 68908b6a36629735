package ratelimit

import (
	"testing"
)

type fakeWatcher struct {
	starts, stops int
}

func (w *fakeWatcher) Start() { w.starts++ }
func (w *fakeWatcher) Stop()  { w.stops++ }

// TestUnlimitedAvail confirms a zero rate always reports an effectively
// unbounded budget and Drain is a no-op.
func TestUnlimitedAvail(t *testing.T) {
	l := New(0, 0, nil)
	if got := l.Avail(); got != unlimitedAvail {
		t.Fatalf("Avail() = %d, want %d", got, unlimitedAvail)
	}
	l.Drain(1 << 20)
	if got := l.Avail(); got != unlimitedAvail {
		t.Fatalf("Avail() after Drain = %d, want unchanged %d", got, unlimitedAvail)
	}
}

// TestAvailClippedToBurst confirms a fresh limiter never reports more
// than its configured burst, even though the underlying token bucket
// starts full.
func TestAvailClippedToBurst(t *testing.T) {
	l := New(1000, 64, nil)
	if got := l.Avail(); got > 64 {
		t.Fatalf("Avail() = %d, want <= burst (64)", got)
	}
}

// TestDrainReducesAvail confirms a successful transfer of n bytes lowers
// the reported budget by approximately n.
func TestDrainReducesAvail(t *testing.T) {
	l := New(1000, 1024, nil)
	before := l.Avail()
	l.Drain(400)
	after := l.Avail()
	if before-after < 390 || before-after > 400 {
		t.Fatalf("Avail() dropped by %d, want ~400", before-after)
	}
}

// TestDrainNonPositiveIsNoop confirms Drain ignores non-positive n rather
// than crediting the bucket.
func TestDrainNonPositiveIsNoop(t *testing.T) {
	l := New(1000, 1024, nil)
	before := l.Avail()
	l.Drain(0)
	l.Drain(-5)
	if got := l.Avail(); got != before {
		t.Fatalf("Avail() = %d after no-op Drain calls, want unchanged %d", got, before)
	}
}

// TestStartWStopWDelegateToWatcher confirms the limiter arms/disarms
// exactly the watcher it was constructed with.
func TestStartWStopWDelegateToWatcher(t *testing.T) {
	w := &fakeWatcher{}
	l := New(1000, 64, w)

	l.StartW()
	l.StartW()
	if w.starts != 2 {
		t.Fatalf("watcher.Start called %d times, want 2 (idempotence is the watcher's job, not the limiter's)", w.starts)
	}

	l.StopW()
	if w.stops != 1 {
		t.Fatalf("watcher.Stop called %d times, want 1", w.stops)
	}
}

// TestStartWStopWNilWatcherIsSafe confirms a nil watcher (as used in
// tests that construct a bare limiter) never panics.
func TestStartWStopWNilWatcherIsSafe(t *testing.T) {
	l := New(1000, 64, nil)
	l.StartW()
	l.StopW()
}

// TestHandleTLSPendingReadFiresHook confirms the installed hook runs
// exactly once per call and is a no-op when unset.
func TestHandleTLSPendingReadFiresHook(t *testing.T) {
	l := New(0, 0, nil)
	l.HandleTLSPendingRead() // no hook installed: must not panic

	calls := 0
	l.SetPendingReadHook(func() { calls++ })
	l.HandleTLSPendingRead()
	l.HandleTLSPendingRead()
	if calls != 2 {
		t.Fatalf("hook fired %d times, want 2", calls)
	}
}
