// Package reactor implements a single-threaded event loop: one goroutine
// multiplexes readiness notifications for every connection's socket plus
// a min-heap of one-shot repeat timers. The Linux implementation
// (reactor_linux.go) is an epoll-backed poller; reactor_other.go falls
// back to a portable ticker-driven poller for non-Linux builds.
package reactor

import (
	"container/heap"
	"sync"
	"time"
)

// Watcher is a readiness registration for one file descriptor, with
// independently armable read and write directions — mirroring libev's
// ev_io_start/ev_io_stop called per direction.
type Watcher struct {
	loop *Loop
	fd   int

	mu         sync.Mutex
	readArmed  bool
	writeArmed bool
	registered bool

	onReadable func()
	onWritable func()
}

// StartRead arms read readiness delivery. Idempotent.
func (w *Watcher) StartRead() { w.loop.setDirection(w, true, true) }

// StopRead disarms read readiness delivery. Idempotent.
func (w *Watcher) StopRead() { w.loop.setDirection(w, true, false) }

// StartWrite arms write readiness delivery. Idempotent.
func (w *Watcher) StartWrite() { w.loop.setDirection(w, false, true) }

// StopWrite disarms write readiness delivery. Idempotent.
func (w *Watcher) StopWrite() { w.loop.setDirection(w, false, false) }

// Close removes the watcher from the loop entirely.
func (w *Watcher) Close() { w.loop.unregister(w) }

// IsActive reports whether either direction of the watcher is currently
// armed.
func (w *Watcher) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.readArmed || w.writeArmed
}

// ReadSide adapts this watcher's read direction to the ratelimit.Watcher
// (Start/Stop) contract.
func (w *Watcher) ReadSide() dirHandle { return dirHandle{w: w, read: true} }

// WriteSide adapts this watcher's write direction to the ratelimit.Watcher
// (Start/Stop) contract.
func (w *Watcher) WriteSide() dirHandle { return dirHandle{w: w, read: false} }

// dirHandle satisfies ratelimit.Watcher for one direction of a Watcher.
type dirHandle struct {
	w    *Watcher
	read bool
}

func (d dirHandle) Start() {
	if d.read {
		d.w.StartRead()
	} else {
		d.w.StartWrite()
	}
}

func (d dirHandle) Stop() {
	if d.read {
		d.w.StopRead()
	} else {
		d.w.StopWrite()
	}
}

// Timer is a one-shot repeat timer: Again(d) (re)arms it to fire d from
// now, Stop disarms it.
type Timer struct {
	loop     *Loop
	cb       func()
	deadline time.Time
	index    int // heap index, -1 when not scheduled
	repeat   time.Duration
}

// Again arms (or re-arms) the timer to fire after d, remembering d as the
// repeat interval that Repeat reports.
func (tm *Timer) Again(d time.Duration) {
	tm.loop.armTimer(tm, d)
}

// Repeat reports the duration passed to the most recent Again call.
func (tm *Timer) Repeat() time.Duration {
	tm.loop.mu.Lock()
	defer tm.loop.mu.Unlock()
	return tm.repeat
}

// IsActive reports whether the timer is currently scheduled.
func (tm *Timer) IsActive() bool {
	tm.loop.mu.Lock()
	defer tm.loop.mu.Unlock()
	return tm.index >= 0
}

// Stop disarms the timer if scheduled.
func (tm *Timer) Stop() {
	tm.loop.disarmTimer(tm)
}

// timerHeap is a min-heap of *Timer ordered by deadline, giving the loop
// an O(log n) "next expiry" query instead of scanning every connection's
// timers on each iteration.
type timerHeap []*Timer

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) {
	tm := x.(*Timer)
	tm.index = len(*h)
	*h = append(*h, tm)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	tm := old[n-1]
	old[n-1] = nil
	tm.index = -1
	*h = old[:n-1]
	return tm
}

// Loop is the reactor's public handle. The platform-specific file
// (reactor_linux.go / reactor_other.go) supplies the platformLoop.
type Loop struct {
	mu      sync.Mutex
	timers  timerHeap
	closing chan struct{}

	platform platformLoop
}

// New constructs a Loop. Call Run in its own goroutine.
func New() (*Loop, error) {
	pl, err := newPlatformLoop()
	if err != nil {
		return nil, err
	}
	l := &Loop{
		closing:  make(chan struct{}),
		platform: pl,
	}
	heap.Init(&l.timers)
	return l, nil
}

// NewTimer creates a Timer bound to this loop, initially disarmed.
func (l *Loop) NewTimer(cb func()) *Timer {
	return &Timer{loop: l, cb: cb, index: -1}
}

// Register creates a Watcher for fd bound to this loop, initially
// disarmed in both directions. onReadable/onWritable may be nil if that
// direction is never used.
func (l *Loop) Register(fd int, onReadable, onWritable func()) *Watcher {
	return &Watcher{loop: l, fd: fd, onReadable: onReadable, onWritable: onWritable}
}

func (l *Loop) setDirection(w *Watcher, read, armed bool) {
	w.mu.Lock()
	if read {
		if w.readArmed == armed {
			w.mu.Unlock()
			return
		}
		w.readArmed = armed
	} else {
		if w.writeArmed == armed {
			w.mu.Unlock()
			return
		}
		w.writeArmed = armed
	}
	wasRegistered := w.registered
	nowWanted := w.readArmed || w.writeArmed
	w.registered = nowWanted
	w.mu.Unlock()

	switch {
	case !wasRegistered && nowWanted:
		l.platform.add(w)
	case wasRegistered && !nowWanted:
		l.platform.remove(w)
	case wasRegistered && nowWanted:
		l.platform.modify(w)
	}
}

func (l *Loop) unregister(w *Watcher) {
	w.mu.Lock()
	wasRegistered := w.registered
	w.registered = false
	w.readArmed = false
	w.writeArmed = false
	w.mu.Unlock()
	if wasRegistered {
		l.platform.remove(w)
	}
}

func (l *Loop) armTimer(tm *Timer, d time.Duration) {
	l.mu.Lock()
	tm.repeat = d
	tm.deadline = time.Now().Add(d)
	if tm.index >= 0 {
		heap.Fix(&l.timers, tm.index)
	} else {
		heap.Push(&l.timers, tm)
	}
	l.mu.Unlock()
}

func (l *Loop) disarmTimer(tm *Timer) {
	l.mu.Lock()
	if tm.index >= 0 {
		heap.Remove(&l.timers, tm.index)
	}
	l.mu.Unlock()
}

// maxPollInterval bounds how long a poll call blocks when no timer is
// armed, so a watcher started or stopped from another goroutine is picked
// up within one tick instead of waiting indefinitely.
const maxPollInterval = 250 * time.Millisecond

// nextTimeout computes how long Run's poll should block: until the
// earliest armed timer, capped at maxPollInterval.
func (l *Loop) nextTimeout() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 {
		return maxPollInterval
	}
	d := time.Until(l.timers[0].deadline)
	if d < 0 {
		d = 0
	}
	if d > maxPollInterval {
		d = maxPollInterval
	}
	return d
}

// fireExpired pops and invokes every timer whose deadline has passed.
func (l *Loop) fireExpired() {
	now := time.Now()
	for {
		l.mu.Lock()
		if len(l.timers) == 0 || l.timers[0].deadline.After(now) {
			l.mu.Unlock()
			return
		}
		tm := heap.Pop(&l.timers).(*Timer)
		l.mu.Unlock()
		tm.cb()
	}
}

// Run blocks, servicing readiness and timer events, until Close is
// called.
func (l *Loop) Run() error {
	for {
		select {
		case <-l.closing:
			return nil
		default:
		}

		timeout := l.nextTimeout()
		events, err := l.platform.poll(timeout)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if ev.kind&EventReadable != 0 && ev.w.onReadable != nil {
				ev.w.onReadable()
			}
			if ev.kind&EventWritable != 0 && ev.w.onWritable != nil {
				ev.w.onWritable()
			}
		}
		l.fireExpired()
	}
}

// Close stops Run and releases platform resources.
func (l *Loop) Close() error {
	close(l.closing)
	return l.platform.close()
}

// EventKind identifies which direction(s) of a watcher fired.
type EventKind uint8

const (
	EventReadable EventKind = 1 << iota
	EventWritable
	EventError
)

type readyEvent struct {
	w    *Watcher
	kind EventKind
}

// platformLoop is the OS-specific half of Loop, implemented by
// reactor_linux.go (epoll) and reactor_other.go (portable fallback).
type platformLoop interface {
	add(w *Watcher)
	modify(w *Watcher)
	remove(w *Watcher)
	poll(timeout time.Duration) ([]readyEvent, error)
	close() error
}
