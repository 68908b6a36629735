// Package ratelimit implements the per-direction token bucket used by a
// connection's read and write paths, adapting golang.org/x/time/rate's
// continuous-token model to an integer Avail()/Drain(n) contract: avail
// reports the current whole-token count, drain debits it without ever
// blocking or failing, and StartW/StopW arm and disarm the watcher the
// limiter governs. The limiter never arms or disarms that watcher on its
// own as the bucket empties and refills.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Watcher is the subset of the event-loop readiness watcher a limiter
// arms and disarms through StartW and StopW.
type Watcher interface {
	Start()
	Stop()
}

// unlimitedAvail is returned by Avail when the limiter has no configured
// rate; it's large enough to saturate any realistic single I/O call.
const unlimitedAvail = math.MaxInt32

// Limiter is a token bucket governing one direction (read or write) of one
// connection. The zero value is not usable; construct with New.
type Limiter struct {
	mu        sync.Mutex
	rate      float64 // tokens/sec; 0 means unlimited
	burst     int
	limiter   *rate.Limiter
	watcher   Watcher
	pendingFn func() // HandleTLSPendingRead hook, read-side only
}

// New builds a Limiter for the given rate (tokens/sec) and burst (bucket
// capacity). ratePerSec == 0 means unlimited. w is the watcher StartW/StopW
// arm; it may be nil (e.g. for tests constructing a limiter with no
// reactor attached).
func New(ratePerSec float64, burst int, w Watcher) *Limiter {
	l := &Limiter{rate: ratePerSec, burst: burst, watcher: w}
	if ratePerSec > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
	return l
}

// SetPendingReadHook installs the read-side "TLS already has buffered
// plaintext" callback used by HandleTLSPendingRead.
func (l *Limiter) SetPendingReadHook(fn func()) {
	l.mu.Lock()
	l.pendingFn = fn
	l.mu.Unlock()
}

// Avail returns the current integer token count, clipped to burst. An
// unlimited (rate == 0) limiter always reports unlimitedAvail.
func (l *Limiter) Avail() int {
	if l.limiter == nil {
		return unlimitedAvail
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	tokens := l.limiter.TokensAt(time.Now())
	if tokens < 0 {
		return 0
	}
	if tokens > float64(l.burst) {
		tokens = float64(l.burst)
	}
	return int(tokens)
}

// Drain subtracts n tokens after a successful transfer of n bytes. The
// caller must have already verified n <= Avail(); Drain never blocks and
// never fails.
func (l *Limiter) Drain(n int) {
	if l.limiter == nil || n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	// ReserveN at "now" with the bytes already sent books them against
	// the bucket retroactively; it never returns an error and never
	// delays, since Avail() already bounded n to the available budget.
	l.limiter.ReserveN(time.Now(), n)
}

// StartW arms the watcher this limiter governs. Idempotent.
func (l *Limiter) StartW() {
	if l.watcher != nil {
		l.watcher.Start()
	}
}

// StopW disarms the watcher. Idempotent.
func (l *Limiter) StopW() {
	if l.watcher != nil {
		l.watcher.Stop()
	}
}

// HandleTLSPendingRead fires the pending-read hook, if any, so the reactor
// delivers a synthetic readable event for plaintext the TLS engine is
// already holding internally. Read-side only.
func (l *Limiter) HandleTLSPendingRead() {
	l.mu.Lock()
	fn := l.pendingFn
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}
