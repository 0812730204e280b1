package adsession

import (
	"sync"
	"time"
)

// requestTimer is a cancellable one-shot timer with generation guarding.
// Disarm bumps the generation so that a callback already scheduled by the
// runtime becomes a no-op: the callback receives the generation it was armed
// with and the owner checks Current before acting. Firing after disarm, or
// firing twice, can therefore never produce a second side effect.
type requestTimer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// Arm schedules fire after d and returns the new generation. Any previously
// armed timer is disarmed first; at most one generation is live.
func (t *requestTimer) Arm(d time.Duration, fire func(gen uint64)) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(d, func() { fire(gen) })
	return gen
}

// Disarm cancels the pending timer and invalidates the current generation.
// Disarming an already-disarmed timer is a no-op.
func (t *requestTimer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
}

// Current reports whether gen is still the live generation.
func (t *requestTimer) Current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil && gen == t.gen
}

func (t *requestTimer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
