package adsession

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRequestTimer_fires_once(t *testing.T) {
	var fired atomic.Int32
	var timer requestTimer

	timer.Arm(5*time.Millisecond, func(gen uint64) {
		if timer.Current(gen) {
			timer.Disarm()
			fired.Add(1)
		}
	})

	time.Sleep(30 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Errorf("expected exactly 1 fire, got %d", n)
	}
}

func TestRequestTimer_disarm_suppresses_fire(t *testing.T) {
	var fired atomic.Int32
	var timer requestTimer

	timer.Arm(5*time.Millisecond, func(gen uint64) {
		if timer.Current(gen) {
			fired.Add(1)
		}
	})
	timer.Disarm()

	time.Sleep(30 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("disarmed timer produced %d fires", n)
	}
	// Disarming again is a no-op, not an error.
	timer.Disarm()
}

func TestRequestTimer_stale_generation_rejected(t *testing.T) {
	var timer requestTimer
	gen := timer.Arm(time.Hour, func(uint64) {})
	timer.Arm(time.Hour, func(uint64) {})
	defer timer.Disarm()

	if timer.Current(gen) {
		t.Error("generation from a replaced arm should be stale")
	}
}

func TestRequestTimer_double_fire_single_effect(t *testing.T) {
	var effects int
	var timer requestTimer

	fire := func(gen uint64) {
		if !timer.Current(gen) {
			return
		}
		timer.Disarm()
		effects++
	}

	gen := timer.Arm(time.Hour, fire)
	// Simulate the race where the callback runs twice for one armed period.
	fire(gen)
	fire(gen)

	if effects != 1 {
		t.Errorf("expected at most one effect per armed period, got %d", effects)
	}
}
