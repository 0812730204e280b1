package adsession

import (
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestStateMachine_cannot_reenter_start(t *testing.T) {
	m := newStateMachine(testLogger())
	m.set(StateAdsRequested)

	if m.set(StateStart) {
		t.Error("set(StateStart) should be rejected once left")
	}
	if m.getState() != StateAdsRequested {
		t.Errorf("state changed by rejected transition: %v", m.getState())
	}
}

func TestStateMachine_reset_returns_to_start(t *testing.T) {
	m := newStateMachine(testLogger())
	m.set(StateAdsRequested)
	m.set(StateAdsRequestedAndPlay)
	m.reset()
	if m.getState() != StateStart {
		t.Errorf("after reset state = %v, want Start", m.getState())
	}
}

func TestStateMachine_request_flow(t *testing.T) {
	m := newStateMachine(testLogger())

	steps := []State{
		StateAdsRequested,
		StateAdsRequestedAndPlay,
		StateAdsLoadedAndPlay,
		StateAdsPlaying,
		StateContentPlaying,
	}
	for _, next := range steps {
		if !m.set(next) {
			t.Fatalf("transition %v -> %v should be valid", m.getState(), next)
		}
	}
}

func TestStateMachine_rejects_loaded_without_request(t *testing.T) {
	m := newStateMachine(testLogger())
	if m.set(StateAdsLoaded) {
		t.Error("Start -> AdsLoaded should be invalid")
	}
	if m.set(StateAdsPlaying) {
		t.Error("Start -> AdsPlaying should be invalid")
	}
}

func TestStateMachine_content_playing_reachable_from_anywhere(t *testing.T) {
	m := newStateMachine(testLogger())
	m.set(StateAdsRequested)
	m.set(StateAdsRequestTimedOut)
	if !m.set(StateContentPlaying) {
		t.Error("timed-out session must still allow content playback")
	}
}
