package orchestrator

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"ad-orchestrator/internal/adsession"
)

func newTestService() *Service {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(NewInMemoryRepository(), adsession.Config{}, log, nil)
}

func TestService_CreateSession(t *testing.T) {
	svc := newTestService()

	rec := svc.CreateSession(CreateSessionRequest{ContentDuration: 600})
	if rec.ID == "" {
		t.Fatal("CreateSession: empty ID")
	}
	if svc.ActiveSessionCount() != 1 {
		t.Errorf("ActiveSessionCount: %d, want 1", svc.ActiveSessionCount())
	}

	view, ok := svc.Snapshot(rec.ID)
	if !ok {
		t.Fatal("Snapshot: ok false")
	}
	if view.State != "Start" {
		t.Errorf("new session state = %q, want Start", view.State)
	}
}

func TestService_CreateSession_defaults(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	svc := NewService(NewInMemoryRepository(), adsession.Config{RetryBudget: 7}, log, nil)

	// Server-level default applies when the request leaves the field unset.
	rec := svc.CreateSession(CreateSessionRequest{})
	view, _ := svc.Snapshot(rec.ID)
	if view.RetryBudget != 7 {
		t.Errorf("RetryBudget = %d, want 7 from service default", view.RetryBudget)
	}

	// Per-request value overrides the default.
	rec = svc.CreateSession(CreateSessionRequest{RetryBudget: 1})
	view, _ = svc.Snapshot(rec.ID)
	if view.RetryBudget != 1 {
		t.Errorf("RetryBudget = %d, want 1 from request override", view.RetryBudget)
	}
}

func TestService_RequestAds_flow(t *testing.T) {
	svc := newTestService()
	rec := svc.CreateSession(CreateSessionRequest{ContentDuration: 600})

	err := svc.RequestAds(rec.ID, adsession.RequestSpec{AdTagURL: "https://ads/tag"})
	if err != nil {
		t.Fatalf("RequestAds: %v", err)
	}
	view, _ := svc.Snapshot(rec.ID)
	if view.State != "AdsRequested" {
		t.Fatalf("state after request = %q, want AdsRequested", view.State)
	}

	// Delivery responds, then the viewer hits play.
	if err := svc.Delivery(rec.ID, DeliveryCallback{Type: "loaded"}); err != nil {
		t.Fatalf("Delivery loaded: %v", err)
	}
	if err := svc.Signal(rec.ID, SignalRequest{Signal: "play"}); err != nil {
		t.Fatalf("Signal play: %v", err)
	}
	if err := svc.Delivery(rec.ID, DeliveryCallback{Type: "ad-event", EventKind: adsession.DeliveryStarted}); err != nil {
		t.Fatalf("Delivery started: %v", err)
	}

	view, _ = svc.Snapshot(rec.ID)
	if view.State != "AdsPlaying" {
		t.Errorf("state = %q, want AdsPlaying", view.State)
	}
	if !view.IsAdPlaying {
		t.Error("IsAdPlaying should be true")
	}

	calls := rec.Gateway.Calls()
	if len(calls) == 0 || calls[0] != "requestAds" {
		t.Errorf("gateway calls = %v, want requestAds first", calls)
	}
	if rec.Gateway.LastSpec().AdTagURL != "https://ads/tag" {
		t.Errorf("LastSpec tag = %q", rec.Gateway.LastSpec().AdTagURL)
	}
}

func TestService_RequestAds_notFound(t *testing.T) {
	svc := newTestService()

	err := svc.RequestAds("missing", adsession.RequestSpec{AdTagURL: "https://ads/tag"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestService_Signal_unknown(t *testing.T) {
	svc := newTestService()
	rec := svc.CreateSession(CreateSessionRequest{})

	err := svc.Signal(rec.ID, SignalRequest{Signal: "moonwalk"})
	if !errors.Is(err, ErrUnknownSignal) {
		t.Errorf("expected ErrUnknownSignal, got %v", err)
	}
}

func TestService_Signal_position(t *testing.T) {
	svc := newTestService()
	rec := svc.CreateSession(CreateSessionRequest{ContentDuration: 600})

	if err := svc.Signal(rec.ID, SignalRequest{Signal: "position", Time: 42.5}); err != nil {
		t.Fatalf("Signal position: %v", err)
	}
	view, _ := svc.Snapshot(rec.ID)
	if view.PlayerTime != 42.5 {
		t.Errorf("PlayerTime = %v, want 42.5", view.PlayerTime)
	}
}

func TestService_Delivery_unknown(t *testing.T) {
	svc := newTestService()
	rec := svc.CreateSession(CreateSessionRequest{})

	err := svc.Delivery(rec.ID, DeliveryCallback{Type: "telegram"})
	if !errors.Is(err, ErrUnknownCallback) {
		t.Errorf("expected ErrUnknownCallback, got %v", err)
	}
}

func TestService_Delivery_cuePoints(t *testing.T) {
	svc := newTestService()
	rec := svc.CreateSession(CreateSessionRequest{ContentDuration: 600})

	cb := DeliveryCallback{
		Type: "cuepoints",
		CuePoints: []adsession.CuePoint{
			{Start: 0, End: 10},
			{Start: 300, End: 315},
			{Start: adsession.PostRollOffset, End: adsession.PostRollOffset},
		},
	}
	if err := svc.Delivery(rec.ID, cb); err != nil {
		t.Fatalf("Delivery cuepoints: %v", err)
	}

	view, _ := svc.Snapshot(rec.ID)
	if len(view.CuePoints) != 3 {
		t.Fatalf("CuePoints len = %d, want 3", len(view.CuePoints))
	}
	// Playhead defaults to 0, inside the pre-roll window.
	if !view.PendingAdHere {
		t.Error("PendingAdHere should be true at position 0")
	}
}

func TestService_Events_ordering(t *testing.T) {
	svc := newTestService()
	rec := svc.CreateSession(CreateSessionRequest{ContentDuration: 600})

	_ = svc.RequestAds(rec.ID, adsession.RequestSpec{AdTagURL: "https://ads/tag"})
	_ = svc.Delivery(rec.ID, DeliveryCallback{Type: "loaded"})

	events, ok := svc.Events(rec.ID)
	if !ok {
		t.Fatal("Events: ok false")
	}
	if len(events) < 1 {
		t.Fatal("Events: empty log")
	}
	if events[0].Event.Kind != adsession.EventAdsRequested {
		t.Errorf("first event = %q, want adsRequested", events[0].Event.Kind)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq != events[i-1].Seq+1 {
			t.Errorf("event seq not contiguous at %d: %d -> %d", i, events[i-1].Seq, events[i].Seq)
		}
	}
}

func TestService_DestroySession_idempotent(t *testing.T) {
	svc := newTestService()
	rec := svc.CreateSession(CreateSessionRequest{})

	svc.DestroySession(rec.ID)
	if svc.ActiveSessionCount() != 0 {
		t.Errorf("ActiveSessionCount: %d, want 0", svc.ActiveSessionCount())
	}
	if _, ok := svc.Snapshot(rec.ID); ok {
		t.Error("Snapshot: ok true after destroy")
	}

	svc.DestroySession(rec.ID)
	svc.DestroySession("missing")
}
