package orchestrator

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"ad-orchestrator/internal/adsession"

	"github.com/go-chi/chi/v5"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewService(NewInMemoryRepository(), adsession.Config{}, log, nil)
	return NewHandler(svc, log, nil)
}

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/request", h.RequestAds)
			r.Post("/signals", h.Signal)
			r.Post("/delivery", h.Delivery)
			r.Get("/events", h.GetEvents)
			r.Post("/destroy", h.DestroySession)
		})
	})
	return r
}

func doJSON(t *testing.T, r *chi.Mux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, r *chi.Mux) SessionID {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/sessions/", map[string]any{"contentDuration": 600})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d", rec.Code)
	}
	var view SessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode session view: %v", err)
	}
	return view.ID
}

func TestHandler_CreateSession(t *testing.T) {
	h := newTestHandler(t)
	r := newTestRouter(h)

	rec := doJSON(t, r, http.MethodPost, "/sessions/", map[string]any{"contentDuration": 600})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var view SessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.ID == "" {
		t.Error("expected non-empty session ID")
	}
	if view.State != "Start" {
		t.Errorf("state = %q, want Start", view.State)
	}
}

func TestHandler_CreateSession_bad_request(t *testing.T) {
	h := newTestHandler(t)
	r := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/sessions/", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_RequestAds(t *testing.T) {
	h := newTestHandler(t)
	r := newTestRouter(h)
	id := createSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/sessions/"+string(id)+"/request",
		map[string]any{"adTagUrl": "https://ads/tag"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var view SessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.State != "AdsRequested" {
		t.Errorf("state = %q, want AdsRequested", view.State)
	}
}

func TestHandler_RequestAds_empty_tag(t *testing.T) {
	h := newTestHandler(t)
	r := newTestRouter(h)
	id := createSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/sessions/"+string(id)+"/request", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_RequestAds_not_found(t *testing.T) {
	h := newTestHandler(t)
	r := newTestRouter(h)

	rec := doJSON(t, r, http.MethodPost, "/sessions/nope/request",
		map[string]any{"adTagUrl": "https://ads/tag"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_Signal(t *testing.T) {
	h := newTestHandler(t)
	r := newTestRouter(h)
	id := createSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/sessions/"+string(id)+"/signals",
		map[string]any{"signal": "did-play"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view SessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.State != "ContentPlaying" {
		t.Errorf("state = %q, want ContentPlaying", view.State)
	}
}

func TestHandler_Signal_unknown(t *testing.T) {
	h := newTestHandler(t)
	r := newTestRouter(h)
	id := createSession(t, r)

	rec := doJSON(t, r, http.MethodPost, "/sessions/"+string(id)+"/signals",
		map[string]any{"signal": "moonwalk"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_Delivery(t *testing.T) {
	h := newTestHandler(t)
	r := newTestRouter(h)
	id := createSession(t, r)

	req := doJSON(t, r, http.MethodPost, "/sessions/"+string(id)+"/request",
		map[string]any{"adTagUrl": "https://ads/tag"})
	if req.Code != http.StatusOK {
		t.Fatalf("setup: expected 200, got %d", req.Code)
	}

	rec := doJSON(t, r, http.MethodPost, "/sessions/"+string(id)+"/delivery",
		map[string]any{"type": "loaded"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	get := doJSON(t, r, http.MethodGet, "/sessions/"+string(id)+"/", nil)
	var view SessionView
	if err := json.NewDecoder(get.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.State != "AdsLoaded" {
		t.Errorf("state = %q, want AdsLoaded", view.State)
	}
}

func TestHandler_GetEvents(t *testing.T) {
	h := newTestHandler(t)
	r := newTestRouter(h)
	id := createSession(t, r)

	_ = doJSON(t, r, http.MethodPost, "/sessions/"+string(id)+"/request",
		map[string]any{"adTagUrl": "https://ads/tag"})

	rec := doJSON(t, r, http.MethodGet, "/sessions/"+string(id)+"/events", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload map[string][]EventRecord
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	events := payload["events"]
	if len(events) == 0 {
		t.Fatal("expected at least one event")
	}
	if events[0].Event.Kind != "adsRequested" {
		t.Errorf("first event = %q, want adsRequested", events[0].Event.Kind)
	}
}

func TestHandler_DestroySession_idempotent(t *testing.T) {
	h := newTestHandler(t)
	r := newTestRouter(h)
	id := createSession(t, r)

	first := doJSON(t, r, http.MethodPost, "/sessions/"+string(id)+"/destroy", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	second := doJSON(t, r, http.MethodPost, "/sessions/"+string(id)+"/destroy", nil)
	if second.Code != http.StatusOK {
		t.Errorf("second destroy: expected 200, got %d", second.Code)
	}

	get := doJSON(t, r, http.MethodGet, "/sessions/"+string(id)+"/", nil)
	if get.Code != http.StatusNotFound {
		t.Errorf("get after destroy: expected 404, got %d", get.Code)
	}
}
