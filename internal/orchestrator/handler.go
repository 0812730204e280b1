package orchestrator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ad-orchestrator/internal/adsession"
	"ad-orchestrator/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// Handler exposes session orchestration HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and
// optional Metrics. Metrics may be nil to disable metric recording.
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateSession handles POST /sessions.
// Body: config plus content player setup; see CreateSessionRequest.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.log.Debug("invalid create session body", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
			return
		}
	}

	rec := h.svc.CreateSession(req)
	view, _ := h.svc.Snapshot(rec.ID)
	writeJSON(w, http.StatusCreated, view)
}

// RequestAds handles POST /sessions/{session_id}/request.
// Body: an adsession.RequestSpec.
func (h *Handler) RequestAds(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	var spec adsession.RequestSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	err := h.svc.RequestAds(id, spec)
	switch {
	case err == nil:
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, adsession.ErrEmptyAdTag),
		errors.Is(err, adsession.ErrMissingStreamKeys),
		errors.Is(err, adsession.ErrMissingSurface):
		h.log.Info("ads request rejected",
			slog.String("session_id", string(id)),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, adsession.ErrSessionDestroyed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	default:
		h.log.Error("ads request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	view, _ := h.svc.Snapshot(id)
	writeJSON(w, http.StatusOK, view)
}

// Signal handles POST /sessions/{session_id}/signals.
func (h *Handler) Signal(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	var sig SignalRequest
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	if err := h.svc.Signal(id, sig); err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		case errors.Is(err, ErrUnknownSignal):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			h.log.Error("signal failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return
	}

	h.log.Debug("signal applied",
		slog.String("session_id", string(id)),
		slog.String("signal", sig.Signal))
	view, _ := h.svc.Snapshot(id)
	writeJSON(w, http.StatusOK, view)
}

// Delivery handles POST /sessions/{session_id}/delivery, the webhook the ad
// delivery subsystem posts its callbacks to.
func (h *Handler) Delivery(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	var cb DeliveryCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	if err := h.svc.Delivery(id, cb); err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		case errors.Is(err, ErrUnknownCallback):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			h.log.Error("delivery callback failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// GetSession handles GET /sessions/{session_id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	view, ok := h.svc.Snapshot(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrSessionNotFound.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetEvents handles GET /sessions/{session_id}/events.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	events, ok := h.svc.Events(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrSessionNotFound.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]EventRecord{"events": events})
}

// DestroySession handles POST /sessions/{session_id}/destroy.
// Destroying twice, or destroying an unknown session, returns 200 for
// idempotency.
func (h *Handler) DestroySession(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	h.svc.DestroySession(id)
	h.log.Info("session destroyed", slog.String("session_id", string(id)))
	w.WriteHeader(http.StatusOK)
}
