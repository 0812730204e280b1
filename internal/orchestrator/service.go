package orchestrator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ad-orchestrator/internal/adsession"
	"ad-orchestrator/internal/platform/metrics"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when the session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnknownSignal is returned for an unrecognized playback signal.
	ErrUnknownSignal = errors.New("unknown signal")

	// ErrUnknownCallback is returned for an unrecognized delivery callback type.
	ErrUnknownCallback = errors.New("unknown delivery callback type")
)

// Service applies business logic on top of the session registry: creating
// sessions, routing signals and delivery callbacks into the core, and
// recording events and metrics.
type Service struct {
	repo     Repository
	defaults adsession.Config
	log      *slog.Logger
	met      *metrics.Metrics
}

// NewService returns a Service using repo. defaults seeds each new session's
// config; per-request fields override it. met may be nil to disable metric
// recording (e.g. in tests).
func NewService(repo Repository, defaults adsession.Config, log *slog.Logger, met *metrics.Metrics) *Service {
	return &Service{repo: repo, defaults: defaults, log: log, met: met}
}

// CreateSession builds a session with its collaborators, subscribes the
// event log and metrics to its bus, and registers it.
func (s *Service) CreateSession(req CreateSessionRequest) *SessionRecord {
	cfg := s.defaults
	if req.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(req.RequestTimeoutSeconds * float64(time.Second))
	}
	if req.RetryBudget != 0 {
		cfg.RetryBudget = req.RetryBudget
	}
	if req.AlwaysStartWithPreroll {
		cfg.AlwaysStartWithPreroll = true
	}
	if req.PlayAdsAfterTime > 0 {
		cfg.PlayAdsAfterTime = req.PlayAdsAfterTime
	}
	if req.Language != "" {
		cfg.Language = req.Language
	}
	if req.EnableDebugMode {
		cfg.EnableDebugMode = true
	}

	id := SessionID(uuid.NewString())
	log := s.log.With(slog.String("session_id", string(id)))
	gateway := NewDeliveryRecorder(log)
	player := NewTrackedPlayer(req.ContentDuration, req.NoSurface)

	rec := &SessionRecord{
		ID:      id,
		Session: adsession.NewSession(cfg, gateway, player, log),
		Gateway: gateway,
		Player:  player,
	}
	rec.Session.Bus().Subscribe(rec.AppendEvent)
	rec.Session.Bus().Subscribe(s.recordMetrics)

	s.repo.Create(rec)
	s.log.Info("session created", slog.String("session_id", string(id)))
	return rec
}

// recordMetrics translates session events into counters.
func (s *Service) recordMetrics(ev adsession.Event) {
	if s.met == nil {
		return
	}
	switch ev.Kind {
	case adsession.EventAdsRequested:
		s.met.IncAdsRequests()
	case adsession.EventAdsRequestFailed:
		s.met.IncAdsRequestFailures()
	case adsession.EventRequestTimedOut:
		s.met.IncAdsRequestTimeouts()
	case adsession.EventAdBreakEnded:
		s.met.IncAdBreaksPlayed()
	case adsession.EventError:
		s.met.IncAdErrors()
	}
}

// RequestAds issues an ads request on the session.
func (s *Service) RequestAds(id SessionID, spec adsession.RequestSpec) error {
	rec, ok := s.repo.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	return rec.Session.RequestAds(spec)
}

// Signal routes an external playback signal into the session.
func (s *Service) Signal(id SessionID, sig SignalRequest) error {
	rec, ok := s.repo.Get(id)
	if !ok {
		return ErrSessionNotFound
	}

	switch sig.Signal {
	case "play":
		rec.Session.NotifyPlayIntent(adsession.PlayTypePlay)
	case "resume":
		rec.Session.NotifyPlayIntent(adsession.PlayTypeResume)
	case "did-play":
		rec.Session.NotifyDidPlay()
	case "background":
		rec.Session.NotifyBackground()
	case "foreground":
		rec.Session.NotifyForeground()
	case "content-ended":
		rec.Session.NotifyContentEnded()
	case "pause-ads":
		rec.Session.PauseAds()
	case "resume-ads":
		rec.Session.ResumeAds()
	case "seek":
		rec.Session.NotifySeek(sig.From, sig.To)
	case "position":
		rec.Player.SetPosition(sig.Time)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSignal, sig.Signal)
	}
	return nil
}

// Delivery routes an ad delivery webhook callback into the session.
func (s *Service) Delivery(id SessionID, cb DeliveryCallback) error {
	rec, ok := s.repo.Get(id)
	if !ok {
		return ErrSessionNotFound
	}

	switch cb.Type {
	case "loaded":
		rec.Session.OnAdsLoaded()
	case "failed":
		rec.Session.OnRequestFailed(cb.ReasonCode, cb.Message)
	case "ad-event":
		rec.Session.OnAdEvent(cb.EventKind, cb.AdInfo)
	case "ad-error":
		rec.Session.OnAdError(cb.ReasonCode, cb.Message)
	case "progress":
		rec.Session.OnProgress(cb.MediaTime, cb.TotalTime)
	case "cuepoints":
		rec.Session.OnCuePointsChanged(cb.CuePoints)
	case "content-pause":
		rec.Session.OnContentPauseRequested()
	case "content-resume":
		rec.Session.OnContentResumeRequested()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCallback, cb.Type)
	}
	return nil
}

// Snapshot returns the session's current API view.
func (s *Service) Snapshot(id SessionID) (SessionView, bool) {
	rec, ok := s.repo.Get(id)
	if !ok {
		return SessionView{}, false
	}
	now := rec.Player.CurrentTime()
	return SessionView{
		ID:            rec.ID,
		State:         rec.Session.State().String(),
		IsAdPlaying:   rec.Session.IsAdPlaying(),
		RetryBudget:   rec.Session.RetryBudget(),
		CuePoints:     rec.Session.CuePoints(),
		GatewayCalls:  rec.Gateway.Calls(),
		PlayerTime:    now,
		PendingAdHere: rec.Session.HasPendingAdAt(now),
	}, true
}

// Events returns the session's ordered event log.
func (s *Service) Events(id SessionID) ([]EventRecord, bool) {
	rec, ok := s.repo.Get(id)
	if !ok {
		return nil, false
	}
	return rec.Events(), true
}

// DestroySession tears down and removes the session. Destroying an unknown
// session is a no-op.
func (s *Service) DestroySession(id SessionID) {
	s.repo.Destroy(id)
}

// ActiveSessionCount returns the number of live sessions.
func (s *Service) ActiveSessionCount() int {
	return s.repo.ActiveSessionCount()
}
