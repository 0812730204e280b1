package orchestrator

import (
	"time"

	"ad-orchestrator/internal/adsession"
)

// SessionID uniquely identifies an ad session.
type SessionID string

// CreateSessionRequest is the input JSON payload for creating a session.
type CreateSessionRequest struct {
	RequestTimeoutSeconds  float64 `json:"requestTimeoutSeconds,omitempty"`
	RetryBudget            int     `json:"retryBudget,omitempty"`
	AlwaysStartWithPreroll bool    `json:"alwaysStartWithPreroll,omitempty"`
	PlayAdsAfterTime       float64 `json:"playAdsAfterTime,omitempty"`
	Language               string  `json:"language,omitempty"`
	EnableDebugMode        bool    `json:"enableDebugMode,omitempty"`

	// Content player setup.
	ContentDuration float64 `json:"contentDuration,omitempty"`
	// NoSurface creates the session without a renderable surface, so a
	// subsequent ads request fails fast with a configuration error.
	NoSurface bool `json:"noSurface,omitempty"`
}

// SignalRequest is the input JSON payload for an external playback signal.
type SignalRequest struct {
	// Signal is one of: play, resume, did-play, background, foreground,
	// content-ended, pause-ads, resume-ads, seek, position.
	Signal string `json:"signal"`
	// From and To apply to the seek signal.
	From float64 `json:"from,omitempty"`
	To   float64 `json:"to,omitempty"`
	// Time applies to the position signal.
	Time float64 `json:"time,omitempty"`
}

// DeliveryCallback is the webhook payload posted by the ad delivery
// subsystem. Type selects which fields are read.
type DeliveryCallback struct {
	// Type is one of: loaded, failed, ad-event, ad-error, progress,
	// cuepoints, content-pause, content-resume.
	Type string `json:"type"`

	ReasonCode int    `json:"reasonCode,omitempty"`
	Message    string `json:"message,omitempty"`

	EventKind adsession.DeliveryEventKind `json:"eventKind,omitempty"`
	AdInfo    *adsession.AdInfo           `json:"adInfo,omitempty"`

	MediaTime float64 `json:"mediaTime,omitempty"`
	TotalTime float64 `json:"totalTime,omitempty"`

	CuePoints []adsession.CuePoint `json:"cuePoints,omitempty"`
}

// EventRecord is one session event as stored in the per-session log.
type EventRecord struct {
	Seq        uint64          `json:"seq"`
	ReceivedAt time.Time       `json:"receivedAt"`
	Event      adsession.Event `json:"event"`
}

// SessionView is the API representation of a session's current state.
type SessionView struct {
	ID           SessionID            `json:"id"`
	State        string               `json:"state"`
	IsAdPlaying  bool                 `json:"isAdPlaying"`
	RetryBudget  int                  `json:"retryBudget"`
	CuePoints    []adsession.CuePoint `json:"cuePoints"`
	GatewayCalls []string             `json:"gatewayCalls"`
	PlayerTime   float64              `json:"playerTime"`
	// PendingAdHere reports whether an eligible ad break covers the current
	// player position.
	PendingAdHere bool `json:"pendingAdHere"`
}
