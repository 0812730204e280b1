package adsession

import "errors"

// Request validation errors, returned synchronously from RequestAds before
// any state transition or side effect.
var (
	// ErrMissingSurface is returned when no renderable surface is available.
	ErrMissingSurface = errors.New("no renderable surface available")
	// ErrEmptyAdTag is returned for a tag-mode spec with neither a tag URL
	// nor a raw ads response payload.
	ErrEmptyAdTag = errors.New("ad tag url is empty and no ads response given")
	// ErrMissingStreamKeys is returned for a stream-mode spec missing its
	// required identifiers.
	ErrMissingStreamKeys = errors.New("stream request is missing required keys")
	// ErrSessionDestroyed is returned from operations on a destroyed session.
	ErrSessionDestroyed = errors.New("session is destroyed")
)

// Delivery failure reason codes. The transient set is retried automatically
// against the session's retry budget.
const (
	// ReasonVASTLoadFailed indicates the delivery subsystem failed to fetch
	// or parse the ad markup.
	ReasonVASTLoadFailed = 1005
	// ReasonPlaylistFetchFailed indicates a server-side playlist fetch failure.
	ReasonPlaylistFetchFailed = 1010
)

// transientReason reports whether a delivery failure reason code is
// considered transient and therefore retryable.
func transientReason(code int) bool {
	return code == ReasonVASTLoadFailed || code == ReasonPlaylistFetchFailed
}

// RequestMode selects which fields of a RequestSpec are required.
type RequestMode string

const (
	// ModeAdTag requests ads from a tag URL or a raw ads response payload.
	ModeAdTag RequestMode = "adTag"
	// ModeVODStream requests a server-side stitched VOD stream.
	ModeVODStream RequestMode = "vod"
	// ModeLiveStream requests a server-side stitched live stream.
	ModeLiveStream RequestMode = "live"
)

// RequestSpec holds the immutable parameters of one ads request.
type RequestSpec struct {
	Mode RequestMode `json:"mode"`

	// Tag mode: one of AdTagURL or AdsResponse must be set.
	AdTagURL    string `json:"adTagUrl,omitempty"`
	AdsResponse string `json:"adsResponse,omitempty"`

	// VOD stream mode.
	ContentSourceID string `json:"contentSourceId,omitempty"`
	VideoID         string `json:"videoId,omitempty"`

	// Live stream mode.
	AssetKey string `json:"assetKey,omitempty"`
}

// Validate checks that the spec carries every field its mode requires.
func (s RequestSpec) Validate() error {
	switch s.Mode {
	case ModeAdTag, "":
		if s.AdTagURL == "" && s.AdsResponse == "" {
			return ErrEmptyAdTag
		}
	case ModeVODStream:
		if s.ContentSourceID == "" || s.VideoID == "" {
			return ErrMissingStreamKeys
		}
	case ModeLiveStream:
		if s.AssetKey == "" {
			return ErrMissingStreamKeys
		}
	}
	return nil
}

// AdDeliveryGateway abstracts the external ad-serving subsystem. The core
// issues these calls; results and lifecycle events come back asynchronously
// through the Session's On* entry points. A gateway instance may be shared
// across sessions; only one session is active against it at a time.
type AdDeliveryGateway interface {
	// RequestAds issues an asynchronous ads request.
	RequestAds(spec RequestSpec) error
	// InitAdPlayback prepares the loaded ad break for rendering. Called at
	// most once per successful load, and only after play intent exists.
	InitAdPlayback()
	// StartAdBreak starts playback of the ready ad break.
	StartAdBreak()
	// PauseAds pauses the currently playing ad.
	PauseAds()
	// ResumeAds resumes a paused ad.
	ResumeAds()
	// DiscardCurrentAdBreak drops the pending ad break without playing it.
	DiscardCurrentAdBreak()
	// ContentComplete signals that no more ads are expected this session.
	// Required between sessions when the gateway instance is reused.
	ContentComplete()
	// Destroy tears down the delivery-side session.
	Destroy()
}

// DeliveryEventKind identifies an ad lifecycle event reported by the
// delivery collaborator. All named delegate callbacks of the underlying SDK
// collapse into one OnAdEvent entry point switching on this kind.
type DeliveryEventKind string

const (
	DeliveryAdBreakReady     DeliveryEventKind = "AD_BREAK_READY"
	DeliveryAdBreakStarted   DeliveryEventKind = "AD_BREAK_STARTED"
	DeliveryAdBreakEnded     DeliveryEventKind = "AD_BREAK_ENDED"
	DeliveryLoaded           DeliveryEventKind = "LOADED"
	DeliveryAdBuffering      DeliveryEventKind = "AD_BUFFERING"
	DeliveryAdPlaybackReady  DeliveryEventKind = "AD_PLAYBACK_READY"
	DeliveryStarted          DeliveryEventKind = "STARTED"
	DeliveryFirstQuartile    DeliveryEventKind = "FIRST_QUARTILE"
	DeliveryMidpoint         DeliveryEventKind = "MIDPOINT"
	DeliveryThirdQuartile    DeliveryEventKind = "THIRD_QUARTILE"
	DeliveryPaused           DeliveryEventKind = "PAUSE"
	DeliveryResumed          DeliveryEventKind = "RESUME"
	DeliveryClicked          DeliveryEventKind = "CLICKED"
	DeliveryTapped           DeliveryEventKind = "TAPPED"
	DeliverySkipped          DeliveryEventKind = "SKIPPED"
	DeliveryComplete         DeliveryEventKind = "COMPLETE"
	DeliveryAllAdsCompleted  DeliveryEventKind = "ALL_ADS_COMPLETED"
	DeliveryCuePointsChanged DeliveryEventKind = "CUEPOINTS_CHANGED"
	DeliveryLog              DeliveryEventKind = "LOG"
)

// ContentPlayer abstracts the primary content player engine.
type ContentPlayer interface {
	Pause()
	Resume()
	// SeekTo moves the content playhead to the given offset in seconds.
	SeekTo(seconds float64)
	// CurrentTime returns the content playhead position in seconds.
	CurrentTime() float64
	// Duration returns the content duration in seconds.
	Duration() float64
	// HasSurface reports whether a renderable surface is available.
	HasSurface() bool
}
