package adsession

// EventKind identifies a session-level event published on the bus.
type EventKind string

// Session event kinds. Subscribers receive one Event per state transition or
// translated delivery event, in the exact order the transitions occurred.
const (
	EventAdsRequested              EventKind = "adsRequested"
	EventAdsRequestFailed          EventKind = "adsRequestFailed"
	EventRequestTimedOut           EventKind = "requestTimedOut"
	EventAdBreakReady              EventKind = "adBreakReady"
	EventAdBreakStarted            EventKind = "adBreakStarted"
	EventAdBreakEnded              EventKind = "adBreakEnded"
	EventAdLoaded                  EventKind = "adLoaded"
	EventAdStarted                 EventKind = "adStarted"
	EventAdStartedBuffering        EventKind = "adStartedBuffering"
	EventAdPlaybackReady           EventKind = "adPlaybackReady"
	EventAdFirstQuartile           EventKind = "adFirstQuartile"
	EventAdMidpoint                EventKind = "adMidpoint"
	EventAdThirdQuartile           EventKind = "adThirdQuartile"
	EventAdPaused                  EventKind = "adPaused"
	EventAdResumed                 EventKind = "adResumed"
	EventAdClicked                 EventKind = "adClicked"
	EventAdTapped                  EventKind = "adTapped"
	EventAdSkipped                 EventKind = "adSkipped"
	EventAdComplete                EventKind = "adComplete"
	EventAllAdsCompleted           EventKind = "allAdsCompleted"
	EventAdDidRequestContentPause  EventKind = "adDidRequestContentPause"
	EventAdDidRequestContentResume EventKind = "adDidRequestContentResume"
	EventAdDidProgress             EventKind = "adDidProgress"
	EventAdCuePointsUpdate         EventKind = "adCuePointsUpdate"
	EventAdLog                     EventKind = "adLog"
	EventError                     EventKind = "error"
)

// Event is a session-level event delivered to bus subscribers. Payload
// fields are populated per kind; unused fields are zero.
type Event struct {
	Kind EventKind `json:"kind"`

	// AdInfo is set on AdLoaded/AdStarted when creative attributes are known.
	AdInfo *AdInfo `json:"adInfo,omitempty"`
	// CuePoints is set on AdCuePointsUpdate.
	CuePoints []CuePoint `json:"cuePoints,omitempty"`
	// MediaTime and TotalTime are set on AdDidProgress.
	MediaTime float64 `json:"mediaTime,omitempty"`
	TotalTime float64 `json:"totalTime,omitempty"`
	// ShouldPlay is set on RequestTimedOut: whether play intent existed
	// before the timeout, so the caller can fall back to content playback.
	ShouldPlay bool `json:"shouldPlay,omitempty"`
	// ReasonCode and Message are set on Error and AdsRequestFailed.
	ReasonCode int    `json:"reasonCode,omitempty"`
	Message    string `json:"message,omitempty"`
	// ClickThroughURL is set on AdClicked when the creative carries one.
	ClickThroughURL string `json:"clickThroughUrl,omitempty"`
}
