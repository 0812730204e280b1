package adsession

// AdPositionType classifies where an ad break sits on the content timeline.
type AdPositionType int

const (
	// PositionPreRoll is an ad break scheduled before content (offset 0).
	PositionPreRoll AdPositionType = iota
	// PositionMidRoll is an ad break scheduled during content.
	PositionMidRoll
	// PositionPostRoll is an ad break scheduled after content
	// (the sentinel offset PostRollOffset).
	PositionPostRoll
)

// String implements fmt.Stringer.
func (p AdPositionType) String() string {
	switch p {
	case PositionPreRoll:
		return "preRoll"
	case PositionMidRoll:
		return "midRoll"
	case PositionPostRoll:
		return "postRoll"
	}
	return "unknown"
}

// AdInfo describes a single loaded ad creative. It is an immutable value
// constructed once per delivery "loaded"/"started" event.
type AdInfo struct {
	Description string  `json:"description,omitempty"`
	Duration    float64 `json:"duration"`
	Title       string  `json:"title,omitempty"`
	IsSkippable bool    `json:"isSkippable"`
	ContentType string  `json:"contentType,omitempty"`
	AdID        string  `json:"adId,omitempty"`
	AdSystem    string  `json:"adSystem,omitempty"`
	Height      int     `json:"height,omitempty"`
	Width       int     `json:"width,omitempty"`

	// Pod attributes.
	TotalAds   int     `json:"totalAds"`
	AdPosition int     `json:"adPosition"`
	TimeOffset float64 `json:"timeOffset"`
	IsBumper   bool    `json:"isBumper"`
	PodIndex   int     `json:"podIndex"`

	MediaBitrate int `json:"mediaBitrate,omitempty"`

	// ClickThroughURL is the creative's click destination, when known.
	ClickThroughURL string `json:"clickThroughUrl,omitempty"`
}

// PositionType derives the ad break position from the pod's time offset.
func (a AdInfo) PositionType() AdPositionType {
	switch {
	case a.TimeOffset == PostRollOffset:
		return PositionPostRoll
	case a.TimeOffset > 0:
		return PositionMidRoll
	default:
		return PositionPreRoll
	}
}

// IsLastInPod reports whether this ad is the final creative of its pod.
func (a AdInfo) IsLastInPod() bool {
	return a.TotalAds > 0 && a.AdPosition == a.TotalAds
}
