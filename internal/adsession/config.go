package adsession

import "time"

// DefaultRequestTimeout is the default interval after which an unanswered
// ads request times out.
const DefaultRequestTimeout = 5 * time.Second

// DefaultRetryBudget is the default number of automatic retries after a
// transient delivery failure.
const DefaultRetryBudget = 3

// Config holds a Session's recognized options.
type Config struct {
	// RequestTimeout is the ads request timeout interval.
	RequestTimeout time.Duration
	// RetryBudget caps automatic retries after transient delivery failures.
	// It is reset only when a brand-new session begins, never mid-sequence.
	RetryBudget int
	// AlwaysStartWithPreroll plays a loaded pre-roll even when playback
	// starts past a configured content offset.
	AlwaysStartWithPreroll bool
	// PlayAdsAfterTime is the content offset (seconds) before which ad
	// playback should not start. Zero disables the policy.
	PlayAdsAfterTime float64
	// Language is the locale tag passed to the delivery subsystem.
	Language string
	// EnableDebugMode turns on verbose delivery-side logging.
	EnableDebugMode bool
}

// withDefaults fills zero-valued fields with defaults.
func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.RetryBudget < 0 {
		c.RetryBudget = 0
	} else if c.RetryBudget == 0 {
		c.RetryBudget = DefaultRetryBudget
	}
	if c.Language == "" {
		c.Language = "en"
	}
	return c
}
