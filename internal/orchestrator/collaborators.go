package orchestrator

import (
	"log/slog"
	"sync"

	"ad-orchestrator/internal/adsession"
)

// DeliveryRecorder is the control plane's outbound half of the delivery
// gateway. The real delivery subsystem is remote and reports back through the
// delivery webhook; calls the core issues toward it are recorded here for
// inspection and logged.
type DeliveryRecorder struct {
	mu    sync.Mutex
	log   *slog.Logger
	calls []string
	spec  adsession.RequestSpec
}

// NewDeliveryRecorder returns a recorder that logs outbound calls to log.
func NewDeliveryRecorder(log *slog.Logger) *DeliveryRecorder {
	return &DeliveryRecorder{log: log}
}

func (d *DeliveryRecorder) record(call string) {
	d.mu.Lock()
	d.calls = append(d.calls, call)
	d.mu.Unlock()
	d.log.Debug("delivery gateway call", slog.String("call", call))
}

// RequestAds implements adsession.AdDeliveryGateway.
func (d *DeliveryRecorder) RequestAds(spec adsession.RequestSpec) error {
	d.mu.Lock()
	d.spec = spec
	d.mu.Unlock()
	d.record("requestAds")
	return nil
}

// InitAdPlayback implements adsession.AdDeliveryGateway.
func (d *DeliveryRecorder) InitAdPlayback() { d.record("initAdPlayback") }

// StartAdBreak implements adsession.AdDeliveryGateway.
func (d *DeliveryRecorder) StartAdBreak() { d.record("startAdBreak") }

// PauseAds implements adsession.AdDeliveryGateway.
func (d *DeliveryRecorder) PauseAds() { d.record("pauseAds") }

// ResumeAds implements adsession.AdDeliveryGateway.
func (d *DeliveryRecorder) ResumeAds() { d.record("resumeAds") }

// DiscardCurrentAdBreak implements adsession.AdDeliveryGateway.
func (d *DeliveryRecorder) DiscardCurrentAdBreak() { d.record("discardCurrentAdBreak") }

// ContentComplete implements adsession.AdDeliveryGateway.
func (d *DeliveryRecorder) ContentComplete() { d.record("contentComplete") }

// Destroy implements adsession.AdDeliveryGateway.
func (d *DeliveryRecorder) Destroy() { d.record("destroy") }

// Calls returns a copy of the outbound call log.
func (d *DeliveryRecorder) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

// LastSpec returns the most recently requested spec.
func (d *DeliveryRecorder) LastSpec() adsession.RequestSpec {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.spec
}

// TrackedPlayer is the control plane's content player adapter. Position and
// duration are fed through the API; pause/resume/seek are recorded so the
// session's side effects stay observable.
type TrackedPlayer struct {
	mu       sync.Mutex
	position float64
	duration float64
	surface  bool
	paused   bool
}

// NewTrackedPlayer returns a player with the given duration. The session has
// a renderable surface unless noSurface is set.
func NewTrackedPlayer(duration float64, noSurface bool) *TrackedPlayer {
	return &TrackedPlayer{duration: duration, surface: !noSurface}
}

// Pause implements adsession.ContentPlayer.
func (p *TrackedPlayer) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

// Resume implements adsession.ContentPlayer.
func (p *TrackedPlayer) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
}

// SeekTo implements adsession.ContentPlayer.
func (p *TrackedPlayer) SeekTo(seconds float64) {
	p.mu.Lock()
	p.position = seconds
	p.mu.Unlock()
}

// CurrentTime implements adsession.ContentPlayer.
func (p *TrackedPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// Duration implements adsession.ContentPlayer.
func (p *TrackedPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// HasSurface implements adsession.ContentPlayer.
func (p *TrackedPlayer) HasSurface() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.surface
}

// SetPosition updates the content playhead (position signal).
func (p *TrackedPlayer) SetPosition(seconds float64) {
	p.mu.Lock()
	p.position = seconds
	p.mu.Unlock()
}

// Paused reports whether content is currently paused.
func (p *TrackedPlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}
