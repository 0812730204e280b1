package adsession

import (
	"log/slog"
	"sync"
)

// PlayType distinguishes a first play from a resume after pause.
type PlayType string

const (
	// PlayTypePlay is an initial play intent.
	PlayTypePlay PlayType = "play"
	// PlayTypeResume is a resume-after-pause intent.
	PlayTypeResume PlayType = "resume"
)

// Session orchestrates one end-to-end attempt to request and play ads
// alongside one content playback. All state transitions, cue-point updates,
// timer callbacks, and delivery callbacks are serialized through one
// mutex-guarded region; events are published after the triggering transition
// completes. Bus subscribers must not call back into the Session
// synchronously.
//
// The gateway and player are referenced, not owned; their lifetime belongs
// to the surrounding application. A shared gateway is reset (ContentComplete)
// before a new request reuses it.
type Session struct {
	mu      sync.Mutex
	emitMu  sync.Mutex
	pending []Event

	log     *slog.Logger
	cfg     Config
	gateway AdDeliveryGateway
	player  ContentPlayer
	bus     *Bus

	machine *stateMachine
	timer   requestTimer
	tracker *CuePointTracker

	spec    RequestSpec
	hasSpec bool

	retryBudget int
	lastAdInfo  *AdInfo

	// deliveryResponded mirrors "the delivery subsystem has answered this
	// request": set on loaded, cleared on teardown. A timer fire with this
	// set is stale and ignored.
	deliveryResponded bool
	// adBreakInitialized guards the one-shot ad-break initialization side
	// effect per successful load.
	adBreakInitialized bool

	// Post-roll hold: content ended but the final break has not played yet.
	contentEndedNeedPostroll bool

	// Snapback over a seek that skipped an unplayed ad break.
	snapbackPending bool
	snapbackTarget  float64

	destroyed bool
}

// NewSession constructs a Session around the given collaborators.
// log may be nil; a no-op logger is substituted.
func NewSession(cfg Config, gateway AdDeliveryGateway, player ContentPlayer, log *slog.Logger) *Session {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	cfg = cfg.withDefaults()
	return &Session{
		log:         log,
		cfg:         cfg,
		gateway:     gateway,
		player:      player,
		bus:         NewBus(),
		machine:     newStateMachine(log),
		tracker:     NewCuePointTracker(),
		retryBudget: cfg.RetryBudget,
	}
}

// Bus returns the session's event bus for subscription.
func (s *Session) Bus() *Bus {
	return s.bus
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.getState()
}

// IsAdPlaying reports whether an ad is currently playing, from local state.
// Collaborator-reported playback status is corroborating only; divergence is
// logged, never failed on.
func (s *Session) IsAdPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.getState() == StateAdsPlaying
}

// RetryBudget returns the remaining automatic retries.
func (s *Session) RetryBudget() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retryBudget
}

// CuePoints returns a copy of the current cue-point snapshot.
func (s *Session) CuePoints() []CuePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Snapshot()
}

// emit queues an event for delivery after the current transition completes.
// Must be called with s.mu held.
func (s *Session) emit(ev Event) {
	s.pending = append(s.pending, ev)
}

// unlockAndFlush releases the state lock and delivers queued events in order.
// emitMu is taken before mu is released so concurrent transitions cannot
// interleave their event batches out of transition order.
func (s *Session) unlockAndFlush() {
	events := s.pending
	s.pending = nil
	s.emitMu.Lock()
	s.mu.Unlock()
	for _, ev := range events {
		s.bus.Publish(ev)
	}
	s.emitMu.Unlock()
}

/* Public operations */

// RequestAds validates spec and issues an asynchronous ads request.
// Configuration errors (invalid spec, missing surface) are returned directly,
// before any transition or side effect. On success the session moves to
// AdsRequested and the timeout timer is armed.
func (s *Session) RequestAds(spec RequestSpec) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSessionDestroyed
	}
	if s.player != nil && !s.player.HasSurface() {
		s.mu.Unlock()
		return ErrMissingSurface
	}
	if err := spec.Validate(); err != nil {
		s.mu.Unlock()
		s.log.Debug("invalid ads request spec", slog.String("error", err.Error()))
		return err
	}

	// A reused gateway must be reset before a new request, otherwise stale
	// callbacks could be misattributed to this session.
	if s.deliveryResponded {
		s.teardownDeliveryLocked()
	}

	s.spec = spec
	s.hasSpec = true
	s.requestAdsLocked()
	s.unlockAndFlush()
	return nil
}

// requestAdsLocked issues the request with the stored spec, transitions to
// AdsRequested, and arms the timeout timer. Must be called with s.mu held.
func (s *Session) requestAdsLocked() {
	s.machine.set(StateAdsRequested)
	s.deliveryResponded = false
	s.adBreakInitialized = false

	s.log.Debug("request ads", slog.String("mode", string(s.spec.Mode)))
	if err := s.gateway.RequestAds(s.spec); err != nil {
		// The gateway could not even issue the request; surface and stop.
		s.machine.set(StateAdsRequestFailed)
		s.emit(Event{Kind: EventError, Message: err.Error()})
		s.emit(Event{Kind: EventAdsRequestFailed, Message: err.Error()})
		return
	}
	s.emit(Event{Kind: EventAdsRequested})

	s.timer.Arm(s.cfg.RequestTimeout, s.onRequestTimeout)
}

// onRequestTimeout runs when the armed timer fires. It re-enters the serial
// region and is a no-op unless gen is still the live timer generation.
func (s *Session) onRequestTimeout(gen uint64) {
	s.mu.Lock()
	if !s.timer.Current(gen) {
		s.mu.Unlock()
		return
	}
	s.timer.Disarm()

	if s.deliveryResponded {
		// The response won the race; nothing to do.
		s.mu.Unlock()
		return
	}

	shouldPlay := false
	switch s.machine.getState() {
	case StateAdsRequested:
	case StateAdsRequestedAndPlay:
		shouldPlay = true
	default:
		// A timeout should not arrive in any other state.
		s.mu.Unlock()
		return
	}

	s.log.Debug("ads request timed out", slog.Bool("should_play", shouldPlay))
	s.machine.set(StateAdsRequestTimedOut)
	s.emit(Event{Kind: EventRequestTimedOut, ShouldPlay: shouldPlay})
	s.unlockAndFlush()
}

// NotifyPlayIntent routes a play intent based on the current state: while
// loaded it starts the ad break, while a request is in flight it upgrades to
// the AndPlay variant, while an ad plays it resumes the ad, otherwise the
// intent goes straight to the content player.
func (s *Session) NotifyPlayIntent(playType PlayType) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	switch s.machine.getState() {
	case StateAdsLoaded:
		s.startAdLocked()
	case StateAdsRequested:
		s.machine.set(StateAdsRequestedAndPlay)
	case StateAdsPlaying:
		s.gateway.ResumeAds()
	default:
		s.log.Debug("play intent delegated to content player",
			slog.String("type", string(playType)))
		s.player.Resume()
	}
	s.unlockAndFlush()
}

// NotifyDidPlay records that content playback actually started.
func (s *Session) NotifyDidPlay() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.machine.set(StateContentPlaying)
	s.unlockAndFlush()
}

// startAdLocked performs the one-time ad-break start on first play:
// transition to AdsLoadedAndPlay and fire the initialization side effect.
// Must be called with s.mu held.
func (s *Session) startAdLocked() {
	s.machine.set(StateAdsLoadedAndPlay)
	s.initAdPlaybackLocked()
}

// initAdPlaybackLocked initializes the loaded ad break at most once per load
// and publishes the known cue points. Must be called with s.mu held.
func (s *Session) initAdPlaybackLocked() {
	if s.adBreakInitialized {
		return
	}
	s.adBreakInitialized = true
	s.gateway.InitAdPlayback()
	if s.tracker.Len() > 0 {
		s.emit(Event{Kind: EventAdCuePointsUpdate, CuePoints: s.tracker.Snapshot()})
	}
}

// NotifyBackground interrupts an in-flight request when the app goes to
// background: the delivery session is torn down and the state parks at
// StartAndRequest so the request is re-issued on foreground.
func (s *Session) NotifyBackground() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	switch s.machine.getState() {
	case StateAdsRequested, StateAdsRequestedAndPlay:
		s.teardownDeliveryLocked()
		s.machine.set(StateStartAndRequest)
	}
	s.unlockAndFlush()
}

// NotifyForeground re-issues the interrupted request, if any.
func (s *Session) NotifyForeground() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	if s.machine.getState() == StateStartAndRequest && s.hasSpec {
		s.requestAdsLocked()
	}
	s.unlockAndFlush()
}

// NotifyContentEnded handles the content-ended signal. When the cue-point
// snapshot ends with an unplayed post-roll sentinel, the ContentComplete
// signal is held until that break's last ad completes; otherwise it is sent
// immediately.
func (s *Session) NotifyContentEnded() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	points := s.tracker.Snapshot()
	if len(points) <= 1 || !s.tracker.HasPostRoll() || points[len(points)-1].Played {
		s.gateway.ContentComplete()
		s.mu.Unlock()
		return
	}
	// The post-roll break has not played; wait for it before declaring the
	// session complete.
	s.contentEndedNeedPostroll = true
	s.mu.Unlock()
}

// HasPendingAdAt reports whether an eligible (not yet played) ad break covers
// the given content time.
func (s *Session) HasPendingAdAt(atTime float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.tracker.Current(atTime)
	return i >= 0 && s.tracker.IsEligible(i)
}

// NotifySeek implements snapback: a seek that jumps over an unplayed ad break
// is redirected to that break's start, and after the break ends the playhead
// is moved forward to the original target.
func (s *Session) NotifySeek(from, to float64) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	i := s.tracker.NextUnplayedBetween(from, to)
	if i < 0 {
		s.player.SeekTo(to)
		s.mu.Unlock()
		return
	}
	skipped := s.tracker.Snapshot()[i]
	s.log.Debug("seek crosses unplayed ad break, snapping back",
		slog.Float64("break_start", skipped.Start),
		slog.Float64("target", to))
	s.snapbackPending = true
	s.snapbackTarget = to
	s.player.SeekTo(skipped.Start)
	s.mu.Unlock()
}

// PauseAds pauses the currently playing ad.
func (s *Session) PauseAds() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.gateway.PauseAds()
}

// ResumeAds resumes a paused ad.
func (s *Session) ResumeAds() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.gateway.ResumeAds()
}

// Destroy tears down the timer and the delivery session and resets the state
// machine. Idempotent: a second call has no additional effect, and no pending
// timer fire or stale delivery callback can mutate state afterwards.
func (s *Session) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.teardownDeliveryLocked()
	s.mu.Unlock()
}

// teardownDeliveryLocked disarms the timer, destroys the delivery-side
// session, sends the reset signal so the shared gateway can be reused, and
// resets the state machine. Must be called with s.mu held.
func (s *Session) teardownDeliveryLocked() {
	s.timer.Disarm()
	s.gateway.Destroy()
	// Destroying the delivery session and then signaling content complete
	// resets the shared delivery subsystem for the next request.
	s.gateway.ContentComplete()
	s.deliveryResponded = false
	s.adBreakInitialized = false
	s.lastAdInfo = nil
	s.contentEndedNeedPostroll = false
	s.snapbackPending = false
	s.machine.reset()
}

/* Delivery gateway entry points */

// OnAdsLoaded handles a successful delivery response: upgrade the state per
// prior play intent, disarm the timeout timer, and when play intent already
// exists initialize the ad break immediately.
func (s *Session) OnAdsLoaded() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.timer.Disarm()
	s.deliveryResponded = true

	switch s.machine.getState() {
	case StateAdsRequested:
		s.machine.set(StateAdsLoaded)
	case StateAdsRequestedAndPlay:
		s.machine.set(StateAdsLoadedAndPlay)
	}

	// Initialization starts the ad loading process; defer it until play
	// intent exists so a loaded-but-unwatched break never starts rendering.
	if s.machine.getState() == StateAdsLoadedAndPlay {
		s.initAdPlaybackLocked()
	}
	s.unlockAndFlush()
}

// OnRequestFailed handles a delivery failure response. Transient reason codes
// are retried automatically while the retry budget lasts; the failure is
// surfaced to subscribers either way.
func (s *Session) OnRequestFailed(reasonCode int, message string) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.timer.Disarm()
	s.machine.set(StateAdsRequestFailed)

	s.log.Debug("ads request failed",
		slog.Int("reason", reasonCode),
		slog.String("message", message))
	s.emit(Event{Kind: EventError, ReasonCode: reasonCode, Message: message})
	s.emit(Event{Kind: EventAdsRequestFailed, ReasonCode: reasonCode, Message: message})

	if transientReason(reasonCode) && s.retryBudget > 0 && s.hasSpec {
		s.retryBudget--
		s.log.Debug("retrying ads request", slog.Int("budget_left", s.retryBudget))
		s.requestAdsLocked()
	}
	s.unlockAndFlush()
}

// OnAdEvent handles one ad lifecycle event from the delivery collaborator.
// adInfo may be nil for kinds that carry no creative attributes.
func (s *Session) OnAdEvent(kind DeliveryEventKind, adInfo *AdInfo) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	currentState := s.machine.getState()

	switch kind {
	case DeliveryAdBreakReady:
		// Fires before each scheduled ad break; creative attributes are not
		// available yet.
		s.emit(Event{Kind: EventAdBreakReady})
		if !canPlayAd(currentState) {
			break
		}
		s.gateway.StartAdBreak()

	case DeliveryLoaded:
		// A single ad fires LOADED without AD_BREAK_READY.
		if adInfo != nil && s.shouldDiscardLocked(*adInfo, currentState) {
			s.discardAdBreakLocked()
			break
		}
		ev := Event{Kind: EventAdLoaded}
		if adInfo != nil {
			s.lastAdInfo = adInfo
			ev.AdInfo = adInfo
		}
		s.emit(ev)
		// With scheduled cue points the break start is handled by
		// AD_BREAK_READY, not here.
		if s.tracker.Len() > 0 {
			break
		}
		if !canPlayAd(currentState) {
			break
		}
		s.gateway.StartAdBreak()

	case DeliveryStarted:
		s.machine.set(StateAdsPlaying)
		ev := Event{Kind: EventAdStarted}
		if adInfo != nil {
			s.lastAdInfo = adInfo
			ev.AdInfo = adInfo
		}
		s.emit(ev)

	case DeliveryAdBreakStarted:
		s.emit(Event{Kind: EventAdBreakStarted})

	case DeliveryAdBreakEnded:
		if s.lastAdInfo != nil {
			s.tracker.MarkPlayedAt(s.lastAdInfo.TimeOffset)
		}
		s.emit(Event{Kind: EventAdBreakEnded})
		if s.snapbackPending {
			s.snapbackPending = false
			if s.snapbackTarget > s.player.CurrentTime() {
				s.player.SeekTo(s.snapbackTarget)
			}
		}

	case DeliveryComplete:
		s.emit(Event{Kind: EventAdComplete})
		if s.lastAdInfo != nil && s.lastAdInfo.IsLastInPod() && s.contentEndedNeedPostroll {
			s.contentEndedNeedPostroll = false
			s.gateway.ContentComplete()
		}

	case DeliveryAllAdsCompleted:
		// All ads have played; tear down the delivery session so the next
		// request starts clean.
		s.teardownDeliveryLocked()
		s.emit(Event{Kind: EventAllAdsCompleted})

	case DeliveryFirstQuartile:
		s.emit(Event{Kind: EventAdFirstQuartile})
	case DeliveryMidpoint:
		s.emit(Event{Kind: EventAdMidpoint})
	case DeliveryThirdQuartile:
		s.emit(Event{Kind: EventAdThirdQuartile})
	case DeliveryPaused:
		s.emit(Event{Kind: EventAdPaused})
	case DeliveryResumed:
		s.emit(Event{Kind: EventAdResumed})
	case DeliveryAdBuffering:
		s.emit(Event{Kind: EventAdStartedBuffering})
	case DeliveryAdPlaybackReady:
		s.emit(Event{Kind: EventAdPlaybackReady})
	case DeliveryClicked:
		ev := Event{Kind: EventAdClicked}
		if adInfo != nil {
			ev.ClickThroughURL = adInfo.ClickThroughURL
		}
		s.emit(ev)
	case DeliveryTapped:
		s.emit(Event{Kind: EventAdTapped})
	case DeliverySkipped:
		s.emit(Event{Kind: EventAdSkipped})
	case DeliveryLog:
		s.emit(Event{Kind: EventAdLog})
	}
	s.unlockAndFlush()
}

// OnAdError surfaces a delivery-side playback error. No state change: the
// worst outcome is that this session's ads fail and content keeps playing.
func (s *Session) OnAdError(reasonCode int, message string) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.log.Debug("ad error", slog.Int("reason", reasonCode), slog.String("message", message))
	s.emit(Event{Kind: EventError, ReasonCode: reasonCode, Message: message})
	s.unlockAndFlush()
}

// OnProgress relays ad playback progress to subscribers.
func (s *Session) OnProgress(mediaTime, totalTime float64) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.emit(Event{Kind: EventAdDidProgress, MediaTime: mediaTime, TotalTime: totalTime})
	s.unlockAndFlush()
}

// OnContentPauseRequested handles the delivery collaborator asking content to
// pause so an ad break can play.
func (s *Session) OnContentPauseRequested() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.machine.set(StateAdsPlaying)
	s.player.Pause()
	s.emit(Event{Kind: EventAdDidRequestContentPause})
	s.unlockAndFlush()
}

// OnContentResumeRequested handles the delivery collaborator handing playback
// back to content after an ad break ends or is discarded.
func (s *Session) OnContentResumeRequested() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.contentResumeLocked()
	s.unlockAndFlush()
}

func (s *Session) contentResumeLocked() {
	s.machine.set(StateContentPlaying)
	s.player.Resume()
	s.emit(Event{Kind: EventAdDidRequestContentResume})
}

// OnCuePointsChanged replaces the cue-point snapshot. A malformed snapshot is
// rejected atomically: the previous snapshot is retained and a data error is
// surfaced as an event.
func (s *Session) OnCuePointsChanged(points []CuePoint) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	if err := s.tracker.ReplaceSnapshot(points); err != nil {
		s.log.Debug("rejected cue point snapshot", slog.String("error", err.Error()))
		s.emit(Event{Kind: EventError, Message: err.Error()})
		s.unlockAndFlush()
		return
	}
	s.emit(Event{Kind: EventAdCuePointsUpdate, CuePoints: s.tracker.Snapshot()})
	s.unlockAndFlush()
}

/* Gating and discard rules */

// canPlayAd protects against a delivery response that loads after timeout:
// an ad-start signal is honored only when ads are loaded with play intent or
// content is already playing.
func canPlayAd(state State) bool {
	return state == StateAdsLoadedAndPlay || state == StateContentPlaying
}

// shouldDiscardLocked applies the pre-roll discard rule: the pre-roll window
// has passed (timed out or content already playing), or policy defers ad
// playback past a configured start offset and pre-rolls are not forced.
func (s *Session) shouldDiscardLocked(ad AdInfo, currentState State) bool {
	if ad.PositionType() != PositionPreRoll {
		return false
	}
	if currentState == StateAdsRequestTimedOut || currentState == StateContentPlaying {
		return true
	}
	if !s.cfg.AlwaysStartWithPreroll && s.cfg.PlayAdsAfterTime > 0 {
		return true
	}
	return false
}

// discardAdBreakLocked drops the pending break and resumes content as if the
// break had completed normally. Must be called with s.mu held.
func (s *Session) discardAdBreakLocked() {
	s.log.Debug("discard ad break")
	s.gateway.DiscardCurrentAdBreak()
	s.contentResumeLocked()
}
