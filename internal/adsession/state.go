package adsession

import "log/slog"

// State represents a Session's position in the ad lifecycle state machine.
type State int

const (
	// StateStart is the pristine pre-session state.
	StateStart State = iota
	// StateStartAndRequest means the request was interrupted by going to
	// background and must be made again on return to foreground.
	StateStartAndRequest
	// StateAdsRequested means an ads request was issued.
	StateAdsRequested
	// StateAdsRequestedAndPlay means an ads request was issued and play
	// intent arrived while it was in flight.
	StateAdsRequestedAndPlay
	// StateAdsRequestFailed means the delivery collaborator reported a failure.
	StateAdsRequestFailed
	// StateAdsRequestTimedOut means the request timer fired before a response.
	StateAdsRequestTimedOut
	// StateAdsLoaded means the request succeeded but play intent has not arrived.
	StateAdsLoaded
	// StateAdsLoadedAndPlay means the request succeeded and play intent arrived.
	StateAdsLoadedAndPlay
	// StateAdsPlaying means an ad is playing.
	StateAdsPlaying
	// StateContentPlaying means content is playing.
	StateContentPlaying
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateStartAndRequest:
		return "StartAndRequest"
	case StateAdsRequested:
		return "AdsRequested"
	case StateAdsRequestedAndPlay:
		return "AdsRequestedAndPlay"
	case StateAdsRequestFailed:
		return "AdsRequestFailed"
	case StateAdsRequestTimedOut:
		return "AdsRequestTimedOut"
	case StateAdsLoaded:
		return "AdsLoaded"
	case StateAdsLoadedAndPlay:
		return "AdsLoadedAndPlay"
	case StateAdsPlaying:
		return "AdsPlaying"
	case StateContentPlaying:
		return "ContentPlaying"
	}
	return "Unknown"
}

// stateMachine tracks the current lifecycle state and validates transitions.
// StateStart cannot be re-entered through set; only reset returns to it.
// Not safe for concurrent use; the Session serializes all access.
type stateMachine struct {
	state State
	log   *slog.Logger
}

func newStateMachine(log *slog.Logger) *stateMachine {
	return &stateMachine{state: StateStart, log: log}
}

// allowedTransitions lists the valid non-trivial edges of the machine.
// StateContentPlaying is reachable from every state (content can start
// rolling regardless of where the ad session got stuck) and is therefore
// handled separately in canTransition.
var allowedTransitions = map[State][]State{
	StateStart:               {StateAdsRequested, StateStartAndRequest},
	StateStartAndRequest:     {StateAdsRequested},
	StateAdsRequested:        {StateAdsRequestedAndPlay, StateAdsLoaded, StateAdsRequestFailed, StateAdsRequestTimedOut, StateStartAndRequest},
	StateAdsRequestedAndPlay: {StateAdsLoadedAndPlay, StateAdsRequestFailed, StateAdsRequestTimedOut, StateStartAndRequest},
	StateAdsRequestFailed:    {StateAdsRequested},
	StateAdsRequestTimedOut:  {StateAdsRequested},
	StateAdsLoaded:           {StateAdsLoadedAndPlay},
	StateAdsLoadedAndPlay:    {StateAdsPlaying},
	StateAdsPlaying:          {},
	StateContentPlaying:      {StateAdsPlaying, StateAdsRequested},
}

func canTransition(from, to State) bool {
	if to == from {
		return true
	}
	if to == StateStart {
		return false
	}
	if to == StateContentPlaying {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// getState returns the current state.
func (m *stateMachine) getState() State {
	return m.state
}

// set applies a transition and reports whether it was valid. Invalid
// transitions leave the state unchanged.
func (m *stateMachine) set(state State) bool {
	if !canTransition(m.state, state) {
		m.log.Debug("invalid state transition ignored",
			slog.String("from", m.state.String()),
			slog.String("to", state.String()))
		return false
	}
	if state != m.state {
		m.log.Debug("state changed",
			slog.String("from", m.state.String()),
			slog.String("to", state.String()))
		m.state = state
	}
	return true
}

// reset returns the machine to StateStart. This is the only way back to the
// initial state.
func (m *stateMachine) reset() {
	if m.state != StateStart {
		m.log.Debug("state machine reset", slog.String("from", m.state.String()))
		m.state = StateStart
	}
}
