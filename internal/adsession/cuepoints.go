package adsession

import (
	"errors"
	"fmt"
)

// PostRollOffset is the sentinel timeline offset marking a post-roll ad break.
const PostRollOffset float64 = -1

// CuePoint marks one scheduled ad break on the content timeline.
// End == Start signals a single-instant marker; Start == PostRollOffset
// marks a post-roll.
type CuePoint struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Played bool    `json:"played"`
}

// IsPostRoll reports whether this cue point is the post-roll sentinel.
func (c CuePoint) IsPostRoll() bool {
	return c.Start == PostRollOffset
}

// ErrMalformedCuePoints is returned when a snapshot fails validation.
// The tracker keeps its previous valid snapshot in that case.
var ErrMalformedCuePoints = errors.New("malformed cue point snapshot")

// CuePointTracker holds the latest atomic cue-point snapshot and answers
// which ad break, if any, covers a given content time.
// Not safe for concurrent use; the Session serializes all access.
type CuePointTracker struct {
	points []CuePoint
}

// NewCuePointTracker returns an empty tracker.
func NewCuePointTracker() *CuePointTracker {
	return &CuePointTracker{}
}

// ReplaceSnapshot validates points and replaces the whole snapshot.
// Start times must be monotonically non-decreasing and End must not precede
// Start; the post-roll sentinel is exempt but must come last. A rejected
// snapshot leaves the tracker unchanged.
func (t *CuePointTracker) ReplaceSnapshot(points []CuePoint) error {
	for i, p := range points {
		if p.IsPostRoll() {
			if i != len(points)-1 {
				return fmt.Errorf("%w: post-roll sentinel at index %d is not last", ErrMalformedCuePoints, i)
			}
			continue
		}
		if p.Start < 0 {
			return fmt.Errorf("%w: negative start %v at index %d", ErrMalformedCuePoints, p.Start, i)
		}
		if p.End < p.Start {
			return fmt.Errorf("%w: negative duration at index %d", ErrMalformedCuePoints, i)
		}
		if i > 0 && !points[i-1].IsPostRoll() && p.Start < points[i-1].Start {
			return fmt.Errorf("%w: start time decreases at index %d", ErrMalformedCuePoints, i)
		}
	}

	snapshot := make([]CuePoint, len(points))
	copy(snapshot, points)
	t.points = snapshot
	return nil
}

// Snapshot returns a copy of the current cue points.
func (t *CuePointTracker) Snapshot() []CuePoint {
	out := make([]CuePoint, len(t.points))
	copy(out, t.points)
	return out
}

// Len returns the number of known cue points.
func (t *CuePointTracker) Len() int {
	return len(t.points)
}

// Current returns the index of the cue point whose [Start, End) interval
// contains atTime, or -1 if none does. A single-instant marker (End == Start)
// matches exactly at its boundary. Half-open semantics break ties: a shared
// boundary belongs to the point starting there.
func (t *CuePointTracker) Current(atTime float64) int {
	for i, p := range t.points {
		if p.IsPostRoll() {
			continue
		}
		if p.End == p.Start {
			if atTime == p.Start {
				return i
			}
			continue
		}
		if atTime >= p.Start && atTime < p.End {
			return i
		}
	}
	return -1
}

// IsEligible reports whether the cue point at index i has not yet played.
func (t *CuePointTracker) IsEligible(i int) bool {
	if i < 0 || i >= len(t.points) {
		return false
	}
	return !t.points[i].Played
}

// MarkPlayed marks the cue point at index i as played. Marking an
// already-played point, or an out-of-range index, is a no-op.
func (t *CuePointTracker) MarkPlayed(i int) {
	if i < 0 || i >= len(t.points) {
		return
	}
	t.points[i].Played = true
}

// MarkPlayedAt marks the cue point whose start matches offset as played.
// Unknown offsets are a no-op.
func (t *CuePointTracker) MarkPlayedAt(offset float64) {
	for i, p := range t.points {
		if p.Start == offset {
			t.points[i].Played = true
			return
		}
	}
}

// NextUnplayedBetween returns the index of the first unplayed cue point whose
// start lies inside (from, to], or -1 if there is none. Used for seek
// snapback over skipped ad breaks.
func (t *CuePointTracker) NextUnplayedBetween(from, to float64) int {
	for i, p := range t.points {
		if p.IsPostRoll() || p.Played {
			continue
		}
		if p.Start > from && p.Start <= to {
			return i
		}
	}
	return -1
}

// HasPostRoll reports whether the snapshot ends with the post-roll sentinel.
func (t *CuePointTracker) HasPostRoll() bool {
	return len(t.points) > 0 && t.points[len(t.points)-1].IsPostRoll()
}
