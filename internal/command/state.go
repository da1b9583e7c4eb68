// Package command decides when a resolved candidate may fire and dispatches
// the bound operation to the player.
package command

import (
	"time"

	"github.com/ayusman/tubecontrol/internal/gesture"
)

// State is the per-session command memory. It is owned by the frame loop
// and only mutated through Controller.Observe, Controller.Commit and
// Controller.Release.
type State struct {
	LastAction    gesture.Action
	LastOperation gesture.Operation
	LastModality  gesture.Modality
	LastFired     time.Time

	// Start of the current uninterrupted Focused / NotFocused run. Zero when
	// no run is in progress.
	FocusRunStart   time.Time
	NoFocusRunStart time.Time

	// LastFaceFired is the last face action fired. A face action cannot fire
	// again until the opposing one has.
	LastFaceFired gesture.Action

	// EyeControlLatched is set by a gesture pause and cleared by a gesture
	// play. While set, focus changes do not resolve to candidates.
	EyeControlLatched bool

	held bool
}

// NewState returns an empty session state.
func NewState() *State {
	return &State{}
}

// EyeControlDisabled implements gesture.Gate.
func (s *State) EyeControlDisabled() bool {
	return s.EyeControlLatched
}

// Held reports whether the last fired gesture is still being held.
func (s *State) Held() bool {
	return s.held
}

// Snapshot is a copy of State suitable for reporting.
type Snapshot struct {
	LastAction        string    `json:"last_action"`
	LastOperation     string    `json:"last_operation"`
	LastModality      string    `json:"last_modality"`
	LastFired         time.Time `json:"last_fired"`
	EyeControlLatched bool      `json:"eye_control_latched"`
}

// Snapshot returns the reportable part of the state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		LastAction:        s.LastAction.String(),
		LastOperation:     s.LastOperation.String(),
		LastModality:      s.LastModality.String(),
		LastFired:         s.LastFired,
		EyeControlLatched: s.EyeControlLatched,
	}
}
