package command

import (
	"time"

	"github.com/ayusman/tubecontrol/internal/focus"
	"github.com/ayusman/tubecontrol/internal/gesture"
)

// Defaults for Controller.
const (
	DefaultCooldown       = 1800 * time.Millisecond
	DefaultVolumeDiscount = 0.75
	DefaultDwell          = 650 * time.Millisecond
)

// Reason explains an admission decision.
type Reason int

const (
	ReasonAdmitted Reason = iota
	ReasonUnbound
	ReasonCooldown
	ReasonLatched
	ReasonDwell
	ReasonDuplicate
)

var reasonNames = [...]string{
	ReasonAdmitted:  "admitted",
	ReasonUnbound:   "unbound",
	ReasonCooldown:  "cooldown",
	ReasonLatched:   "latched",
	ReasonDwell:     "dwell",
	ReasonDuplicate: "duplicate",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return "unknown"
	}
	return reasonNames[r]
}

// Decision is the result of Admit.
type Decision struct {
	Admitted  bool
	Reason    Reason
	Operation gesture.Operation
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithCooldown sets the minimum gap between any two fired commands.
func WithCooldown(d time.Duration) Option {
	return func(c *Controller) { c.cooldown = d }
}

// WithVolumeDiscount sets the fraction of the cooldown waived between two
// consecutive volume operations.
func WithVolumeDiscount(f float64) Option {
	return func(c *Controller) { c.volumeDiscount = f }
}

// WithDwell sets how long a focus reading must hold before it fires.
func WithDwell(d time.Duration) Option {
	return func(c *Controller) { c.dwell = d }
}

// Controller applies cooldown, dwell, latch and duplicate rules to
// candidates. It holds no session memory of its own; all of it lives in the
// State passed to each call.
type Controller struct {
	bindings       gesture.Bindings
	cooldown       time.Duration
	volumeDiscount float64
	dwell          time.Duration
	now            func() time.Time
}

// NewController creates a controller for a bindings snapshot.
func NewController(b gesture.Bindings, opts ...Option) *Controller {
	c := &Controller{
		bindings:       b,
		cooldown:       DefaultCooldown,
		volumeDiscount: DefaultVolumeDiscount,
		dwell:          DefaultDwell,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the controller's current time.
func (c *Controller) Now() time.Time {
	return c.now()
}

// Bindings returns the controller's bindings snapshot.
func (c *Controller) Bindings() gesture.Bindings {
	return c.bindings
}

// Observe does the dwell bookkeeping for one frame's focus reading. A known
// reading starts its run if none is in progress and ends the opposing one.
func (c *Controller) Observe(st *State, s focus.Sample, now time.Time) {
	switch s {
	case focus.Focused:
		if st.FocusRunStart.IsZero() {
			st.FocusRunStart = now
		}
		st.NoFocusRunStart = time.Time{}
	case focus.NotFocused:
		if st.NoFocusRunStart.IsZero() {
			st.NoFocusRunStart = now
		}
		st.FocusRunStart = time.Time{}
	}
}

// Release clears the hold on the last fired gesture once the frame resolves
// to something else, or to nothing.
func (c *Controller) Release(st *State, cand gesture.Candidate, ok bool) {
	if !ok || cand.Action != st.LastAction {
		st.held = false
	}
}

// Admit decides whether cand may fire now. It does not modify st.
func (c *Controller) Admit(st *State, cand gesture.Candidate, now time.Time) Decision {
	op, ok := c.bindings.Lookup(cand.Action)
	if !ok {
		return Decision{Reason: ReasonUnbound}
	}
	reject := func(r Reason) Decision {
		return Decision{Reason: r, Operation: op}
	}

	if !st.LastFired.IsZero() {
		gap := c.cooldown
		if op.IsVolume() && st.LastOperation.IsVolume() {
			gap = time.Duration(float64(c.cooldown) * (1 - c.volumeDiscount))
		}
		if now.Sub(st.LastFired) < gap {
			return reject(ReasonCooldown)
		}
	}

	if cand.Modality == gesture.ModalityFace {
		if st.LastFaceFired == cand.Action {
			return reject(ReasonLatched)
		}
		start := st.FocusRunStart
		if cand.Action == gesture.NoFocus {
			start = st.NoFocusRunStart
		}
		if start.IsZero() || now.Sub(start) < c.dwell {
			return reject(ReasonDwell)
		}
		return Decision{Admitted: true, Operation: op}
	}

	if !op.IsVolume() && st.held && cand.Action == st.LastAction {
		return reject(ReasonDuplicate)
	}
	return Decision{Admitted: true, Operation: op}
}

// Commit records a successfully dispatched candidate. It reports whether the
// fired action differs from the previous one, which is when the user is
// notified.
func (c *Controller) Commit(st *State, cand gesture.Candidate, op gesture.Operation, now time.Time) bool {
	changed := cand.Action != st.LastAction

	st.LastAction = cand.Action
	st.LastOperation = op
	st.LastModality = cand.Modality
	st.LastFired = now

	if cand.Modality == gesture.ModalityFace {
		st.LastFaceFired = cand.Action
		st.FocusRunStart = time.Time{}
		st.NoFocusRunStart = time.Time{}
		st.held = false
		return changed
	}

	st.held = true
	switch op {
	case gesture.PauseVideoControl:
		st.EyeControlLatched = true
	case gesture.PlayVideoControl:
		st.EyeControlLatched = false
	}
	return changed
}
