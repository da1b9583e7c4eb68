package command

import (
	"testing"
	"time"

	"github.com/ayusman/tubecontrol/internal/focus"
	"github.com/ayusman/tubecontrol/internal/gesture"
)

var (
	play     = gesture.Candidate{Action: gesture.PlayVideo, Modality: gesture.ModalityGesture}
	pause    = gesture.Candidate{Action: gesture.PauseVideo, Modality: gesture.ModalityGesture}
	volUp    = gesture.Candidate{Action: gesture.VolumeUp, Modality: gesture.ModalityGesture}
	volDown  = gesture.Candidate{Action: gesture.VolumeDown, Modality: gesture.ModalityGesture}
	focused  = gesture.Candidate{Action: gesture.Focus, Modality: gesture.ModalityFace}
	lookAway = gesture.Candidate{Action: gesture.NoFocus, Modality: gesture.ModalityFace}
	five     = gesture.Candidate{Action: gesture.FiveFingers, Modality: gesture.ModalityGesture}
)

var t0 = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func fired(c *Controller, cand gesture.Candidate, at time.Time) *State {
	st := NewState()
	op, _ := c.Bindings().Lookup(cand.Action)
	c.Commit(st, cand, op, at)
	return st
}

func TestAdmitUnbound(t *testing.T) {
	c := NewController(gesture.DefaultBindings())
	d := c.Admit(NewState(), five, t0)
	if d.Admitted || d.Reason != ReasonUnbound {
		t.Errorf("Admit(unbound) = %+v, want ReasonUnbound", d)
	}
}

func TestAdmitFirstCommand(t *testing.T) {
	c := NewController(gesture.DefaultBindings())
	d := c.Admit(NewState(), play, t0)
	if !d.Admitted || d.Operation != gesture.PlayVideoControl {
		t.Errorf("Admit() = %+v, want admitted play", d)
	}
}

func TestAdmitCooldown(t *testing.T) {
	c := NewController(gesture.DefaultBindings())

	tests := []struct {
		name  string
		prev  gesture.Candidate
		next  gesture.Candidate
		after time.Duration
		want  Reason
	}{
		{"play then pause too soon", play, pause, time.Second, ReasonCooldown},
		{"play then pause after cooldown", play, pause, 1800 * time.Millisecond, ReasonAdmitted},
		{"volume then volume discounted", volUp, volUp, 450 * time.Millisecond, ReasonAdmitted},
		{"volume then volume before discount", volUp, volDown, 449 * time.Millisecond, ReasonCooldown},
		{"volume then play not discounted", volUp, play, 450 * time.Millisecond, ReasonCooldown},
		{"play then volume not discounted", play, volUp, 450 * time.Millisecond, ReasonCooldown},
		{"volume then play after full cooldown", volUp, play, 1800 * time.Millisecond, ReasonAdmitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := fired(c, tt.prev, t0)
			c.Release(st, tt.next, true)
			d := c.Admit(st, tt.next, t0.Add(tt.after))
			if d.Reason != tt.want {
				t.Errorf("Admit() reason = %v, want %v", d.Reason, tt.want)
			}
			if d.Admitted != (tt.want == ReasonAdmitted) {
				t.Errorf("Admit() admitted = %v", d.Admitted)
			}
		})
	}
}

func TestAdmitDuplicate(t *testing.T) {
	c := NewController(gesture.DefaultBindings())
	later := t0.Add(5 * time.Second)

	t.Run("held pause is suppressed", func(t *testing.T) {
		st := fired(c, pause, t0)
		c.Release(st, pause, true)
		if d := c.Admit(st, pause, later); d.Reason != ReasonDuplicate {
			t.Errorf("reason = %v, want duplicate", d.Reason)
		}
	})

	t.Run("released then repeated", func(t *testing.T) {
		st := fired(c, pause, t0)
		c.Release(st, gesture.Candidate{}, false)
		c.Release(st, pause, true)
		if d := c.Admit(st, pause, later); !d.Admitted {
			t.Errorf("Admit() = %+v, want admitted", d)
		}
	})

	t.Run("held volume repeats", func(t *testing.T) {
		st := fired(c, volUp, t0)
		c.Release(st, volUp, true)
		if d := c.Admit(st, volUp, later); !d.Admitted {
			t.Errorf("Admit() = %+v, want admitted", d)
		}
	})
}

func TestAdmitFace(t *testing.T) {
	c := NewController(gesture.DefaultBindings())

	t.Run("no run", func(t *testing.T) {
		if d := c.Admit(NewState(), focused, t0); d.Reason != ReasonDwell {
			t.Errorf("reason = %v, want dwell", d.Reason)
		}
	})

	t.Run("dwell not reached", func(t *testing.T) {
		st := NewState()
		c.Observe(st, focus.Focused, t0)
		if d := c.Admit(st, focused, t0.Add(649*time.Millisecond)); d.Reason != ReasonDwell {
			t.Errorf("reason = %v, want dwell", d.Reason)
		}
	})

	t.Run("dwell reached", func(t *testing.T) {
		st := NewState()
		c.Observe(st, focus.NotFocused, t0)
		d := c.Admit(st, lookAway, t0.Add(650*time.Millisecond))
		if !d.Admitted || d.Operation != gesture.PauseVideoControl {
			t.Errorf("Admit() = %+v, want admitted pause", d)
		}
	})

	t.Run("latched until opposite fires", func(t *testing.T) {
		st := fired(c, focused, t0)
		c.Observe(st, focus.Focused, t0.Add(time.Second))
		if d := c.Admit(st, focused, t0.Add(10*time.Second)); d.Reason != ReasonLatched {
			t.Errorf("reason = %v, want latched", d.Reason)
		}
	})
}

func TestObserve(t *testing.T) {
	c := NewController(gesture.DefaultBindings())
	st := NewState()

	c.Observe(st, focus.Focused, t0)
	c.Observe(st, focus.Focused, t0.Add(time.Second))
	if !st.FocusRunStart.Equal(t0) {
		t.Errorf("FocusRunStart = %v, want %v", st.FocusRunStart, t0)
	}

	c.Observe(st, focus.Unknown, t0.Add(2*time.Second))
	if !st.FocusRunStart.Equal(t0) {
		t.Error("Unknown sample interrupted the run")
	}

	c.Observe(st, focus.NotFocused, t0.Add(3*time.Second))
	if !st.FocusRunStart.IsZero() {
		t.Error("opposing sample did not clear the focus run")
	}
	if !st.NoFocusRunStart.Equal(t0.Add(3 * time.Second)) {
		t.Errorf("NoFocusRunStart = %v", st.NoFocusRunStart)
	}
}

func TestCommit(t *testing.T) {
	c := NewController(gesture.DefaultBindings())

	t.Run("gesture pause latches eye control", func(t *testing.T) {
		st := NewState()
		if !c.Commit(st, pause, gesture.PauseVideoControl, t0) {
			t.Error("first commit should notify")
		}
		if !st.EyeControlDisabled() {
			t.Error("eye control not disabled after gesture pause")
		}
		c.Commit(st, play, gesture.PlayVideoControl, t0.Add(2*time.Second))
		if st.EyeControlDisabled() {
			t.Error("eye control still disabled after gesture play")
		}
	})

	t.Run("face pause does not latch", func(t *testing.T) {
		st := NewState()
		c.Commit(st, lookAway, gesture.PauseVideoControl, t0)
		if st.EyeControlDisabled() {
			t.Error("face pause disabled eye control")
		}
		if st.LastFaceFired != gesture.NoFocus {
			t.Errorf("LastFaceFired = %v", st.LastFaceFired)
		}
	})

	t.Run("face commit resets runs", func(t *testing.T) {
		st := NewState()
		c.Observe(st, focus.Focused, t0)
		c.Commit(st, focused, gesture.PlayVideoControl, t0.Add(time.Second))
		if !st.FocusRunStart.IsZero() || !st.NoFocusRunStart.IsZero() {
			t.Error("runs not reset")
		}
	})

	t.Run("repeat does not notify", func(t *testing.T) {
		st := NewState()
		c.Commit(st, volUp, gesture.VolumeUpVideoControl, t0)
		if c.Commit(st, volUp, gesture.VolumeUpVideoControl, t0.Add(time.Second)) {
			t.Error("repeated action notified")
		}
	})
}

func TestOptions(t *testing.T) {
	clock := newFakeClock()
	c := NewController(gesture.DefaultBindings(),
		WithClock(clock.Now),
		WithCooldown(time.Second),
		WithVolumeDiscount(0.5),
		WithDwell(100*time.Millisecond),
	)

	if !c.Now().Equal(clock.Now()) {
		t.Error("clock not injected")
	}

	st := fired(c, volUp, t0)
	if d := c.Admit(st, volUp, t0.Add(500*time.Millisecond)); !d.Admitted {
		t.Errorf("custom discount: %+v", d)
	}
	if d := c.Admit(st, play, t0.Add(999*time.Millisecond)); d.Reason != ReasonCooldown {
		t.Errorf("custom cooldown: %+v", d)
	}

	face := NewState()
	c.Observe(face, focus.Focused, t0)
	if d := c.Admit(face, focused, t0.Add(100*time.Millisecond)); !d.Admitted {
		t.Errorf("custom dwell: %+v", d)
	}
}

func TestReasonString(t *testing.T) {
	if ReasonDuplicate.String() != "duplicate" || Reason(42).String() != "unknown" {
		t.Error("unexpected reason names")
	}
}
