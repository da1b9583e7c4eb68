// Package focus classifies a face's gaze as focused on the screen or not,
// and derives per-user gaze thresholds from a calibration walk.
package focus

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ayusman/tubecontrol/internal/detector"
)

var (
	// ErrNoFace is returned when a calibration sample carries no face.
	ErrNoFace = errors.New("no face in sample")
	// ErrNoSamples is returned when thresholds are requested before any
	// sample was accepted.
	ErrNoSamples = errors.New("no calibration samples")
	// ErrInvalidThreshold is returned for negative or unknown thresholds.
	ErrInvalidThreshold = errors.New("invalid threshold")
)

// DefaultThreshold is the per-blendshape threshold used before calibration.
const DefaultThreshold = 0.5

// GazeBlendshapes are the eye-look categories that decide focus.
var GazeBlendshapes = []string{
	"eyeLookDownLeft",
	"eyeLookDownRight",
	"eyeLookInLeft",
	"eyeLookInRight",
	"eyeLookOutLeft",
	"eyeLookOutRight",
	"eyeLookUpLeft",
	"eyeLookUpRight",
}

// IsGazeBlendshape reports whether name is one of GazeBlendshapes.
func IsGazeBlendshape(name string) bool {
	for _, g := range GazeBlendshapes {
		if g == name {
			return true
		}
	}
	return false
}

// Sample is the per-frame focus reading.
type Sample int

const (
	// Unknown means no face was detected.
	Unknown Sample = iota
	Focused
	NotFocused
)

func (s Sample) String() string {
	switch s {
	case Focused:
		return "focused"
	case NotFocused:
		return "not_focused"
	default:
		return "unknown"
	}
}

// Known reports whether the sample came from a detected face.
func (s Sample) Known() bool {
	return s == Focused || s == NotFocused
}

// Thresholds maps each gaze blendshape to the score above which the eye is
// considered to look away.
type Thresholds map[string]float64

// DefaultThresholds returns DefaultThreshold for every gaze blendshape.
func DefaultThresholds() Thresholds {
	t := make(Thresholds, len(GazeBlendshapes))
	for _, name := range GazeBlendshapes {
		t[name] = DefaultThreshold
	}
	return t
}

// Validate checks that t only names gaze blendshapes and holds no negative
// values.
func (t Thresholds) Validate() error {
	for name, v := range t {
		if !IsGazeBlendshape(name) {
			return fmt.Errorf("%w: unknown blendshape %q", ErrInvalidThreshold, name)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidThreshold, name)
		}
	}
	return nil
}

// Merge returns DefaultThresholds overlaid with t, so every gaze blendshape
// has a value.
func (t Thresholds) Merge() Thresholds {
	out := DefaultThresholds()
	for name, v := range t {
		if IsGazeBlendshape(name) {
			out[name] = v
		}
	}
	return out
}

// Classifier turns face blendshapes into a focus Sample.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a classifier. A nil or partial table is completed
// with defaults.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t.Merge()}
}

// Thresholds returns a copy of the active thresholds.
func (c *Classifier) Thresholds() Thresholds {
	out := make(Thresholds, len(c.thresholds))
	for k, v := range c.thresholds {
		out[k] = v
	}
	return out
}

// Classify reads the first face. With no face the sample is Unknown. The
// face is Focused when no gaze blendshape exceeds its threshold.
func (c *Classifier) Classify(faces []detector.Face) Sample {
	if len(faces) == 0 {
		return Unknown
	}
	if len(c.Exceeding(faces[0])) == 0 {
		return Focused
	}
	return NotFocused
}

// Exceeding returns the gaze blendshapes of f whose score is strictly
// greater than their threshold, sorted by name.
func (c *Classifier) Exceeding(f detector.Face) []string {
	var out []string
	for _, b := range f.Blendshapes {
		limit, ok := c.thresholds[b.Name]
		if !ok {
			continue
		}
		if b.Score > limit {
			out = append(out, b.Name)
		}
	}
	sort.Strings(out)
	return out
}
