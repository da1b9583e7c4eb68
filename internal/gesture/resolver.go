package gesture

import (
	"github.com/ayusman/tubecontrol/internal/detector"
	"github.com/ayusman/tubecontrol/internal/focus"
)

// DefaultMinConfidence is the gesture score below which a label is treated
// as unrecognised.
const DefaultMinConfidence = 0.5

// Modality is where a candidate came from.
type Modality int

const (
	ModalityGesture Modality = iota
	ModalityFace
)

func (m Modality) String() string {
	if m == ModalityFace {
		return "face"
	}
	return "gesture"
}

// Detection is one hand seen in a frame.
type Detection struct {
	Label       string
	Confidence  float64
	Handedness  detector.Handedness
	FingerCount int
}

// Frame is the resolver's per-frame input.
type Frame struct {
	Detections []Detection
	Focus      focus.Sample
}

// NewFrame builds a frame from raw hands, counting each hand's fingers.
func NewFrame(hands []detector.HandLandmarks, s focus.Sample) Frame {
	f := Frame{Focus: s}
	if len(hands) > 0 {
		f.Detections = make([]Detection, 0, len(hands))
	}
	for _, h := range hands {
		f.Detections = append(f.Detections, Detection{
			Label:       h.Gesture,
			Confidence:  h.GestureScore,
			Handedness:  h.Handedness,
			FingerCount: CountFingers(h.Points, h.Handedness),
		})
	}
	return f
}

// FingerTotal sums finger counts across all hands.
func (f Frame) FingerTotal() int {
	n := 0
	for _, d := range f.Detections {
		n += d.FingerCount
	}
	return n
}

// Candidate is the action a frame resolved to.
type Candidate struct {
	Action   Action
	Modality Modality
}

// Gate exposes the session flags resolution depends on.
type Gate interface {
	EyeControlDisabled() bool
}

// Strategy is one resolution tier.
type Strategy func(f Frame, g Gate) (Candidate, bool)

// BoundGesture picks the first hand, in detection order, whose label is
// recognised with at least minConfidence and maps to a bound gesture action.
func BoundGesture(b Bindings, minConfidence float64) Strategy {
	return func(f Frame, _ Gate) (Candidate, bool) {
		for _, d := range f.Detections {
			if d.Label == "" || d.Label == detector.NoGesture || d.Confidence < minConfidence {
				continue
			}
			a, err := ParseAction(d.Label)
			if err != nil || !a.IsGesture() {
				continue
			}
			if _, ok := b.Lookup(a); ok {
				return Candidate{Action: a, Modality: ModalityGesture}, true
			}
		}
		return Candidate{}, false
	}
}

// FingerSum maps the total finger count over all hands to an NFingers
// action. The candidate is returned whether bound or not.
func FingerSum() Strategy {
	return func(f Frame, _ Gate) (Candidate, bool) {
		a, ok := FingersAction(f.FingerTotal())
		if !ok {
			return Candidate{}, false
		}
		return Candidate{Action: a, Modality: ModalityGesture}, true
	}
}

// FocusFallback turns a known focus sample into Focus or NoFocus when no
// hand is in the frame and eye control is not disabled.
func FocusFallback() Strategy {
	return func(f Frame, g Gate) (Candidate, bool) {
		if len(f.Detections) > 0 || !f.Focus.Known() {
			return Candidate{}, false
		}
		if g != nil && g.EyeControlDisabled() {
			return Candidate{}, false
		}
		a := Focus
		if f.Focus == focus.NotFocused {
			a = NoFocus
		}
		return Candidate{Action: a, Modality: ModalityFace}, true
	}
}

// Resolver runs its strategies in order and returns the first candidate.
type Resolver struct {
	strategies []Strategy
}

// ResolverOption configures a Resolver.
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	minConfidence float64
	gestures      bool
	eyeFocus      bool
}

// WithMinConfidence sets the label confidence floor.
func WithMinConfidence(v float64) ResolverOption {
	return func(c *resolverConfig) { c.minConfidence = v }
}

// WithGestureControl enables or disables the hand tiers.
func WithGestureControl(on bool) ResolverOption {
	return func(c *resolverConfig) { c.gestures = on }
}

// WithEyeFocusControl enables or disables the focus tier.
func WithEyeFocusControl(on bool) ResolverOption {
	return func(c *resolverConfig) { c.eyeFocus = on }
}

// NewResolver builds the standard tier order: bound gesture, finger sum,
// focus fallback.
func NewResolver(b Bindings, opts ...ResolverOption) *Resolver {
	cfg := resolverConfig{
		minConfidence: DefaultMinConfidence,
		gestures:      true,
		eyeFocus:      true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var s []Strategy
	if cfg.gestures {
		s = append(s, BoundGesture(b, cfg.minConfidence), FingerSum())
	}
	if cfg.eyeFocus {
		s = append(s, FocusFallback())
	}
	return &Resolver{strategies: s}
}

// NewResolverWith builds a resolver from an explicit tier list.
func NewResolverWith(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve returns at most one candidate for the frame.
func (r *Resolver) Resolve(f Frame, g Gate) (Candidate, bool) {
	for _, s := range r.strategies {
		if c, ok := s(f, g); ok {
			return c, true
		}
	}
	return Candidate{}, false
}
