package focus

import (
	"github.com/ayusman/tubecontrol/internal/detector"
)

// DefaultMargin is the headroom added on top of the observed maxima.
const DefaultMargin = 0.15

// Calibrator accumulates the highest gaze scores seen while the user looks
// around the edges of the screen. Anything beyond those maxima plus a margin
// is then treated as looking away.
type Calibrator struct {
	margin  float64
	maxima  map[string]float64
	samples int
}

// NewCalibrator creates a calibrator. A negative margin falls back to
// DefaultMargin.
func NewCalibrator(margin float64) *Calibrator {
	if margin < 0 {
		margin = DefaultMargin
	}
	return &Calibrator{
		margin: margin,
		maxima: make(map[string]float64, len(GazeBlendshapes)),
	}
}

// Add records one face sample.
func (c *Calibrator) Add(f *detector.Face) error {
	if f == nil || len(f.Blendshapes) == 0 {
		return ErrNoFace
	}
	for _, b := range f.Blendshapes {
		if !IsGazeBlendshape(b.Name) {
			continue
		}
		if cur, ok := c.maxima[b.Name]; !ok || b.Score > cur {
			c.maxima[b.Name] = b.Score
		}
	}
	c.samples++
	return nil
}

// AddResult records the first face of a detection result.
func (c *Calibrator) AddResult(r detector.Result) error {
	if len(r.Faces) == 0 {
		return ErrNoFace
	}
	return c.Add(&r.Faces[0])
}

// Samples returns how many samples were accepted.
func (c *Calibrator) Samples() int {
	return c.samples
}

// Reset discards all accumulated samples.
func (c *Calibrator) Reset() {
	c.maxima = make(map[string]float64, len(GazeBlendshapes))
	c.samples = 0
}

// Thresholds returns max*(1+margin) for every gaze blendshape. Maxima start
// at zero, so a blendshape never observed during calibration gets a zero
// threshold and any later movement in that direction counts as looking away.
func (c *Calibrator) Thresholds() (Thresholds, error) {
	if c.samples == 0 {
		return nil, ErrNoSamples
	}
	t := make(Thresholds, len(GazeBlendshapes))
	for _, name := range GazeBlendshapes {
		v := c.maxima[name]
		if v < 0 {
			v = 0
		}
		t[name] = v * (1 + c.margin)
	}
	return t, nil
}
