// Package detector provides the detection source interfaces and types: hand
// landmarks with recognised gestures, and face blendshapes.
package detector

import "strings"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// NoGesture is the label the recognizer reports when no gesture class wins.
const NoGesture = "None"

// Handedness identifies which hand a detection belongs to.
type Handedness string

const (
	Left    Handedness = "Left"
	Right   Handedness = "Right"
	Unknown Handedness = ""
)

// ParseHandedness accepts the recognizer's display names case-insensitively.
// Anything else maps to Unknown.
func ParseHandedness(s string) Handedness {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left
	case "right":
		return Right
	default:
		return Unknown
	}
}

// Point3D represents a 3D point in space with x, y, z coordinates.
// X and Y are normalized to the frame (0-1), Y grows downward.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand: its landmarks as reported (normally
// NumLandmarks points, but never assumed), handedness and top gesture.
type HandLandmarks struct {
	Points       []Point3D  `json:"points"`
	Handedness   Handedness `json:"handedness"`
	Score        float64    `json:"score"`
	Gesture      string     `json:"gesture"`
	GestureScore float64    `json:"gesture_score"`
}

// Complete reports whether the hand carries a full landmark set.
func (h *HandLandmarks) Complete() bool {
	return h != nil && len(h.Points) >= NumLandmarks
}

// Blendshape is a named facial-expression intensity score.
type Blendshape struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Face is one detected face with its blendshape categories.
type Face struct {
	Blendshapes []Blendshape `json:"blendshapes"`
}

// Scores returns the blendshapes as a name to score map.
func (f Face) Scores() map[string]float64 {
	m := make(map[string]float64, len(f.Blendshapes))
	for _, b := range f.Blendshapes {
		m[b.Name] = b.Score
	}
	return m
}

// Result is everything the detection source reported for one frame.
type Result struct {
	Hands []HandLandmarks `json:"hands"`
	Faces []Face          `json:"faces"`
}
