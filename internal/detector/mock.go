package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	result Result
	err    error
	calls  int
	lastTS int64
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result.Hands = hands
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result.Faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was invoked and the last timestamp.
func (m *MockDetector) Calls() (int, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls, m.lastTS
}

// Detect returns the pre-configured result or error.
func (m *MockDetector) Detect(frame *gocv.Mat, timestampMs int64) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastTS = timestampMs
	if m.err != nil {
		return Result{}, m.err
	}
	return m.result, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// HandFixture builds a hand with the given fingers extended. Coordinates are
// laid out so the finger-count rules see exactly the extended fingers: the
// thumb tip sits past its IP joint toward +X for a Left hand and toward -X
// for a Right hand.
func HandFixture(h Handedness, thumb, index, middle, ring, pinky bool) HandLandmarks {
	hand := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: h,
		Score:      0.95,
		Gesture:    NoGesture,
	}

	dir := 1.0
	if h == Right {
		dir = -1.0
	}

	hand.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	hand.Points[ThumbCMC] = Point3D{X: 0.5 + dir*0.05, Y: 0.75}
	hand.Points[ThumbMCP] = Point3D{X: 0.5 + dir*0.10, Y: 0.70}
	if thumb {
		hand.Points[ThumbIP] = Point3D{X: 0.5 + dir*0.15, Y: 0.65}
		hand.Points[ThumbTip] = Point3D{X: 0.5 + dir*0.20, Y: 0.60}
	} else {
		hand.Points[ThumbIP] = Point3D{X: 0.5 + dir*0.10, Y: 0.66}
		hand.Points[ThumbTip] = Point3D{X: 0.5 + dir*0.05, Y: 0.68}
	}

	fingers := []struct {
		mcp      int
		extended bool
		x        float64
	}{
		{IndexMCP, index, 0.5 + dir*0.05},
		{MiddleMCP, middle, 0.5},
		{RingMCP, ring, 0.5 - dir*0.05},
		{PinkyMCP, pinky, 0.5 - dir*0.10},
	}

	for _, f := range fingers {
		if f.extended {
			hand.Points[f.mcp] = Point3D{X: f.x, Y: 0.68}
			hand.Points[f.mcp+1] = Point3D{X: f.x, Y: 0.55}
			hand.Points[f.mcp+2] = Point3D{X: f.x, Y: 0.45}
			hand.Points[f.mcp+3] = Point3D{X: f.x, Y: 0.35}
		} else {
			hand.Points[f.mcp] = Point3D{X: f.x, Y: 0.70, Z: -0.02}
			hand.Points[f.mcp+1] = Point3D{X: f.x, Y: 0.66, Z: -0.05}
			hand.Points[f.mcp+2] = Point3D{X: f.x - dir*0.03, Y: 0.68, Z: -0.04}
			hand.Points[f.mcp+3] = Point3D{X: f.x - dir*0.05, Y: 0.72, Z: -0.02}
		}
	}

	return hand
}

// OpenPalmLandmarks returns a hand with all five fingers extended.
func OpenPalmLandmarks(h Handedness) HandLandmarks {
	return HandFixture(h, true, true, true, true, true)
}

// FistLandmarks returns a hand with every finger curled.
func FistLandmarks(h Handedness) HandLandmarks {
	return HandFixture(h, false, false, false, false, false)
}

// WithGesture returns a copy of the hand labelled with a recognized gesture.
func WithGesture(hand HandLandmarks, label string, score float64) HandLandmarks {
	hand.Gesture = label
	hand.GestureScore = score
	return hand
}

// FaceFixture returns a face with the given blendshape scores.
func FaceFixture(scores map[string]float64) Face {
	face := Face{Blendshapes: make([]Blendshape, 0, len(scores))}
	for name, score := range scores {
		face.Blendshapes = append(face.Blendshapes, Blendshape{Name: name, Score: score})
	}
	return face
}
