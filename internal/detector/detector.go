package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector defines the interface for detection source implementations.
type Detector interface {
	// Detect analyzes a video frame captured at timestampMs and returns the
	// hands and faces found in it. Empty slices mean nothing was detected.
	Detect(frame *gocv.Mat, timestampMs int64) (Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MaxFaces is the maximum number of faces to detect (default: 1).
	MaxFaces int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// IdleTimeout stops the subprocess after this long without frames. Zero
	// keeps it running.
	IdleTimeout time.Duration

	// ScriptPath and PythonPath override the search for the service script
	// and the interpreter.
	ScriptPath string
	PythonPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      2,
		MaxFaces:      1,
		MinConfidence: 0.5,
		IdleTimeout:   30 * time.Second,
	}
}
