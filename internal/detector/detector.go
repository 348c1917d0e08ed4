// Package detector provides holistic landmark detection for sign recognition.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/landmark"
)

// Detector defines the interface for landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the tracked landmarks.
	// Untracked groups come back as missing points; the frame itself is
	// never nil unless an error is returned.
	Detect(frame *gocv.Mat) (*landmark.Frame, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for the holistic detector service.
type Config struct {
	// Script is the path of the holistic service script. Empty means
	// search the usual locations.
	Script string

	// Python is the interpreter used to run the service. Empty means
	// prefer a project virtualenv, then python3.
	Python string

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values. The low
// confidence thresholds keep fast-moving hands tracked between frames.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.3,
		MinTrackingConf: 0.3,
	}
}
