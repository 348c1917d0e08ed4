package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/landmark"
)

// MockDetector is a test implementation of the Detector interface.
// It plays back a configured frame sequence, cycling when the
// sequence runs out.
type MockDetector struct {
	mu     sync.Mutex
	frames []*landmark.Frame
	next   int
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFrame sets a single frame that every Detect call returns.
func (m *MockDetector) SetFrame(frame *landmark.Frame) {
	m.SetFrames([]*landmark.Frame{frame})
}

// SetFrames sets the frame sequence returned by successive Detect
// calls. Playback restarts from the first frame.
func (m *MockDetector) SetFrames(frames []*landmark.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = frames
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next pre-configured frame or error. With no
// frames configured it returns an all-missing frame, matching a
// detector that sees nobody.
func (m *MockDetector) Detect(frame *gocv.Mat) (*landmark.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.frames) == 0 {
		return landmark.NewFrame(nil)
	}

	result := m.frames[m.next]
	m.next = (m.next + 1) % len(m.frames)
	return result, nil
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SigningFrame returns a preset frame of a subject facing the camera
// with both hands raised mid-chest, every point tracked at high
// confidence. It survives quality filtering and normalization, so
// tests can feed it straight into the recognition pipeline.
func SigningFrame() *landmark.Frame {
	groups := map[string][]landmark.Point{
		landmark.GroupPose:      signingPose(),
		landmark.GroupLeftHand:  raisedHand(0.38, 0.42, -1),
		landmark.GroupRightHand: raisedHand(0.62, 0.42, 1),
		landmark.GroupFace:      frontFace(),
	}
	frame, err := landmark.NewFrame(groups)
	if err != nil {
		panic(err)
	}
	return frame
}

// RestFrame returns a preset frame of the same subject with both
// hands dropped out of view. Pose and face stay tracked but the hand
// groups are absent, so quality filtering rejects the frame.
func RestFrame() *landmark.Frame {
	groups := map[string][]landmark.Point{
		landmark.GroupPose: signingPose(),
		landmark.GroupFace: frontFace(),
	}
	frame, err := landmark.NewFrame(groups)
	if err != nil {
		panic(err)
	}
	return frame
}

// signingPose lays out shoulders level, elbows bent, wrists raised to
// chest height. Y increases downward in image coordinates.
func signingPose() []landmark.Point {
	points := make([]landmark.Point, landmark.NumPosePoints)
	points[landmark.LeftShoulder] = landmark.Point{X: 0.40, Y: 0.35, Z: -0.05, Confidence: 0.98}
	points[landmark.RightShoulder] = landmark.Point{X: 0.60, Y: 0.35, Z: -0.05, Confidence: 0.98}
	points[landmark.LeftElbow] = landmark.Point{X: 0.33, Y: 0.50, Z: -0.02, Confidence: 0.95}
	points[landmark.RightElbow] = landmark.Point{X: 0.67, Y: 0.50, Z: -0.02, Confidence: 0.95}
	points[landmark.LeftWrist] = landmark.Point{X: 0.38, Y: 0.42, Z: 0.03, Confidence: 0.92}
	points[landmark.RightWrist] = landmark.Point{X: 0.62, Y: 0.42, Z: 0.03, Confidence: 0.92}
	return points
}

// raisedHand lays out an open hand above the given wrist position.
// side is -1 for the left hand and 1 for the right, fanning the
// fingers away from the body midline.
func raisedHand(wristX, wristY, side float64) []landmark.Point {
	points := make([]landmark.Point, landmark.NumHandPoints)
	points[0] = landmark.Point{X: wristX, Y: wristY, Z: 0.03, Confidence: 0.93}

	// Five fingers, four joints each, ordered base to tip.
	spread := []float64{-0.045, -0.020, 0.0, 0.020, 0.040}
	for finger := 0; finger < 5; finger++ {
		baseX := wristX + side*spread[finger]
		for joint := 0; joint < 4; joint++ {
			reach := 0.02 + 0.018*float64(joint+1)
			points[1+finger*4+joint] = landmark.Point{
				X:          baseX + side*0.004*float64(joint),
				Y:          wristY - reach,
				Z:          0.03 - 0.005*float64(joint),
				Confidence: 0.90,
			}
		}
	}
	return points
}

// frontFace lays out eyebrow and mouth-corner references on a face
// looking straight at the camera.
func frontFace() []landmark.Point {
	return []landmark.Point{
		{X: 0.46, Y: 0.18, Z: -0.03, Confidence: 0.97},
		{X: 0.54, Y: 0.18, Z: -0.03, Confidence: 0.97},
		{X: 0.47, Y: 0.26, Z: -0.02, Confidence: 0.96},
		{X: 0.53, Y: 0.26, Z: -0.02, Confidence: 0.96},
	}
}
