package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// HandAt returns an open right hand whose index fingertip and thumb tip sit
// at the given positions. The remaining landmarks are laid out plausibly
// below the index tip so overlays have something to draw.
func HandAt(indexTip, thumbTip Point3D) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	// Wrist sits 0.3 below the fingertip; fingers fan out above it.
	wrist := Point3D{X: indexTip.X, Y: indexTip.Y + 0.3}
	landmarks.Points[Wrist] = wrist

	landmarks.Points[ThumbCMC] = Point3D{X: wrist.X + 0.05, Y: wrist.Y - 0.05}
	landmarks.Points[ThumbMCP] = Point3D{X: (wrist.X + thumbTip.X) / 2, Y: (wrist.Y + thumbTip.Y) / 2}
	landmarks.Points[ThumbIP] = Point3D{X: (landmarks.Points[ThumbMCP].X + thumbTip.X) / 2, Y: (landmarks.Points[ThumbMCP].Y + thumbTip.Y) / 2}
	landmarks.Points[ThumbTip] = thumbTip

	landmarks.Points[IndexMCP] = Point3D{X: indexTip.X, Y: indexTip.Y + 0.18}
	landmarks.Points[IndexPIP] = Point3D{X: indexTip.X, Y: indexTip.Y + 0.11}
	landmarks.Points[IndexDIP] = Point3D{X: indexTip.X, Y: indexTip.Y + 0.05}
	landmarks.Points[IndexTip] = indexTip

	// Middle, ring and pinky are curled against the palm.
	for f, base := range []int{MiddleMCP, RingMCP, PinkyMCP} {
		x := indexTip.X - 0.04*float64(f+1)
		landmarks.Points[base] = Point3D{X: x, Y: indexTip.Y + 0.18}
		landmarks.Points[base+1] = Point3D{X: x, Y: indexTip.Y + 0.16, Z: -0.03}
		landmarks.Points[base+2] = Point3D{X: x, Y: indexTip.Y + 0.19, Z: -0.03}
		landmarks.Points[base+3] = Point3D{X: x, Y: indexTip.Y + 0.21, Z: -0.02}
	}

	return landmarks
}

// PointingLandmarks returns a preset hand with the index finger extended
// and the thumb held well away from it (no pinch).
func PointingLandmarks() HandLandmarks {
	return HandAt(Point3D{X: 0.5, Y: 0.35}, Point3D{X: 0.65, Y: 0.55})
}

// PinchLandmarks returns a preset hand with the thumb tip touching the
// index fingertip.
func PinchLandmarks() HandLandmarks {
	return HandAt(Point3D{X: 0.5, Y: 0.35}, Point3D{X: 0.51, Y: 0.36})
}
