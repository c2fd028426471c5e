// Package gesture turns hand landmarks into pointer movement and pinch clicks.
package gesture

import (
	"math"

	"github.com/ayusman/pinchcursor/internal/detector"
)

// DefaultThreshold is the pinch distance, in normalized frame units, below
// which the thumb and index tips count as touching.
const DefaultThreshold = 0.05

// Status is the user-facing state reported after each detection cycle.
type Status string

const (
	// StatusShowHand is reported when no hand is in the frame.
	StatusShowHand Status = "show hand"
	// StatusMoveWithIndex is reported while the hand steers without pinching.
	StatusMoveWithIndex Status = "move with index finger"
	// StatusClickDetected is reported while a pinch is held.
	StatusClickDetected Status = "click detected"
)

// Message returns the sentence shown to the user for the status.
func (s Status) Message() string {
	switch s {
	case StatusShowHand:
		return "Show your hand to control mouse"
	case StatusMoveWithIndex:
		return "Move mouse with index finger"
	case StatusClickDetected:
		return "Click detected"
	default:
		return string(s)
	}
}

// Viewport is the size, in pixels, of the surface the pointer moves over.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Position is a point in viewport pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is carried from one cycle to the next.
type State struct {
	// Clicking is true while the pinch that produced the last click is held.
	Clicking bool
}

// Result describes what one cycle decided.
type Result struct {
	Status      Status
	HandPresent bool
	Position    Position // valid only when HandPresent
	Distance    float64  // thumb/index gap, valid only when HandPresent
	Click       bool     // a click was emitted this cycle
}

// Sink receives the side effects of interpretation.
type Sink interface {
	MoveTo(x, y float64)
	Click()
	Status(s Status)
}

// ScreenPosition maps a normalized fingertip to viewport pixels. The camera
// feed is mirrored, so X is flipped.
func ScreenPosition(tip detector.Point3D, vp Viewport) Position {
	return Position{
		X: vp.Width * (1 - tip.X),
		Y: vp.Height * tip.Y,
	}
}

// PinchDistance is the planar distance between two landmarks. Depth is ignored.
func PinchDistance(a, b detector.Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Interpret runs one detection cycle. Only the first hand is considered.
// With no hand the state is returned untouched and no movement is reported.
// A click fires only on the cycle the pinch starts; the pinch must open to
// at least threshold before another click can fire.
func Interpret(state State, hands []detector.HandLandmarks, vp Viewport, threshold float64) (State, Result) {
	if len(hands) == 0 {
		return state, Result{Status: StatusShowHand}
	}

	hand := &hands[0]
	indexTip := hand.IndexTip()

	res := Result{
		HandPresent: true,
		Position:    ScreenPosition(indexTip, vp),
		Distance:    PinchDistance(indexTip, hand.ThumbTip()),
	}

	if res.Distance < threshold {
		if !state.Clicking {
			state.Clicking = true
			res.Click = true
		}
		res.Status = StatusClickDetected
	} else {
		state.Clicking = false
		res.Status = StatusMoveWithIndex
	}

	return state, res
}

// Interpreter holds the state between cycles and forwards results to a Sink.
// It is not safe for concurrent use.
type Interpreter struct {
	state     State
	viewport  Viewport
	threshold float64
	sink      Sink
}

// NewInterpreter creates an Interpreter. A non-positive threshold falls back
// to DefaultThreshold. sink may be nil.
func NewInterpreter(vp Viewport, threshold float64, sink Sink) *Interpreter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Interpreter{
		viewport:  vp,
		threshold: threshold,
		sink:      sink,
	}
}

// Process interprets one cycle and emits move, click and status, in that order.
func (i *Interpreter) Process(hands []detector.HandLandmarks) Result {
	var res Result
	i.state, res = Interpret(i.state, hands, i.viewport, i.threshold)

	if i.sink == nil {
		return res
	}
	if res.HandPresent {
		i.sink.MoveTo(res.Position.X, res.Position.Y)
	}
	if res.Click {
		i.sink.Click()
	}
	i.sink.Status(res.Status)

	return res
}

// State returns the state carried into the next cycle.
func (i *Interpreter) State() State {
	return i.state
}

// Viewport returns the current viewport.
func (i *Interpreter) Viewport() Viewport {
	return i.viewport
}

// SetViewport changes the surface future positions are mapped onto.
func (i *Interpreter) SetViewport(vp Viewport) {
	i.viewport = vp
}

// Threshold returns the pinch threshold.
func (i *Interpreter) Threshold() float64 {
	return i.threshold
}

// SetThreshold changes the pinch threshold. Non-positive values are ignored.
func (i *Interpreter) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	i.threshold = threshold
}

// SetSink replaces the sink receiving side effects.
func (i *Interpreter) SetSink(sink Sink) {
	i.sink = sink
}
