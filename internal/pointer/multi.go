package pointer

import "github.com/ayusman/pinchcursor/internal/gesture"

// Multi fans every call out to each sink in order.
type Multi []gesture.Sink

// MoveTo forwards to every sink.
func (m Multi) MoveTo(x, y float64) {
	for _, s := range m {
		s.MoveTo(x, y)
	}
}

// Click forwards to every sink.
func (m Multi) Click() {
	for _, s := range m {
		s.Click()
	}
}

// Status forwards to every sink.
func (m Multi) Status(st gesture.Status) {
	for _, s := range m {
		s.Status(st)
	}
}

// StatusFunc is a sink that only observes status changes.
type StatusFunc func(gesture.Status)

func (f StatusFunc) MoveTo(x, y float64) {}
func (f StatusFunc) Click()              {}

// Status calls f(st).
func (f StatusFunc) Status(st gesture.Status) {
	f(st)
}

// ClickFunc is a sink that only observes clicks, at the last position moved to.
type ClickFunc func(x, y float64)

// ClickAt wraps f so it is called on each click with the latest position.
func ClickAt(f ClickFunc) gesture.Sink {
	return &clickTracker{fn: f}
}

type clickTracker struct {
	fn   ClickFunc
	x, y float64
}

func (c *clickTracker) MoveTo(x, y float64)   { c.x, c.y = x, y }
func (c *clickTracker) Click()                { c.fn(c.x, c.y) }
func (c *clickTracker) Status(gesture.Status) {}
