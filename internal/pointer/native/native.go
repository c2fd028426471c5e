// Package native drives the operating system pointer.
package native

import (
	"sync"

	"github.com/go-vgo/robotgo"

	"github.com/ayusman/pinchcursor/internal/gesture"
)

// Pointer moves the real mouse pointer and injects left clicks. Positions
// are expected in screen pixels, so the interpreter's viewport should be
// the value returned by ScreenViewport.
type Pointer struct {
	mu sync.Mutex
	// skip repeated moves to the same pixel
	lastX, lastY int
	moved        bool
}

// New creates a native Pointer.
func New() *Pointer {
	return &Pointer{}
}

// ScreenViewport returns the main display size.
func ScreenViewport() gesture.Viewport {
	w, h := robotgo.GetScreenSize()
	return gesture.Viewport{Width: float64(w), Height: float64(h)}
}

// MoveTo moves the OS pointer.
func (p *Pointer) MoveTo(x, y float64) {
	ix, iy := int(x), int(y)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.moved && ix == p.lastX && iy == p.lastY {
		return
	}
	p.lastX, p.lastY, p.moved = ix, iy, true

	robotgo.Move(ix, iy)
}

// Click sends a left click at the current pointer position.
func (p *Pointer) Click() {
	p.mu.Lock()
	defer p.mu.Unlock()

	robotgo.Click("left")
}

// Status is ignored; the OS pointer has no status display.
func (p *Pointer) Status(gesture.Status) {}
