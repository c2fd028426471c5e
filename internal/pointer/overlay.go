package pointer

import (
	"sync"
	"time"

	"github.com/ayusman/pinchcursor/internal/gesture"
)

// Overlay cursor appearance.
const (
	CursorSize   = 20
	IdleColor    = "rgba(0, 255, 0, 0.7)"
	FlashColor   = "rgba(255, 0, 0, 0.9)"
	DefaultFlash = 200 * time.Millisecond
)

// Cursor is the style of the on-screen overlay cursor. Left and Top place
// the cursor's box so its centre sits on the pointer position.
type Cursor struct {
	Left  float64 `json:"left"`
	Top   float64 `json:"top"`
	Size  int     `json:"size"`
	Color string  `json:"color"`
}

// Overlay renders the pointer as a coloured circle drawn by browser clients.
// A click turns the circle red for the flash duration. Reverts are never
// cancelled, so a second click inside the window is cut short by the
// first click's revert.
type Overlay struct {
	pub   Publisher
	flash time.Duration

	mu     sync.Mutex
	cursor Cursor
	status gesture.Status
}

// NewOverlay creates an Overlay publishing to pub. A non-positive flash
// uses DefaultFlash.
func NewOverlay(pub Publisher, flash time.Duration) *Overlay {
	if flash <= 0 {
		flash = DefaultFlash
	}
	return &Overlay{
		pub:    pub,
		flash:  flash,
		cursor: Cursor{Size: CursorSize, Color: IdleColor},
		status: gesture.StatusShowHand,
	}
}

// MoveTo centres the cursor on (x, y).
func (o *Overlay) MoveTo(x, y float64) {
	o.mu.Lock()
	o.cursor.Left = x - CursorSize/2
	o.cursor.Top = y - CursorSize/2
	c := o.cursor
	o.mu.Unlock()

	o.publish(Event{Type: EventMove, X: x, Y: y, Cursor: &c, Time: now()})
}

// Click flashes the cursor.
func (o *Overlay) Click() {
	o.setColor(FlashColor)
	o.publish(Event{Type: EventClick, Time: now()})

	time.AfterFunc(o.flash, func() {
		o.setColor(IdleColor)
	})
}

// Status publishes the status when it changes.
func (o *Overlay) Status(st gesture.Status) {
	o.mu.Lock()
	changed := st != o.status
	o.status = st
	o.mu.Unlock()

	if changed {
		o.publish(Event{Type: EventStatus, Status: st, Message: st.Message(), Time: now()})
	}
}

// Snapshot returns the current cursor style and status, for clients that
// connect mid-session.
func (o *Overlay) Snapshot() Event {
	o.mu.Lock()
	defer o.mu.Unlock()

	c := o.cursor
	return Event{
		Type:    EventCursor,
		Status:  o.status,
		Message: o.status.Message(),
		Cursor:  &c,
		Time:    now(),
	}
}

// Cursor returns the current cursor style.
func (o *Overlay) Cursor() Cursor {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cursor
}

func (o *Overlay) setColor(color string) {
	o.mu.Lock()
	o.cursor.Color = color
	c := o.cursor
	o.mu.Unlock()

	o.publish(Event{Type: EventCursor, Cursor: &c, Time: now()})
}

func (o *Overlay) publish(ev Event) {
	if o.pub != nil {
		o.pub.Publish(ev)
	}
}
