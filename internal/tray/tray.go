// Package tray provides the system tray menu for pinchcursor.
package tray

import (
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/pinchcursor/internal/gesture"
)

// Tray represents the system tray application. It is also a gesture.Sink,
// so it can mirror the live status and the last click in its menu.
type Tray struct {
	onToggle  func(enabled bool)
	onOverlay func()
	onQuit    func()
	enabled   bool
	status    gesture.Status
	lastX     float64
	lastY     float64
	lastClick time.Time
	mu        sync.RWMutex

	// Menu items stored for later updates; nil until the tray is ready.
	menuToggle    *systray.MenuItem
	menuStatus    *systray.MenuItem
	menuLastClick *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
		status:  gesture.StatusShowHand,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpenOverlay sets the callback for the "Open overlay…" menu item.
func (t *Tray) OnOpenOverlay(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOverlay = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and unblocks Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Pinch")
	systray.SetTooltip("pinchcursor: control the pointer with your index finger")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle pointer control")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(statusTitle(t.status), "Current hand status")
	t.menuStatus.Disable()
	t.menuLastClick = systray.AddMenuItem(lastClickTitle(t.lastClick, t.lastX, t.lastY), "Last pinch click")
	t.menuLastClick.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOverlay := systray.AddMenuItem("Open overlay…", "Open the overlay in the browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit pinchcursor")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOverlay.ClickedCh:
				t.handleOverlay()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOverlay() {
	t.mu.RLock()
	callback := t.onOverlay
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// MoveTo remembers the pointer position for the next click.
func (t *Tray) MoveTo(x, y float64) {
	t.mu.Lock()
	t.lastX, t.lastY = x, y
	t.mu.Unlock()
}

// Click records a click at the last pointer position.
func (t *Tray) Click() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastClick = time.Now()
	if t.menuLastClick != nil {
		t.menuLastClick.SetTitle(lastClickTitle(t.lastClick, t.lastX, t.lastY))
	}
}

// Status updates the status line when it changes.
func (t *Tray) Status(st gesture.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if st == t.status {
		return
	}
	t.status = st
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(st))
	}
}

// SetEnabled syncs the toggle with an enabled state changed elsewhere.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// CurrentStatus returns the last status shown.
func (t *Tray) CurrentStatus() gesture.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// LastClick returns where and when the last click happened. The time is
// zero when there has been none.
func (t *Tray) LastClick() (x, y float64, at time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastX, t.lastY, t.lastClick
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func statusTitle(st gesture.Status) string {
	return st.Message()
}

func lastClickTitle(at time.Time, x, y float64) string {
	if at.IsZero() {
		return "Last click: none"
	}
	return fmt.Sprintf("Last click: (%.0f, %.0f) at %s", x, y, at.Format("15:04:05"))
}
