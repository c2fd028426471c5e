package pointer

import (
	"log"

	"github.com/ayusman/pinchcursor/internal/gesture"
)

// Logger writes clicks and status changes to a log.Logger. Moves are
// logged only when Verbose is set.
type Logger struct {
	log     *log.Logger
	Verbose bool
	last    gesture.Status
}

// NewLogger creates a Logger. A nil logger uses the standard logger.
func NewLogger(l *log.Logger) *Logger {
	if l == nil {
		l = log.Default()
	}
	return &Logger{log: l}
}

// MoveTo logs the position when verbose.
func (l *Logger) MoveTo(x, y float64) {
	if l.Verbose {
		l.log.Printf("Pointer moved to (%.0f, %.0f)", x, y)
	}
}

// Click logs the click.
func (l *Logger) Click() {
	l.log.Println("Click")
}

// Status logs the status when it changes.
func (l *Logger) Status(st gesture.Status) {
	if st == l.last {
		return
	}
	l.last = st
	l.log.Printf("Status: %s", st.Message())
}
