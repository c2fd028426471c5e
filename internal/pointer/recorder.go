package pointer

import (
	"sync"

	"github.com/ayusman/pinchcursor/internal/gesture"
)

// Recorder keeps every event it receives, most recent last.
// Limit bounds the history; zero keeps everything.
type Recorder struct {
	Limit int

	mu     sync.Mutex
	events []Event
}

// NewRecorder creates a Recorder keeping at most limit events.
func NewRecorder(limit int) *Recorder {
	return &Recorder{Limit: limit}
}

func (r *Recorder) add(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)
	if r.Limit > 0 && len(r.events) > r.Limit {
		r.events = append(r.events[:0], r.events[len(r.events)-r.Limit:]...)
	}
}

// MoveTo records a move.
func (r *Recorder) MoveTo(x, y float64) {
	r.add(Event{Type: EventMove, X: x, Y: y, Time: now()})
}

// Click records a click.
func (r *Recorder) Click() {
	r.add(Event{Type: EventClick, Time: now()})
}

// Status records a status.
func (r *Recorder) Status(st gesture.Status) {
	r.add(Event{Type: EventStatus, Status: st, Message: st.Message(), Time: now()})
}

// Publish records an event from a publisher chain.
func (r *Recorder) Publish(ev Event) {
	r.add(ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many recorded events have the given type.
func (r *Recorder) Count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
