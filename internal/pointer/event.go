// Package pointer provides sinks that render interpreted gestures: a browser
// overlay cursor, the native OS pointer, logs and in-memory recordings.
package pointer

import (
	"time"

	"github.com/ayusman/pinchcursor/internal/gesture"
)

// EventType identifies what an Event describes.
type EventType string

const (
	EventMove   EventType = "move"
	EventClick  EventType = "click"
	EventStatus EventType = "status"
	// EventCursor carries the full overlay cursor style.
	EventCursor EventType = "cursor"
)

// Event is the wire form of a pointer side effect.
type Event struct {
	Type    EventType      `json:"type"`
	X       float64        `json:"x,omitempty"`
	Y       float64        `json:"y,omitempty"`
	Status  gesture.Status `json:"status,omitempty"`
	Message string         `json:"message,omitempty"`
	Cursor  *Cursor        `json:"cursor,omitempty"`
	Time    int64          `json:"timestamp"`
}

// Publisher delivers events to remote observers, such as browser clients.
type Publisher interface {
	Publish(ev Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ev Event)

// Publish calls f(ev).
func (f PublisherFunc) Publish(ev Event) {
	f(ev)
}

func now() int64 {
	return time.Now().UnixMilli()
}
