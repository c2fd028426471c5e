package store

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/ayusman/pinchcursor/internal/gesture"
)

// Click is a recorded pinch click.
type Click struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	CreatedAt time.Time `json:"created_at"`
}

// ClickRepository provides operations on clicks.
type ClickRepository struct {
	db *sql.DB
}

// Clicks returns the click repository for this store.
func (s *Store) Clicks() *ClickRepository {
	return &ClickRepository{db: s.db}
}

// Record inserts a click for the session.
func (r *ClickRepository) Record(sessionID string, x, y float64) (*Click, error) {
	c := &Click{
		SessionID: sessionID,
		X:         x,
		Y:         y,
		CreatedAt: time.Now(),
	}

	result, err := r.db.Exec(
		`INSERT INTO clicks (session_id, x, y, created_at) VALUES (?, ?, ?, ?)`,
		c.SessionID, c.X, c.Y, c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListBySession returns the clicks of a session in the order they happened.
func (r *ClickRepository) ListBySession(sessionID string) ([]Click, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, x, y, created_at
		 FROM clicks
		 WHERE session_id = ?
		 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clicks []Click
	for rows.Next() {
		var c Click
		if err := rows.Scan(&c.ID, &c.SessionID, &c.X, &c.Y, &c.CreatedAt); err != nil {
			return nil, err
		}
		clicks = append(clicks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clicks, nil
}

// Count returns the total number of clicks recorded.
func (r *ClickRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM clicks`).Scan(&n)
	return n, err
}

// ClickSink is a gesture.Sink that records each click, at the last
// position the pointer moved to, into the active session.
type ClickSink struct {
	clicks *ClickRepository

	mu        sync.Mutex
	sessionID string
	x, y      float64
}

// NewClickSink creates a ClickSink with no active session.
func (s *Store) NewClickSink() *ClickSink {
	return &ClickSink{clicks: s.Clicks()}
}

// SetSession selects the session clicks are recorded into. An empty ID
// stops recording.
func (k *ClickSink) SetSession(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sessionID = id
}

// MoveTo remembers the pointer position.
func (k *ClickSink) MoveTo(x, y float64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.x, k.y = x, y
}

// Click records a click at the remembered position.
func (k *ClickSink) Click() {
	k.mu.Lock()
	id, x, y := k.sessionID, k.x, k.y
	k.mu.Unlock()

	if id == "" {
		return
	}
	if _, err := k.clicks.Record(id, x, y); err != nil {
		log.Printf("Failed to record click: %v", err)
	}
}

func (k *ClickSink) Status(gesture.Status) {}
