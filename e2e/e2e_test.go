package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/pinchcursor/internal/app"
	"github.com/ayusman/pinchcursor/internal/capture"
	"github.com/ayusman/pinchcursor/internal/detector"
	"github.com/ayusman/pinchcursor/internal/gesture"
	"github.com/ayusman/pinchcursor/internal/pointer"
	"github.com/ayusman/pinchcursor/internal/preview"
	"github.com/ayusman/pinchcursor/internal/server"
	"github.com/ayusman/pinchcursor/internal/store"
)

// waitForEvent reads pointer events until match returns true.
func waitForEvent(t *testing.T, conn *websocket.Conn, match func(pointer.Event) bool) pointer.Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var ev pointer.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("waiting for pointer event: %v", err)
		}
		if match(ev) {
			return ev
		}
	}
}

func TestE2E_PinchClickWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	var overlay *pointer.Overlay
	hub := server.NewPointerHub(func() pointer.Event { return overlay.Snapshot() })
	overlay = pointer.NewOverlay(hub, 50*time.Millisecond)

	cam := capture.NewBlankCamera(2)
	defer cam.Release()
	cam.SetFPS(30)

	mockDetector := detector.NewMockDetector()
	buf := preview.NewBuffer()

	application := app.New(app.Config{
		Store:    s,
		Camera:   cam,
		Detector: mockDetector,
		Viewport: gesture.Viewport{Width: 640, Height: 480},
		Sinks:    []gesture.Sink{overlay},
		Preview:  buf,
	})

	ts := httptest.NewServer(server.New(server.Config{
		Store:   s,
		App:     application,
		Hub:     hub,
		Preview: buf,
	}))
	defer ts.Close()

	client := ts.Client()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/pointer", nil)
	if err != nil {
		t.Fatalf("dial pointer socket: %v", err)
	}
	defer conn.Close()

	t.Run("SnapshotOnConnect", func(t *testing.T) {
		ev := waitForEvent(t, conn, func(pointer.Event) bool { return true })
		if ev.Type != pointer.EventCursor || ev.Status != gesture.StatusShowHand {
			t.Errorf("first event = %+v, want cursor snapshot with show hand", ev)
		}
	})

	if err := application.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sess := application.Session()
	if sess == nil {
		t.Fatal("Start() should open a session")
	}

	t.Run("IndexFingerMovesCursor", func(t *testing.T) {
		mockDetector.SetHands([]detector.HandLandmarks{detector.PointingLandmarks()})

		ev := waitForEvent(t, conn, func(ev pointer.Event) bool { return ev.Type == pointer.EventMove })
		if ev.X != 320 || ev.Y != 168 {
			t.Errorf("move to (%v, %v), want (320, 168)", ev.X, ev.Y)
		}
		if ev.Cursor == nil || ev.Cursor.Left != 310 || ev.Cursor.Top != 158 {
			t.Errorf("cursor = %+v, want centred on the fingertip", ev.Cursor)
		}

		ev = waitForEvent(t, conn, func(ev pointer.Event) bool { return ev.Type == pointer.EventStatus })
		if ev.Message != "Move mouse with index finger" {
			t.Errorf("status message = %q", ev.Message)
		}
	})

	t.Run("PinchClicks", func(t *testing.T) {
		mockDetector.SetHands([]detector.HandLandmarks{detector.PinchLandmarks()})

		waitForEvent(t, conn, func(ev pointer.Event) bool { return ev.Type == pointer.EventClick })
		ev := waitForEvent(t, conn, func(ev pointer.Event) bool { return ev.Type == pointer.EventStatus })
		if ev.Status != gesture.StatusClickDetected {
			t.Errorf("status = %q, want %q", ev.Status, gesture.StatusClickDetected)
		}

		// Hold the pinch for a few more frames; it must not click again.
		calls := mockDetector.Calls()
		deadline := time.Now().Add(5 * time.Second)
		for mockDetector.Calls() < calls+5 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
	})

	t.Run("HandLeaves", func(t *testing.T) {
		mockDetector.SetHands(nil)

		ev := waitForEvent(t, conn, func(ev pointer.Event) bool { return ev.Type == pointer.EventStatus })
		if ev.Message != "Show your hand to control mouse" {
			t.Errorf("status message = %q", ev.Message)
		}
		if !application.Snapshot().Clicking {
			t.Error("losing the hand mid-pinch should leave clicking set")
		}
	})

	t.Run("PreviewStreamed", func(t *testing.T) {
		if data, seq := buf.Latest(); data == nil || seq == 0 {
			t.Error("pipeline should have published preview frames")
		}
	})

	application.Stop()

	t.Run("SessionRecorded", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions/" + sess.ID + "/clicks")
		if err != nil {
			t.Fatalf("GET clicks error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var result struct {
			Clicks []struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"clicks"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("decode error = %v", err)
		}

		if len(result.Clicks) != 1 {
			t.Fatalf("len(clicks) = %d, want 1", len(result.Clicks))
		}
		if result.Clicks[0].X != 320 || result.Clicks[0].Y != 168 {
			t.Errorf("click at (%v, %v), want (320, 168)", result.Clicks[0].X, result.Clicks[0].Y)
		}
	})

	t.Run("SessionEnded", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions")
		if err != nil {
			t.Fatalf("GET sessions error = %v", err)
		}
		defer resp.Body.Close()

		var result struct {
			Sessions []struct {
				ID      string `json:"id"`
				EndedAt string `json:"ended_at"`
				Clicks  int    `json:"clicks"`
			} `json:"sessions"`
		}
		json.NewDecoder(resp.Body).Decode(&result)

		if len(result.Sessions) != 1 {
			t.Fatalf("len(sessions) = %d, want 1", len(result.Sessions))
		}
		got := result.Sessions[0]
		if got.ID != sess.ID || got.EndedAt == "" || got.Clicks != 1 {
			t.Errorf("session = %+v, want ended with 1 click", got)
		}
	})
}
