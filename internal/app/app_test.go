package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/pinchcursor/internal/capture"
	"github.com/ayusman/pinchcursor/internal/detector"
	"github.com/ayusman/pinchcursor/internal/gesture"
	"github.com/ayusman/pinchcursor/internal/pointer"
	"github.com/ayusman/pinchcursor/internal/preview"
	"github.com/ayusman/pinchcursor/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestApp(t *testing.T, cfg Config) (*App, *pointer.Recorder) {
	t.Helper()
	rec := pointer.NewRecorder(0)
	if cfg.Detector == nil {
		cfg.Detector = detector.NewMockDetector()
	}
	if cfg.Camera == nil {
		cfg.Camera = capture.NewMockCamera(nil, false)
	}
	if cfg.Viewport == (gesture.Viewport{}) {
		cfg.Viewport = gesture.Viewport{Width: 640, Height: 480}
	}
	cfg.Sinks = append(cfg.Sinks, rec)
	return New(cfg), rec
}

func TestApp_ProcessHands(t *testing.T) {
	a, rec := newTestApp(t, Config{})

	res := a.ProcessHands(nil)
	assert.Equal(t, gesture.StatusShowHand, res.Status)

	res = a.ProcessHands([]detector.HandLandmarks{detector.PointingLandmarks()})
	assert.Equal(t, gesture.StatusMoveWithIndex, res.Status)
	assert.InDelta(t, 320, res.Position.X, 1e-9)

	res = a.ProcessHands([]detector.HandLandmarks{detector.PinchLandmarks()})
	assert.True(t, res.Click)
	res = a.ProcessHands([]detector.HandLandmarks{detector.PinchLandmarks()})
	assert.False(t, res.Click)

	assert.Equal(t, 1, rec.Count(pointer.EventClick))
	assert.Equal(t, 3, rec.Count(pointer.EventMove))

	snap := a.Snapshot()
	assert.True(t, snap.Clicking)
	assert.True(t, snap.Enabled)
	assert.False(t, snap.Running)
	assert.Equal(t, gesture.StatusClickDetected, snap.Status)
	assert.Equal(t, "Click detected", snap.Message)
}

func TestApp_Callbacks(t *testing.T) {
	a, _ := newTestApp(t, Config{})

	var statuses []gesture.Status
	var clicks [][2]float64
	a.OnStatus(func(s gesture.Status) { statuses = append(statuses, s) })
	a.OnClick(func(x, y float64) { clicks = append(clicks, [2]float64{x, y}) })

	a.ProcessHands([]detector.HandLandmarks{detector.PinchLandmarks()})
	a.ProcessHands(nil)

	assert.Equal(t, []gesture.Status{gesture.StatusClickDetected, gesture.StatusShowHand}, statuses)
	require.Len(t, clicks, 1)
	assert.InDelta(t, 320, clicks[0][0], 1e-9)
	assert.InDelta(t, 168, clicks[0][1], 1e-9)
}

func TestApp_Settings(t *testing.T) {
	s := newTestStore(t)
	a, _ := newTestApp(t, Config{Store: s})

	assert.Equal(t, gesture.DefaultThreshold, a.Threshold())

	require.NoError(t, a.SetThreshold(0.08))
	require.NoError(t, a.SetViewport(gesture.Viewport{Width: 1280, Height: 720}))

	assert.ErrorIs(t, a.SetThreshold(0), ErrInvalidSetting)
	assert.ErrorIs(t, a.SetThreshold(1.2), ErrInvalidSetting)
	assert.ErrorIs(t, a.SetViewport(gesture.Viewport{Width: -1, Height: 10}), ErrInvalidSetting)

	assert.Equal(t, 0.08, a.Threshold())
	assert.Equal(t, gesture.Viewport{Width: 1280, Height: 720}, a.Viewport())

	// A fresh app over the same store picks the overrides up.
	b, _ := newTestApp(t, Config{Store: s})
	assert.Equal(t, gesture.DefaultThreshold, b.Threshold())
	require.NoError(t, b.LoadSettings())
	assert.Equal(t, 0.08, b.Threshold())
	assert.Equal(t, gesture.Viewport{Width: 1280, Height: 720}, b.Viewport())
}

func TestValidateSettings(t *testing.T) {
	assert.NoError(t, ValidateThreshold(gesture.DefaultThreshold))
	assert.ErrorIs(t, ValidateThreshold(0), ErrInvalidSetting)
	assert.ErrorIs(t, ValidateThreshold(1), ErrInvalidSetting)

	assert.NoError(t, ValidateViewport(gesture.Viewport{Width: 640, Height: 480}))
	assert.ErrorIs(t, ValidateViewport(gesture.Viewport{Width: 640}), ErrInvalidSetting)
	assert.ErrorIs(t, ValidateViewport(gesture.Viewport{Width: -1, Height: 600}), ErrInvalidSetting)
}

func TestApp_OnEnabledChange(t *testing.T) {
	a, _ := newTestApp(t, Config{})

	var got []bool
	a.OnEnabledChange(func(enabled bool) {
		got = append(got, enabled)
		// Callbacks run outside the lock.
		assert.Equal(t, enabled, a.IsEnabled())
	})

	a.SetEnabled(true) // already enabled, no change
	a.SetEnabled(false)
	a.SetEnabled(false)
	a.SetEnabled(true)

	assert.Equal(t, []bool{false, true}, got)
}

func TestApp_LoadSettings_BadValue(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Settings().Set(store.SettingThreshold, "tight"))

	a, _ := newTestApp(t, Config{Store: s})
	assert.Error(t, a.LoadSettings())
}

func TestApp_LoadSettings_NoStore(t *testing.T) {
	a, _ := newTestApp(t, Config{Threshold: 0.07})
	require.NoError(t, a.LoadSettings())
	assert.Equal(t, 0.07, a.Threshold())
}

func TestApp_ProcessFrame(t *testing.T) {
	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandLandmarks{detector.PinchLandmarks()})
	buf := preview.NewBuffer()

	a, rec := newTestApp(t, Config{Detector: mock, Preview: buf})

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	require.NoError(t, a.ProcessFrame(&frame))
	assert.Equal(t, 1, rec.Count(pointer.EventClick))

	data, seq := buf.Latest()
	assert.Equal(t, uint64(1), seq)
	assert.NotEmpty(t, data)

	mock.SetError(errors.New("service down"))
	assert.Error(t, a.ProcessFrame(&frame))
}

func TestApp_StartStop_Pipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := newTestStore(t)
	cam := capture.NewBlankCamera(2)
	defer cam.Release()

	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandLandmarks{detector.PinchLandmarks()})

	a, rec := newTestApp(t, Config{Store: s, Camera: cam, Detector: mock, Preview: preview.NewBuffer()})

	require.NoError(t, a.Start())
	require.NoError(t, a.Start(), "second Start is a no-op")

	sess := a.Session()
	require.NotNil(t, sess)
	assert.True(t, a.Snapshot().Running)

	require.Eventually(t, func() bool {
		return mock.Calls() >= 3
	}, 5*time.Second, 10*time.Millisecond)

	a.Stop()

	// A held pinch clicks exactly once.
	assert.Equal(t, 1, rec.Count(pointer.EventClick))
	assert.False(t, cam.IsOpen())
	assert.Nil(t, a.Session())

	got, err := s.Sessions().Get(sess.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.EndedAt)
	assert.Equal(t, 1, got.Clicks)
}

func TestApp_DisabledSkipsFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cam := capture.NewBlankCamera(1)
	defer cam.Release()
	mock := detector.NewMockDetector()

	a, _ := newTestApp(t, Config{Camera: cam, Detector: mock})
	a.SetEnabled(false)

	require.NoError(t, a.Start())
	time.Sleep(200 * time.Millisecond)
	a.Stop()

	assert.Zero(t, mock.Calls())
	assert.Zero(t, cam.Reads())
}
