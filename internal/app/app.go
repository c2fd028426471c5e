// Package app wires capture, detection and gesture interpretation into the
// pinchcursor pointer pipeline.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/pinchcursor/internal/capture"
	"github.com/ayusman/pinchcursor/internal/detector"
	"github.com/ayusman/pinchcursor/internal/gesture"
	"github.com/ayusman/pinchcursor/internal/pointer"
	"github.com/ayusman/pinchcursor/internal/preview"
	"github.com/ayusman/pinchcursor/internal/store"
)

// ErrInvalidSetting is returned when a runtime setting is out of range.
var ErrInvalidSetting = errors.New("invalid setting")

// Config holds configuration options for the application.
type Config struct {
	Store *store.Store

	// Camera and Detector may be supplied directly, mostly by tests.
	// When nil they are built from CameraConfig and DetectorConfig.
	Camera         capture.Camera
	CameraConfig   capture.Config
	Detector       detector.Detector
	DetectorConfig detector.Config

	Viewport  gesture.Viewport
	Threshold float64

	// Sinks receive every pointer side effect, in order.
	Sinks []gesture.Sink

	// Preview receives annotated frames when set.
	Preview *preview.Buffer
}

// Snapshot is a point-in-time view of the pipeline.
type Snapshot struct {
	Enabled   bool             `json:"enabled"`
	Running   bool             `json:"running"`
	Clicking  bool             `json:"clicking"`
	Status    gesture.Status   `json:"status"`
	Message   string           `json:"message"`
	Viewport  gesture.Viewport `json:"viewport"`
	Threshold float64          `json:"threshold"`
	SessionID string           `json:"session_id,omitempty"`
}

// App is the main application that turns camera frames into pointer events.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	clicks   *store.ClickSink
	preview  *preview.Buffer

	enabled   bool
	onEnabled []func(bool)
	stopCh    chan struct{}
	doneCh    chan struct{}
	session   *store.Session
	mu        sync.RWMutex

	// procMu serialises interpretation; the interpreter itself is not
	// safe for concurrent use.
	procMu      sync.Mutex
	interpreter *gesture.Interpreter
	sinks       pointer.Multi
	last        gesture.Result
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.Threshold <= 0 {
		config.Threshold = gesture.DefaultThreshold
	}

	a := &App{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		preview:  config.Preview,
		enabled:  true,
		last:     gesture.Result{Status: gesture.StatusShowHand},
	}

	if a.camera == nil {
		a.camera = capture.NewCameraWithConfig(config.CameraConfig)
	}

	if a.detector == nil {
		dcfg := config.DetectorConfig
		if dcfg.MaxHands == 0 {
			dcfg = detector.DefaultConfig()
		}
		if mp, err := detector.NewMediaPipeDetector(dcfg); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	a.sinks = append(a.sinks, config.Sinks...)
	if config.Store != nil {
		a.clicks = config.Store.NewClickSink()
		a.sinks = append(a.sinks, a.clicks)
	}

	a.interpreter = gesture.NewInterpreter(config.Viewport, config.Threshold, a.sinks)

	return a
}

// LoadSettings applies threshold and viewport overrides saved in the store.
func (a *App) LoadSettings() error {
	if a.config.Store == nil {
		return nil
	}
	settings := a.config.Store.Settings()

	a.procMu.Lock()
	defer a.procMu.Unlock()

	if v, err := settings.GetFloat(store.SettingThreshold); err == nil {
		if validThreshold(v) {
			a.interpreter.SetThreshold(v)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load threshold: %w", err)
	}

	vp := a.interpreter.Viewport()
	w, werr := settings.GetFloat(store.SettingViewportWidth)
	h, herr := settings.GetFloat(store.SettingViewportHeight)
	switch {
	case werr == nil && herr == nil:
		if w > 0 && h > 0 {
			vp = gesture.Viewport{Width: w, Height: h}
		}
	case werr != nil && !errors.Is(werr, store.ErrNotFound):
		return fmt.Errorf("load viewport width: %w", werr)
	case herr != nil && !errors.Is(herr, store.ErrNotFound):
		return fmt.Errorf("load viewport height: %w", herr)
	}
	a.interpreter.SetViewport(vp)

	log.Printf("Settings: threshold %.3f, viewport %.0fx%.0f", a.interpreter.Threshold(), vp.Width, vp.Height)
	return nil
}

// AddSink appends a sink that receives every future pointer event.
func (a *App) AddSink(s gesture.Sink) {
	a.procMu.Lock()
	defer a.procMu.Unlock()
	a.sinks = append(a.sinks, s)
	a.interpreter.SetSink(a.sinks)
}

// OnStatus registers a callback invoked with the status of every cycle.
func (a *App) OnStatus(fn func(gesture.Status)) {
	a.AddSink(pointer.StatusFunc(fn))
}

// OnClick registers a callback invoked with the pointer position of each click.
func (a *App) OnClick(fn func(x, y float64)) {
	a.AddSink(pointer.ClickAt(fn))
}

// ProcessHands interprets one detection cycle.
func (a *App) ProcessHands(hands []detector.HandLandmarks) gesture.Result {
	a.procMu.Lock()
	defer a.procMu.Unlock()

	a.last = a.interpreter.Process(hands)
	return a.last
}

// ProcessFrame detects hands in frame, interprets them and refreshes the
// preview. The frame is annotated in place.
func (a *App) ProcessFrame(frame *gocv.Mat) error {
	d := a.Detector()
	if d == nil {
		return errors.New("no detector")
	}

	hands, err := d.Detect(frame)
	if err != nil {
		return fmt.Errorf("detect hands: %w", err)
	}

	a.ProcessHands(hands)

	if a.preview != nil {
		preview.Draw(frame, hands)
		if err := a.preview.Update(frame); err != nil {
			return err
		}
	}
	return nil
}

// SetEnabled enables or disables gesture detection.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	callbacks := a.onEnabled
	a.mu.Unlock()

	if !changed {
		return
	}
	log.Printf("Pointer control enabled: %v", enabled)

	// Call the callbacks outside the lock so they may query the app.
	for _, fn := range callbacks {
		fn(enabled)
	}
}

// OnEnabledChange registers a callback invoked whenever SetEnabled changes
// the enabled state, whoever called it.
func (a *App) OnEnabledChange(fn func(enabled bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEnabled = append(a.onEnabled, fn)
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Preview returns the preview buffer, or nil.
func (a *App) Preview() *preview.Buffer {
	return a.preview
}

// Session returns the active session, or nil when not running or no store.
func (a *App) Session() *store.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Viewport returns the surface pointer positions are mapped onto.
func (a *App) Viewport() gesture.Viewport {
	a.procMu.Lock()
	defer a.procMu.Unlock()
	return a.interpreter.Viewport()
}

// SetViewport changes the viewport and persists it.
func (a *App) SetViewport(vp gesture.Viewport) error {
	if err := ValidateViewport(vp); err != nil {
		return err
	}

	a.procMu.Lock()
	a.interpreter.SetViewport(vp)
	a.procMu.Unlock()

	if a.config.Store == nil {
		return nil
	}
	settings := a.config.Store.Settings()
	if err := settings.SetFloat(store.SettingViewportWidth, vp.Width); err != nil {
		return err
	}
	return settings.SetFloat(store.SettingViewportHeight, vp.Height)
}

// Threshold returns the pinch threshold.
func (a *App) Threshold() float64 {
	a.procMu.Lock()
	defer a.procMu.Unlock()
	return a.interpreter.Threshold()
}

// SetThreshold changes the pinch threshold and persists it.
func (a *App) SetThreshold(threshold float64) error {
	if err := ValidateThreshold(threshold); err != nil {
		return err
	}

	a.procMu.Lock()
	a.interpreter.SetThreshold(threshold)
	a.procMu.Unlock()

	if a.config.Store == nil {
		return nil
	}
	return a.config.Store.Settings().SetFloat(store.SettingThreshold, threshold)
}

// ValidateThreshold reports whether threshold is usable as a pinch threshold.
func ValidateThreshold(threshold float64) error {
	if !validThreshold(threshold) {
		return fmt.Errorf("%w: threshold must be in (0,1), got %g", ErrInvalidSetting, threshold)
	}
	return nil
}

// ValidateViewport reports whether vp has a positive size.
func ValidateViewport(vp gesture.Viewport) error {
	if vp.Width <= 0 || vp.Height <= 0 {
		return fmt.Errorf("%w: viewport must be positive, got %gx%g", ErrInvalidSetting, vp.Width, vp.Height)
	}
	return nil
}

func validThreshold(v float64) bool {
	return v > 0 && v < 1
}

// Snapshot returns the current pipeline state.
func (a *App) Snapshot() Snapshot {
	a.procMu.Lock()
	snap := Snapshot{
		Clicking:  a.interpreter.State().Clicking,
		Status:    a.last.Status,
		Message:   a.last.Status.Message(),
		Viewport:  a.interpreter.Viewport(),
		Threshold: a.interpreter.Threshold(),
	}
	a.procMu.Unlock()

	a.mu.RLock()
	snap.Enabled = a.enabled
	snap.Running = a.stopCh != nil
	if a.session != nil {
		snap.SessionID = a.session.ID
	}
	a.mu.RUnlock()

	return snap
}

// Start opens the camera, begins a session and runs the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	if a.config.Store != nil {
		sess, err := a.config.Store.Sessions().Start()
		if err != nil {
			a.camera.Close()
			return fmt.Errorf("start session: %w", err)
		}
		a.session = sess
		a.clicks.SetSession(sess.ID)
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the pipeline, ends the session and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	a.mu.Lock()
	sess := a.session
	a.session = nil
	a.mu.Unlock()

	if sess != nil {
		a.clicks.SetSession("")
		if err := a.config.Store.Sessions().End(sess.ID); err != nil {
			log.Printf("Error ending session: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}
