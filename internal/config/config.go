// Package config loads pinchcursor settings from a JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/pinchcursor/internal/capture"
	"github.com/ayusman/pinchcursor/internal/detector"
	"github.com/ayusman/pinchcursor/internal/gesture"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the root configuration. Fields omitted from the file keep
// their defaults.
type Config struct {
	Listen     string `json:"listen"`
	DataDir    string `json:"data_dir"`
	DBPath     string `json:"db_path"`
	WebDir     string `json:"web_dir"`
	Tray       bool   `json:"tray"`
	Native     bool   `json:"native_pointer"`
	VerboseLog bool   `json:"verbose_log"`

	Camera   capture.Config  `json:"camera"`
	Detector detector.Config `json:"detector"`

	Viewport  gesture.Viewport `json:"viewport"`
	Threshold float64          `json:"pinch_threshold"`
	// Flash is how long the overlay cursor stays red after a click, e.g. "200ms".
	Flash Duration `json:"click_flash"`
}

// Duration is a time.Duration that reads and writes JSON as a string like "200ms".
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := ".pinchcursor"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".pinchcursor")
	}

	return &Config{
		Listen:    ":8080",
		DataDir:   dataDir,
		Tray:      true,
		Camera:    capture.DefaultConfig(),
		Detector:  detector.DefaultConfig(),
		Viewport:  gesture.Viewport{Width: 1920, Height: 1080},
		Threshold: gesture.DefaultThreshold,
		Flash:     Duration(200 * time.Millisecond),
	}
}

// Load reads a JSON config file over the defaults.
// The file must have a .json extension and be under 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("%w: viewport must be positive, got %gx%g", ErrInvalid, c.Viewport.Width, c.Viewport.Height)
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("%w: pinch_threshold must be in (0,1), got %g", ErrInvalid, c.Threshold)
	}
	if c.Flash < 0 {
		return fmt.Errorf("%w: click_flash must not be negative", ErrInvalid)
	}
	if c.Camera.DeviceID < 0 {
		return fmt.Errorf("%w: camera device_id must not be negative", ErrInvalid)
	}
	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("%w: detector max_hands must be at least 1", ErrInvalid)
	}
	for name, v := range map[string]float64{
		"min_confidence":          c.Detector.MinConfidence,
		"min_tracking_confidence": c.Detector.MinTrackingConf,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: detector %s must be in [0,1], got %g", ErrInvalid, name, v)
		}
	}
	return nil
}

// Database returns the SQLite path, defaulting to pinchcursor.db in DataDir.
func (c *Config) Database() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "pinchcursor.db")
}

// FlashDuration returns Flash as a time.Duration.
func (c *Config) FlashDuration() time.Duration {
	return time.Duration(c.Flash)
}
