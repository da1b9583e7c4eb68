// Package config defines tubecontrol's configuration and how it is loaded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/tubecontrol/internal/focus"
	"github.com/ayusman/tubecontrol/internal/gesture"
)

// Player transports.
const (
	PlayerRemote = "remote"
	PlayerPlugin = "plugin"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address.
	Addr string `koanf:"addr"`

	// DataDir holds the database. Defaults to ~/.tubecontrol.
	DataDir string `koanf:"data_dir"`

	// StaticDir is served at /. Empty means search the usual locations.
	StaticDir string `koanf:"static_dir"`

	CameraID int `koanf:"camera_id"`
	FPS      int `koanf:"fps"`

	// MediaPipeScript and PythonPath locate the detection service. Empty
	// means search the usual locations.
	MediaPipeScript string `koanf:"mediapipe_script"`
	PythonPath      string `koanf:"python_path"`

	// Command timing.
	CooldownMS     int     `koanf:"cooldown_ms"`
	VolumeDiscount float64 `koanf:"volume_discount"`
	DwellMS        int     `koanf:"dwell_ms"`
	VolumeStep     int     `koanf:"volume_step"`

	MinGestureConfidence float64 `koanf:"min_gesture_confidence"`
	CalibrationMargin    float64 `koanf:"calibration_margin"`

	// Initial control switches; runtime changes are persisted in the store.
	GestureControl  bool `koanf:"gesture_control"`
	EyeFocusControl bool `koanf:"eye_focus_control"`

	// Player selects the transport: "remote" (browser page) or "plugin".
	Player          string `koanf:"player"`
	PlayerPlugin    string `koanf:"player_plugin"`
	PluginDir       string `koanf:"plugin_dir"`
	PluginTimeoutMS int    `koanf:"plugin_timeout_ms"`

	Tray bool `koanf:"tray"`

	// HistoryLimit caps the dispatch history kept in the store.
	HistoryLimit int `koanf:"history_limit"`

	// Bindings seeds an empty bindings table, action name to operation
	// name. Empty means the stock bindings.
	Bindings map[string]string `koanf:"bindings"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		DataDir:              defaultDataDir(),
		CameraID:             0,
		FPS:                  30,
		CooldownMS:           1800,
		VolumeDiscount:       0.75,
		DwellMS:              650,
		VolumeStep:           10,
		MinGestureConfidence: gesture.DefaultMinConfidence,
		CalibrationMargin:    focus.DefaultMargin,
		GestureControl:       true,
		EyeFocusControl:      true,
		Player:               PlayerRemote,
		PluginDir:            filepath.Join(defaultDataDir(), "plugins"),
		PluginTimeoutMS:      5000,
		Tray:                 false,
		HistoryLimit:         1000,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tubecontrol"
	}
	return filepath.Join(home, ".tubecontrol")
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.FPS <= 0 || c.FPS > 120:
		return fmt.Errorf("%w: fps must be in 1..120, got %d", ErrInvalidConfig, c.FPS)
	case c.CooldownMS < 0:
		return fmt.Errorf("%w: cooldown_ms must not be negative", ErrInvalidConfig)
	case c.VolumeDiscount < 0 || c.VolumeDiscount > 1:
		return fmt.Errorf("%w: volume_discount must be in 0..1, got %v", ErrInvalidConfig, c.VolumeDiscount)
	case c.DwellMS < 0:
		return fmt.Errorf("%w: dwell_ms must not be negative", ErrInvalidConfig)
	case c.VolumeStep <= 0 || c.VolumeStep > 100:
		return fmt.Errorf("%w: volume_step must be in 1..100, got %d", ErrInvalidConfig, c.VolumeStep)
	case c.MinGestureConfidence < 0 || c.MinGestureConfidence > 1:
		return fmt.Errorf("%w: min_gesture_confidence must be in 0..1", ErrInvalidConfig)
	case c.CalibrationMargin < 0:
		return fmt.Errorf("%w: calibration_margin must not be negative", ErrInvalidConfig)
	case c.Player != PlayerRemote && c.Player != PlayerPlugin:
		return fmt.Errorf("%w: player must be %q or %q, got %q", ErrInvalidConfig, PlayerRemote, PlayerPlugin, c.Player)
	case c.PluginTimeoutMS <= 0:
		return fmt.Errorf("%w: plugin_timeout_ms must be positive", ErrInvalidConfig)
	}
	if _, err := c.BindingsTable(); err != nil {
		return fmt.Errorf("%w: bindings: %v", ErrInvalidConfig, err)
	}
	return nil
}

// BindingsTable returns the configured seed bindings, or the stock table.
func (c *Config) BindingsTable() (gesture.Bindings, error) {
	if len(c.Bindings) == 0 {
		return gesture.DefaultBindings(), nil
	}
	return gesture.NewBindings(c.Bindings)
}

// Cooldown returns CooldownMS as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownMS) * time.Millisecond
}

// Dwell returns DwellMS as a duration.
func (c *Config) Dwell() time.Duration {
	return time.Duration(c.DwellMS) * time.Millisecond
}

// PluginTimeout returns PluginTimeoutMS as a duration.
func (c *Config) PluginTimeout() time.Duration {
	return time.Duration(c.PluginTimeoutMS) * time.Millisecond
}

// DBPath returns the database file path.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "tubecontrol.db")
}
