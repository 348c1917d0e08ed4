// Package config defines the daemon configuration, its defaults, and
// startup validation. Configuration is a TOML file; every tunable of
// the recognition pipeline lives here so thresholds are runtime
// configuration, never code changes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root of the TOML configuration file.
type Config struct {
	Recognition Recognition `toml:"recognition"`
	Capture     Capture     `toml:"capture"`
	Detector    Detector    `toml:"detector"`
	Server      Server      `toml:"server"`
	Storage     Storage     `toml:"storage"`
	Log         Log         `toml:"log"`
}

// Recognition tunes the live pipeline.
type Recognition struct {
	// Language is the registry scope matched against.
	Language string `toml:"language"`

	// VisibilityThreshold is the per-point confidence cutoff below
	// which landmarks are treated as missing.
	VisibilityThreshold float64 `toml:"visibility_threshold"`

	// WindowSize is the sliding window length in frames.
	WindowSize int `toml:"window_size"`

	// MinWindowQuality is the fraction of usable frames a window needs
	// before it produces an embedding.
	MinWindowQuality float64 `toml:"min_window_quality"`

	// SimilarityThreshold is the minimum best-candidate similarity for
	// a verified result.
	SimilarityThreshold float64 `toml:"similarity_threshold"`

	// GapThreshold is the minimum lead of the best candidate over the
	// runner-up for a verified result.
	GapThreshold float64 `toml:"gap_threshold"`

	// CooldownMS is the minimum time between two emissions, in
	// milliseconds.
	CooldownMS int `toml:"cooldown_ms"`
}

// Cooldown returns the emission cooldown as a duration.
func (r Recognition) Cooldown() time.Duration {
	return time.Duration(r.CooldownMS) * time.Millisecond
}

// Capture tunes the camera producer.
type Capture struct {
	// DeviceID selects the camera.
	DeviceID int `toml:"device_id"`

	// ActiveFPS is the capture rate while motion is present.
	ActiveFPS int `toml:"active_fps"`

	// IdleFPS is the capture rate after the scene has been still for
	// IdleAfterMS.
	IdleFPS int `toml:"idle_fps"`

	// MotionThreshold is the fraction of changed pixels that counts as
	// motion.
	MotionThreshold float64 `toml:"motion_threshold"`

	// IdleAfterMS is how long without motion before dropping to the
	// idle rate.
	IdleAfterMS int `toml:"idle_after_ms"`
}

// IdleAfter returns the idle switch-over delay as a duration.
func (c Capture) IdleAfter() time.Duration {
	return time.Duration(c.IdleAfterMS) * time.Millisecond
}

// Detector locates the landmark detector bridge.
type Detector struct {
	// Script is the path of the holistic detector service script.
	Script string `toml:"script"`

	// Python is the interpreter used to run it.
	Python string `toml:"python"`
}

// Server configures the HTTP/WebSocket listener.
type Server struct {
	Addr string `toml:"addr"`
}

// Storage locates the registry database.
type Storage struct {
	DBPath string `toml:"db_path"`
}

// Log configures structured logging.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Recognition: Recognition{
			Language:            "asl",
			VisibilityThreshold: 0.5,
			WindowSize:          30,
			MinWindowQuality:    0.7,
			SimilarityThreshold: 0.80,
			GapThreshold:        0.15,
			CooldownMS:          2000,
		},
		Capture: Capture{
			DeviceID:        0,
			ActiveFPS:       15,
			IdleFPS:         3,
			MotionThreshold: 0.02,
			IdleAfterMS:     5000,
		},
		Detector: Detector{
			Script: "detector/holistic_service.py",
			Python: "python3",
		},
		Server: Server{
			Addr: "127.0.0.1:8780",
		},
		Storage: Storage{
			DBPath: "~/.mudra/registry.db",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are rejected
// so a typo in a threshold name cannot silently fall back to a default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := toml.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders the configuration as TOML, for `config init`.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// ExpandedDBPath returns the database path with a leading ~ expanded.
func (c Config) ExpandedDBPath() (string, error) {
	return expandHome(c.Storage.DBPath)
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", path, err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
