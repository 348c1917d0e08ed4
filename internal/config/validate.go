package config

import (
	"errors"
	"fmt"
)

// Validate checks every section. It runs at startup, before any frame
// is processed; a daemon never starts on a configuration that could
// only fail later.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Recognition.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("recognition: %w", err))
	}
	if err := c.Capture.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("capture: %w", err))
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	return errors.Join(errs...)
}

// Validate rejects pipeline parameters outside their meaningful ranges.
func (r Recognition) Validate() error {
	if r.Language == "" {
		return errors.New("language must not be empty")
	}
	if r.VisibilityThreshold < 0 || r.VisibilityThreshold > 1 {
		return fmt.Errorf("visibility_threshold %v outside [0, 1]", r.VisibilityThreshold)
	}
	if r.WindowSize < 1 {
		return fmt.Errorf("window_size %d must be at least 1", r.WindowSize)
	}
	if r.MinWindowQuality < 0 || r.MinWindowQuality > 1 {
		return fmt.Errorf("min_window_quality %v outside [0, 1]", r.MinWindowQuality)
	}
	if r.SimilarityThreshold <= 0 || r.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold %v outside (0, 1]", r.SimilarityThreshold)
	}
	if r.GapThreshold < 0 || r.GapThreshold >= 1 {
		return fmt.Errorf("gap_threshold %v outside [0, 1)", r.GapThreshold)
	}
	if r.CooldownMS < 0 {
		return fmt.Errorf("cooldown_ms %d must not be negative", r.CooldownMS)
	}
	return nil
}

// Validate rejects capture rates that would stall the producer.
func (c Capture) Validate() error {
	if c.DeviceID < 0 {
		return fmt.Errorf("device_id %d must not be negative", c.DeviceID)
	}
	if c.ActiveFPS < 1 {
		return fmt.Errorf("active_fps %d must be at least 1", c.ActiveFPS)
	}
	if c.IdleFPS < 1 {
		return fmt.Errorf("idle_fps %d must be at least 1", c.IdleFPS)
	}
	if c.IdleFPS > c.ActiveFPS {
		return fmt.Errorf("idle_fps %d above active_fps %d", c.IdleFPS, c.ActiveFPS)
	}
	if c.MotionThreshold < 0 || c.MotionThreshold > 1 {
		return fmt.Errorf("motion_threshold %v outside [0, 1]", c.MotionThreshold)
	}
	if c.IdleAfterMS < 0 {
		return fmt.Errorf("idle_after_ms %d must not be negative", c.IdleAfterMS)
	}
	return nil
}

// Validate checks the listener address is present.
func (s Server) Validate() error {
	if s.Addr == "" {
		return errors.New("addr must not be empty")
	}
	return nil
}

// Validate checks the database location is present.
func (s Storage) Validate() error {
	if s.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	return nil
}

// Validate checks the log level and format are known.
func (l Log) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", l.Level)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q", l.Format)
	}
	return nil
}
