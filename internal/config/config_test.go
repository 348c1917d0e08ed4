package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration invalid: %v", err)
	}
	if cfg.Recognition.Cooldown() != 2*time.Second {
		t.Errorf("default cooldown = %v, want 2s", cfg.Recognition.Cooldown())
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[recognition]
language = "bsl"
window_size = 45

[server]
addr = "0.0.0.0:9000"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Recognition.Language != "bsl" {
		t.Errorf("language = %q, want bsl", cfg.Recognition.Language)
	}
	if cfg.Recognition.WindowSize != 45 {
		t.Errorf("window_size = %d, want 45", cfg.Recognition.WindowSize)
	}
	// Untouched keys keep their defaults.
	if cfg.Recognition.SimilarityThreshold != 0.80 {
		t.Errorf("similarity_threshold = %v, want default 0.80", cfg.Recognition.SimilarityThreshold)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("addr = %q, want 0.0.0.0:9000", cfg.Server.Addr)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[recognition]
similarity_treshold = 0.9
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() accepted a misspelled key")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("Load() succeeded on a missing file")
	}
}

func TestRecognition_Validate(t *testing.T) {
	base := Default().Recognition

	tests := []struct {
		name   string
		mutate func(*Recognition)
	}{
		{"empty language", func(r *Recognition) { r.Language = "" }},
		{"visibility above one", func(r *Recognition) { r.VisibilityThreshold = 1.5 }},
		{"zero window", func(r *Recognition) { r.WindowSize = 0 }},
		{"negative window", func(r *Recognition) { r.WindowSize = -3 }},
		{"quality above one", func(r *Recognition) { r.MinWindowQuality = 1.01 }},
		{"zero similarity threshold", func(r *Recognition) { r.SimilarityThreshold = 0 }},
		{"gap of one", func(r *Recognition) { r.GapThreshold = 1 }},
		{"negative cooldown", func(r *Recognition) { r.CooldownMS = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			if err := r.Validate(); err == nil {
				t.Error("Validate() accepted an invalid value")
			}
		})
	}

	if err := base.Validate(); err != nil {
		t.Errorf("Validate() rejected the defaults: %v", err)
	}
}

func TestCapture_Validate(t *testing.T) {
	c := Default().Capture
	c.IdleFPS = 30
	c.ActiveFPS = 10
	if err := c.Validate(); err == nil {
		t.Error("Validate() accepted idle_fps above active_fps")
	}
}

func TestConfig_ValidateNamesTheSection(t *testing.T) {
	cfg := Default()
	cfg.Recognition.GapThreshold = 2

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() accepted gap_threshold = 2")
	}
	if !strings.Contains(err.Error(), "recognition:") {
		t.Errorf("error %q does not name the failing section", err)
	}
}

func TestMarshal_RoundTrips(t *testing.T) {
	data, err := Default().Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(marshalled defaults) error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("round-tripped config differs from defaults:\n%+v\n%+v", cfg, Default())
	}
}
