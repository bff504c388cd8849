package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Audio.BufferSeconds != 30 {
		t.Errorf("BufferSeconds = %d, want 30", cfg.Audio.BufferSeconds)
	}
	if cfg.Transcribe.WindowSeconds != 12 {
		t.Errorf("WindowSeconds = %g, want 12", cfg.Transcribe.WindowSeconds)
	}
	if cfg.Transcribe.SilenceThreshold != 0.003 {
		t.Errorf("SilenceThreshold = %g, want 0.003", cfg.Transcribe.SilenceThreshold)
	}
	if cfg.STT.Engine != "whisper" || cfg.STT.Model != "base.en" {
		t.Errorf("STT = %q/%q, want whisper/base.en", cfg.STT.Engine, cfg.STT.Model)
	}
	if cfg.Coach.Command != "claude" {
		t.Errorf("Coach.Command = %q, want claude", cfg.Coach.Command)
	}
	if !cfg.Tray.Enabled {
		t.Error("tray should default to enabled")
	}
	if cfg.Feed.Enabled || cfg.Metrics.Enabled {
		t.Error("feed and metrics should default to disabled")
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
log_level: debug
audio:
  device: "MacBook Pro Microphone"
transcribe:
  window_seconds: 15
stt:
  engine: http
  url: http://127.0.0.1:9000/transcribe
coach:
  cadence_seconds: 2.5
feed:
  enabled: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Audio.Device != "MacBook Pro Microphone" {
		t.Errorf("Device = %q", cfg.Audio.Device)
	}
	if cfg.Transcribe.WindowSeconds != 15 {
		t.Errorf("WindowSeconds = %g, want 15", cfg.Transcribe.WindowSeconds)
	}
	if cfg.STT.Engine != "http" {
		t.Errorf("Engine = %q, want http", cfg.STT.Engine)
	}
	if cfg.Coach.CadenceSeconds != 2.5 {
		t.Errorf("CadenceSeconds = %g, want 2.5", cfg.Coach.CadenceSeconds)
	}
	// Untouched fields keep their defaults.
	if cfg.Transcribe.IntervalSeconds != 1.5 {
		t.Errorf("IntervalSeconds = %g, want default 1.5", cfg.Transcribe.IntervalSeconds)
	}
	if cfg.Coach.Command != "claude" {
		t.Errorf("Command = %q, want default claude", cfg.Coach.Command)
	}
	if !cfg.Feed.Enabled || cfg.Feed.Addr != "127.0.0.1:8787" {
		t.Errorf("Feed = %+v, want enabled with default addr", cfg.Feed)
	}
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("transcribe: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults ok", func(c *Config) {}, ""},
		{"buffer zero", func(c *Config) { c.Audio.BufferSeconds = 0 }, "buffer_seconds"},
		{"window too short", func(c *Config) { c.Transcribe.WindowSeconds = 5 }, "window_seconds"},
		{"window too long", func(c *Config) { c.Transcribe.WindowSeconds = 20 }, "window_seconds"},
		{"interval zero", func(c *Config) { c.Transcribe.IntervalSeconds = 0 }, "interval_seconds"},
		{"interval beyond window", func(c *Config) { c.Transcribe.IntervalSeconds = 13 }, "interval_seconds"},
		{"threshold above one", func(c *Config) { c.Transcribe.SilenceThreshold = 1.5 }, "silence_threshold"},
		{"unknown engine", func(c *Config) { c.STT.Engine = "parakeet" }, "stt.engine"},
		{"http without url", func(c *Config) { c.STT.Engine = "http"; c.STT.URL = "" }, "stt.url"},
		{"timeout zero", func(c *Config) { c.Coach.TimeoutSeconds = 0 }, "timeout_seconds"},
		{"cadence zero", func(c *Config) { c.Coach.CadenceSeconds = 0 }, "cadence_seconds"},
		{"feed without addr", func(c *Config) { c.Feed.Enabled = true; c.Feed.Addr = "" }, "feed.addr"},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }, "metrics.addr"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := Default()
	if got := cfg.Transcribe.Window(); got != 12*time.Second {
		t.Errorf("Window = %v, want 12s", got)
	}
	if got := cfg.Transcribe.Interval(); got != 1500*time.Millisecond {
		t.Errorf("Interval = %v, want 1.5s", got)
	}
	if got := cfg.Coach.Timeout(); got != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", got)
	}
	if got := cfg.Coach.Cadence(); got != time.Second {
		t.Errorf("Cadence = %v, want 1s", got)
	}
}

func TestModelsPathUsesPlatformBase(t *testing.T) {
	t.Setenv("HOME", "/home/ng-test")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("LOCALAPPDATA", `C:\Users\ng\AppData\Local`)

	got := ModelsPath()
	if !strings.Contains(got, "ng") || !strings.HasSuffix(got, "models") {
		t.Errorf("ModelsPath = %q, want .../ng/models", got)
	}
}
