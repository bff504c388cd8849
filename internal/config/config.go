// Package config loads the session configuration: defaults, then an
// optional YAML file on top, then validation. CLI flags in cmd/ng
// override individual fields after Load.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Audio      AudioConfig      `yaml:"audio"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	STT        STTConfig        `yaml:"stt"`
	Coach      CoachConfig      `yaml:"coach"`
	Tray       TrayConfig       `yaml:"tray"`
	Feed       FeedConfig       `yaml:"feed"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type AudioConfig struct {
	Device        string `yaml:"device"`         // PortAudio input name, empty = default
	BufferSeconds int    `yaml:"buffer_seconds"` // ring capacity per stream
}

type TranscribeConfig struct {
	WindowSeconds    float64 `yaml:"window_seconds"`
	IntervalSeconds  float64 `yaml:"interval_seconds"`
	SilenceThreshold float64 `yaml:"silence_threshold"`
}

func (c TranscribeConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds * float64(time.Second))
}

func (c TranscribeConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds * float64(time.Second))
}

type STTConfig struct {
	Engine   string `yaml:"engine"` // "whisper" or "http"
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	Threads  int    `yaml:"threads"`
	URL      string `yaml:"url"`
	Token    string `yaml:"token"`
}

type CoachConfig struct {
	Command        string  `yaml:"command"`
	Profile        string  `yaml:"profile"` // YAML profile path, empty = generic
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
	CadenceSeconds float64 `yaml:"cadence_seconds"`
}

func (c CoachConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

func (c CoachConfig) Cadence() time.Duration {
	return time.Duration(c.CadenceSeconds * float64(time.Second))
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

type FeedConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			BufferSeconds: 30,
		},
		Transcribe: TranscribeConfig{
			WindowSeconds:    12,
			IntervalSeconds:  1.5,
			SilenceThreshold: 0.003,
		},
		STT: STTConfig{
			Engine:   "whisper",
			Model:    "base.en",
			Language: "auto",
		},
		Coach: CoachConfig{
			Command:        "claude",
			TimeoutSeconds: 30,
			CadenceSeconds: 1,
		},
		Tray: TrayConfig{
			Enabled: true,
		},
		Feed: FeedConfig{
			Addr: "127.0.0.1:8787",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9090",
		},
	}
}

// Load builds the configuration. An empty path reads the default
// location and tolerates a missing file; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = defaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		return cfg, cfg.Validate()
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Audio.BufferSeconds <= 0 || c.Audio.BufferSeconds > 300 {
		return fmt.Errorf("audio.buffer_seconds must be in (0, 300], got %d", c.Audio.BufferSeconds)
	}
	if c.Transcribe.WindowSeconds < 10 || c.Transcribe.WindowSeconds > 15 {
		return fmt.Errorf("transcribe.window_seconds must be in [10, 15], got %g", c.Transcribe.WindowSeconds)
	}
	if c.Transcribe.IntervalSeconds <= 0 || c.Transcribe.IntervalSeconds > c.Transcribe.WindowSeconds {
		return fmt.Errorf("transcribe.interval_seconds must be in (0, window], got %g", c.Transcribe.IntervalSeconds)
	}
	if c.Transcribe.SilenceThreshold < 0 || c.Transcribe.SilenceThreshold > 1 {
		return fmt.Errorf("transcribe.silence_threshold must be in [0, 1], got %g", c.Transcribe.SilenceThreshold)
	}
	switch c.STT.Engine {
	case "", "whisper":
	case "http":
		if c.STT.URL == "" {
			return fmt.Errorf("stt.url is required for the http engine")
		}
	default:
		return fmt.Errorf("stt.engine must be whisper or http, got %q", c.STT.Engine)
	}
	if c.Coach.TimeoutSeconds <= 0 {
		return fmt.Errorf("coach.timeout_seconds must be positive, got %g", c.Coach.TimeoutSeconds)
	}
	if c.Coach.CadenceSeconds <= 0 {
		return fmt.Errorf("coach.cadence_seconds must be positive, got %g", c.Coach.CadenceSeconds)
	}
	if c.Feed.Enabled && c.Feed.Addr == "" {
		return fmt.Errorf("feed.addr is required when the feed is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}

// defaultPath is the platform config file location.
func defaultPath() string {
	return filepath.Join(appSupportDir(), "config.yaml")
}

// ModelsPath is where downloaded whisper models live.
func ModelsPath() string {
	var base string
	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}
	return filepath.Join(base, "ng", "models")
}

func appSupportDir() string {
	var base string
	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}
	return filepath.Join(base, "ng")
}
