package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kostaspaps/NG/internal/capture"
	"github.com/kostaspaps/NG/internal/coach"
	"github.com/kostaspaps/NG/internal/config"
	"github.com/kostaspaps/NG/internal/feed"
	"github.com/kostaspaps/NG/internal/logging"
	"github.com/kostaspaps/NG/internal/metrics"
	"github.com/kostaspaps/NG/internal/permissions"
	"github.com/kostaspaps/NG/internal/session"
	"github.com/kostaspaps/NG/internal/stt"
	"github.com/kostaspaps/NG/internal/transcript"
	"github.com/kostaspaps/NG/internal/tray"

	"github.com/rs/zerolog"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: platform config dir)")
	profilePath := flag.String("profile", "", "coaching profile YAML, overrides config")
	model := flag.String("model", "", "whisper model name or path, overrides config")
	engine := flag.String("engine", "", "stt engine (whisper or http), overrides config")
	logLevel := flag.String("log-level", "", "log level, overrides config")
	listDevices := flag.Bool("list-devices", false, "print input devices and exit")
	flag.Parse()

	if *listDevices {
		printInputDevices()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if *profilePath != "" {
		cfg.Coach.Profile = *profilePath
	}
	if *model != "" {
		cfg.STT.Model = *model
	}
	if *engine != "" {
		cfg.STT.Engine = *engine
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		log := logging.New()
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logging.NewWithLevel(cfg.LogLevel)
	log.Info().Str("version", Version).Str("commit", Commit).Msg("ng starting")

	// macOS requires explicit microphone approval before capture works.
	if err := permissions.EnsureMicrophone(); err != nil {
		log.Fatal().Err(err).Msg("Microphone permission not granted")
	}
	if !permissions.ScreenCaptureAuthorized() {
		log.Warn().Msg("Screen recording not yet authorized, the other-party stream may start degraded")
	}

	profile := &coach.Profile{}
	if cfg.Coach.Profile != "" {
		profile, err = coach.ReadProfile(cfg.Coach.Profile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Coach.Profile).Msg("Failed to read coaching profile")
		}
	}

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	var met *metrics.Metrics
	if cfg.Metrics.Enabled {
		met = metrics.New()
		go metrics.Serve(metricsCtx, cfg.Metrics.Addr, log)
	}

	rec, err := stt.New(stt.Options{
		Engine:   cfg.STT.Engine,
		Model:    cfg.STT.Model,
		Language: cfg.STT.Language,
		Threads:  cfg.STT.Threads,
		URL:      cfg.STT.URL,
		Token:    cfg.STT.Token,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize speech recognition")
	}

	mic, err := capture.NewMicrophone(cfg.Audio.Device, cfg.Audio.BufferSeconds, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize microphone")
	}

	sys := capture.NewSystemAudio(cfg.Audio.BufferSeconds, met, log)

	agent := coach.NewCLIAgent(cfg.Coach.Command, profile.CompilePrompt(), cfg.Coach.Timeout(), log)

	var displays []session.Display

	var feedSrv *feed.Server
	if cfg.Feed.Enabled {
		feedSrv = feed.NewServer(log)
		if err := feedSrv.Start(cfg.Feed.Addr); err != nil {
			log.Fatal().Err(err).Msg("Failed to start suggestion feed")
		}
		log.Info().Str("addr", feedSrv.Addr()).Msg("Suggestion feed listening")
		displays = append(displays, feedSrv)
	}

	// shutdown is assigned below, before any path that can invoke it.
	var shutdown func()

	var trayUI *tray.UI
	if cfg.Tray.Enabled {
		trayUI = tray.New(func() { shutdown() }, log)
		displays = append(displays, trayUI)
	}
	if len(displays) == 0 {
		displays = append(displays, logDisplay{log: log})
	}

	sess := session.New(session.Options{
		Window:        cfg.Transcribe.Window(),
		Interval:      cfg.Transcribe.Interval(),
		Cadence:       cfg.Coach.Cadence(),
		GateThreshold: cfg.Transcribe.SilenceThreshold,
	}, mic, sys, rec, agent, met, log, displays...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sess.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start session")
	}

	var once sync.Once
	shutdown = func() {
		once.Do(func() {
			log.Info().Msg("Shutting down...")
			sess.Close()
			if feedSrv != nil {
				feedSrv.Close()
			}
			if err := rec.Close(); err != nil {
				log.Warn().Err(err).Msg("Recognizer close failed")
			}
			if err := mic.Close(); err != nil {
				log.Warn().Err(err).Msg("Microphone close failed")
			}
			stopMetrics()
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if trayUI != nil {
		go func() {
			<-sigChan
			shutdown()
			os.Exit(0)
		}()

		// Blocks on the main thread until Quit; the quit handler runs
		// shutdown before systray exits its loop.
		trayUI.Run()
		shutdown()
		return
	}

	<-sigChan
	shutdown()
}

func printInputDevices() {
	devices, err := capture.ListInputDevices()
	if err != nil {
		fmt.Fprintln(os.Stderr, "list devices:", err)
		os.Exit(1)
	}
	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, d.Name)
	}
}

// logDisplay surfaces suggestions in the log when neither the tray nor
// the feed is enabled.
type logDisplay struct {
	log zerolog.Logger
}

func (d logDisplay) ShowSuggestion(s coach.Suggestion) {
	d.log.Info().
		Str("one_liner", s.OneLiner).
		Str("recommended", s.Recommended).
		Msg("Coaching suggestion")
}

func (d logDisplay) StreamState(label transcript.Label, capturing bool) {
	d.log.Info().Str("stream", string(label)).Bool("capturing", capturing).Msg("Stream state")
}

func (d logDisplay) Notify(message string) {
	d.log.Info().Msg(message)
}
