// Package session owns a live coaching session: both capture streams,
// their transcription workers, the merge into labeled conversation
// context, and the coaching cycle that turns context changes into
// suggestions.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kostaspaps/NG/internal/capture"
	"github.com/kostaspaps/NG/internal/coach"
	"github.com/kostaspaps/NG/internal/metrics"
	"github.com/kostaspaps/NG/internal/stt"
	"github.com/kostaspaps/NG/internal/transcript"
	"github.com/kostaspaps/NG/internal/vad"
)

// Display consumes session output. Implementations must not block;
// the orchestrator calls them from its own goroutines.
type Display interface {
	ShowSuggestion(s coach.Suggestion)
	StreamState(label transcript.Label, capturing bool)
	Notify(message string)
}

// Options carries the session timing knobs.
type Options struct {
	Window        time.Duration // trailing window each transcription pass reads
	Interval      time.Duration // transcription cadence per stream
	Cadence       time.Duration // coaching cadence
	GateThreshold float64
}

// Orchestrator wires the microphone (SELF) and system audio (OTHER)
// into one session. The microphone is mandatory; system audio degrades
// to a SELF-only session when unavailable.
type Orchestrator struct {
	opts     Options
	mic      capture.Source
	sys      capture.Source
	rec      stt.Recognizer
	agent    coach.Agent
	displays []Display
	met      *metrics.Metrics
	log      zerolog.Logger

	mu          sync.Mutex
	selfWorker  *transcript.Worker
	otherWorker *transcript.Worker
	cancel      context.CancelFunc
	started     bool
	closed      bool
	degraded    bool
	lastSent    string
}

func New(opts Options, mic, sys capture.Source, rec stt.Recognizer, agent coach.Agent,
	met *metrics.Metrics, log zerolog.Logger, displays ...Display) *Orchestrator {
	return &Orchestrator{
		opts:     opts,
		mic:      mic,
		sys:      sys,
		rec:      rec,
		agent:    agent,
		displays: displays,
		met:      met,
		log:      log.With().Str("component", "session").Logger(),
	}
}

// Start brings the session up. A microphone failure is fatal and
// returned as-is; a system audio failure degrades the session to
// SELF-only with a one-time notification.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return errors.New("session already started")
	}

	selfGate, err := vad.NewGate(o.opts.GateThreshold)
	if err != nil {
		return fmt.Errorf("voice gate: %w", err)
	}
	otherGate, err := vad.NewGate(o.opts.GateThreshold)
	if err != nil {
		return fmt.Errorf("voice gate: %w", err)
	}

	if err := o.mic.Start(ctx); err != nil {
		return fmt.Errorf("start microphone: %w", err)
	}
	o.streamState(transcript.Self, true)

	if err := o.sys.Start(ctx); err != nil {
		reason := err.Error()
		var unavailable *capture.UnavailableError
		if errors.As(err, &unavailable) {
			reason = unavailable.Reason
		}
		o.log.Warn().Str("reason", reason).Msg("System audio unavailable, continuing with microphone only")
		o.degraded = true
		o.notify("System audio unavailable: " + reason)
		o.streamState(transcript.Other, false)
	}

	o.started = true

	// Workers own their run contexts; Close stops them one by one so
	// teardown stays ordered.
	o.selfWorker = transcript.NewWorker(transcript.Self, o.mic, selfGate, o.rec,
		o.opts.Window, o.opts.Interval, o.met, o.log)
	o.selfWorker.Start(ctx)

	if o.sys.IsCapturing() {
		o.otherWorker = transcript.NewWorker(transcript.Other, o.sys, otherGate, o.rec,
			o.opts.Window, o.opts.Interval, o.met, o.log)
		o.otherWorker.Start(ctx)
		o.streamState(transcript.Other, true)
	}

	coachCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	go o.coachLoop(coachCtx)

	o.log.Info().Bool("degraded", o.degraded).Msg("Session started")
	return nil
}

// Degraded reports whether the session runs without system audio.
func (o *Orchestrator) Degraded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.degraded
}

// MergedContext builds the labeled conversation snapshot, SELF line
// first, streams with no text yet omitted.
func (o *Orchestrator) MergedContext() string {
	o.mu.Lock()
	selfWorker, otherWorker := o.selfWorker, o.otherWorker
	o.mu.Unlock()

	var parts []string
	if selfWorker != nil {
		if text := selfWorker.Slot().Snapshot(); text != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", transcript.Self, text))
		}
	}
	if otherWorker != nil {
		if text := otherWorker.Slot().Snapshot(); text != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", transcript.Other, text))
		}
	}
	return strings.Join(parts, "\n")
}

func (o *Orchestrator) coachLoop(ctx context.Context) {
	ticker := time.NewTicker(o.opts.Cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.coachCycle()
		}
	}
}

// coachCycle asks the agent about the current context when it changed
// since the last dispatch. Calls are single-flight: the loop blocks on
// the agent, and the ticker drops missed ticks. Teardown does not
// interrupt an in-flight call; its result is discarded instead.
func (o *Orchestrator) coachCycle() {
	merged := o.MergedContext()
	if merged == "" {
		return
	}

	o.mu.Lock()
	if o.closed || merged == o.lastSent {
		o.mu.Unlock()
		return
	}
	o.lastSent = merged
	o.mu.Unlock()

	start := time.Now()
	suggestion, err := o.agent.Suggest(context.Background(), merged)
	o.met.RecordAgentCall(time.Since(start), err)
	if err != nil {
		o.log.Warn().Err(err).Msg("Coaching agent failed, showing fallback")
		suggestion = coach.Fallback()
	}

	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return
	}

	o.showSuggestion(suggestion)
}

// Close tears the session down in strict order: OTHER worker, system
// audio, SELF worker, microphone, then buffer cleanup and the agent
// handle. Safe to call more than once.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed || !o.started {
		o.closed = true
		o.mu.Unlock()
		return
	}
	o.closed = true
	cancel := o.cancel
	o.cancel = nil
	selfWorker, otherWorker := o.selfWorker, o.otherWorker
	o.mu.Unlock()

	cancel()

	if otherWorker != nil {
		otherWorker.Stop()
	}
	if err := o.sys.Stop(); err != nil {
		o.log.Warn().Err(err).Msg("System audio stop failed")
	}
	o.streamState(transcript.Other, false)

	selfWorker.Stop()
	if err := o.mic.Stop(); err != nil {
		o.log.Warn().Err(err).Msg("Microphone stop failed")
	}
	o.streamState(transcript.Self, false)

	o.mic.Clear()
	o.sys.Clear()
	selfWorker.Slot().Clear()
	if otherWorker != nil {
		otherWorker.Slot().Clear()
	}

	if err := o.agent.Close(); err != nil {
		o.log.Warn().Err(err).Msg("Agent close failed")
	}

	o.log.Info().Msg("Session closed")
}

func (o *Orchestrator) showSuggestion(s coach.Suggestion) {
	for _, d := range o.displays {
		d.ShowSuggestion(s)
	}
}

func (o *Orchestrator) streamState(label transcript.Label, capturing bool) {
	for _, d := range o.displays {
		d.StreamState(label, capturing)
	}
}

func (o *Orchestrator) notify(message string) {
	for _, d := range o.displays {
		d.Notify(message)
	}
}
