package transcript

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kostaspaps/NG/internal/metrics"
	"github.com/kostaspaps/NG/internal/stt"
	"github.com/kostaspaps/NG/internal/vad"
)

// SampleSource is the slice of a capture source a worker needs.
type SampleSource interface {
	ReadWindow(d time.Duration) []float32
	IsCapturing() bool
	Name() string
}

// Worker re-transcribes the newest window of one stream every interval
// and publishes the result into its slot. Overlapping windows mean
// each pass refines the previous text rather than appending to it.
type Worker struct {
	label    Label
	stream   string
	source   SampleSource
	gate     *vad.Gate
	rec      stt.Recognizer
	slot     *Slot
	window   time.Duration
	interval time.Duration
	met      *metrics.Metrics
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker wires a stream to a recognizer. The recognizer may be
// shared between workers; it serializes calls itself.
func NewWorker(label Label, source SampleSource, gate *vad.Gate, rec stt.Recognizer,
	window, interval time.Duration, met *metrics.Metrics, log zerolog.Logger) *Worker {
	stream := strings.ToLower(string(label))
	return &Worker{
		label:    label,
		stream:   stream,
		source:   source,
		gate:     gate,
		rec:      rec,
		slot:     &Slot{},
		window:   window,
		interval: interval,
		met:      met,
		log:      log.With().Str("stream", stream).Logger(),
	}
}

func (w *Worker) Label() Label { return w.label }

// Slot exposes the worker's published transcript.
func (w *Worker) Slot() *Slot { return w.slot }

// Start launches the transcription loop. The first pass runs one
// interval after start.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(runCtx)
	w.log.Info().Dur("window", w.window).Dur("interval", w.interval).Msg("Transcription worker started")
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cycle(ctx)
		}
	}
}

// cycle runs one gate-then-transcribe pass. A failed or empty pass
// leaves the slot untouched.
func (w *Worker) cycle(ctx context.Context) {
	if !w.source.IsCapturing() {
		return
	}

	window := w.source.ReadWindow(w.window)
	if len(window) == 0 {
		return
	}

	if !w.gate.HasVoice(window) {
		w.met.RecordGate(w.stream, false)
		w.log.Debug().Float64("rms", w.gate.LastRMS()).Msg("Window gated as silence")
		return
	}
	w.met.RecordGate(w.stream, true)

	start := time.Now()
	text, err := w.rec.Recognize(ctx, window)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.met.RecordTranscription(w.stream, "error", elapsed)
		w.log.Warn().Err(err).Msg("Transcription failed, keeping previous text")
		return
	}
	if text == "" {
		w.met.RecordTranscription(w.stream, "empty", elapsed)
		return
	}

	w.slot.Publish(text)
	w.met.RecordTranscription(w.stream, "ok", elapsed)
	w.met.RecordContextUpdate(w.stream)
	w.log.Debug().Dur("took", elapsed).Int("chars", len(text)).Msg("Transcript updated")
}

// Stop halts the loop and waits for an in-flight pass to finish, up to
// three intervals. A recognizer stuck past that is abandoned.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-done:
	case <-time.After(3 * w.interval):
		w.log.Warn().Msg("Transcription worker did not stop in time")
	}
}
