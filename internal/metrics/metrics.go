// Package metrics exposes pipeline observability through Prometheus.
// Collectors are registered on the default registry; the HTTP endpoint
// is optional and bound to localhost. A nil *Metrics disables all
// recording, so components never need to branch on configuration.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics holds every collector the pipeline records into.
type Metrics struct {
	// Capture
	BlocksSkipped   prometheus.Counter
	DecodeFallbacks prometheus.Counter

	// Transcription cycle
	WindowsGated      *prometheus.CounterVec
	Transcriptions    *prometheus.CounterVec
	TranscriptionTime *prometheus.HistogramVec
	ContextUpdates    *prometheus.CounterVec

	// Coaching
	AgentCalls    prometheus.Counter
	AgentFailures prometheus.Counter
	AgentTime     prometheus.Histogram
}

// New creates and registers all collectors. Call once per process.
func New() *Metrics {
	return &Metrics{
		BlocksSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ng_capture_blocks_skipped_total",
			Help: "Delivered sample blocks skipped because of a non-zero OS status",
		}),
		DecodeFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ng_capture_decode_fallbacks_total",
			Help: "Sample blocks decoded through the float32 fallback path",
		}),
		WindowsGated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ng_vad_windows_total",
			Help: "Windows checked by the voice activity gate",
		}, []string{"stream", "result"}),
		Transcriptions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ng_transcriptions_total",
			Help: "Recognition attempts by outcome",
		}, []string{"stream", "result"}),
		TranscriptionTime: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ng_transcription_duration_seconds",
			Help:    "Time spent in the speech recognizer",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"stream"}),
		ContextUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ng_context_updates_total",
			Help: "Labeled context replacements published",
		}, []string{"stream"}),
		AgentCalls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ng_agent_calls_total",
			Help: "Reasoning agent invocations",
		}),
		AgentFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ng_agent_failures_total",
			Help: "Reasoning agent invocations that failed or returned malformed output",
		}),
		AgentTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ng_agent_duration_seconds",
			Help:    "Reasoning agent round-trip time",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
	}
}

func (m *Metrics) RecordBlockSkipped() {
	if m == nil {
		return
	}
	m.BlocksSkipped.Inc()
}

func (m *Metrics) RecordDecodeFallback() {
	if m == nil {
		return
	}
	m.DecodeFallbacks.Inc()
}

func (m *Metrics) RecordGate(stream string, voice bool) {
	if m == nil {
		return
	}
	result := "silence"
	if voice {
		result = "voice"
	}
	m.WindowsGated.WithLabelValues(stream, result).Inc()
}

func (m *Metrics) RecordTranscription(stream, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Transcriptions.WithLabelValues(stream, result).Inc()
	m.TranscriptionTime.WithLabelValues(stream).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordContextUpdate(stream string) {
	if m == nil {
		return
	}
	m.ContextUpdates.WithLabelValues(stream).Inc()
}

func (m *Metrics) RecordAgentCall(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.AgentCalls.Inc()
	m.AgentTime.Observe(elapsed.Seconds())
	if err != nil {
		m.AgentFailures.Inc()
	}
}

// Serve exposes /metrics on addr until ctx is cancelled. Run it in its
// own goroutine; it logs and returns on listener errors rather than
// taking the session down.
func Serve(ctx context.Context, addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Metrics endpoint listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Metrics endpoint failed")
	}
}
