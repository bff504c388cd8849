//go:build !darwin

package capture

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kostaspaps/NG/internal/audio"
	"github.com/kostaspaps/NG/internal/metrics"
)

// SystemAudio taps system audio output through ScreenCaptureKit, which
// only exists on macOS. On other platforms Start reports
// UnavailableError and the session continues with the microphone only.
type SystemAudio struct {
	ring *audio.Ring
	log  zerolog.Logger
}

func NewSystemAudio(bufferSeconds int, met *metrics.Metrics, log zerolog.Logger) *SystemAudio {
	return &SystemAudio{
		ring: audio.NewRing(bufferSeconds * audio.SampleRate),
		log:  log.With().Str("source", systemAudioName).Logger(),
	}
}

func (s *SystemAudio) Name() string { return systemAudioName }

func (s *SystemAudio) Start(ctx context.Context) error {
	return &UnavailableError{Source: systemAudioName, Reason: "system audio capture requires macOS 13 or newer"}
}

func (s *SystemAudio) Stop() error { return nil }

func (s *SystemAudio) IsCapturing() bool { return false }

func (s *SystemAudio) ReadWindow(d time.Duration) []float32 {
	return s.ring.ReadLast(d)
}

func (s *SystemAudio) Clear() {
	s.ring.Clear()
}

func (s *SystemAudio) Close() error { return nil }
