// Package capture owns the live audio sources. Each source holds an
// OS capture session and a ring buffer; arriving blocks are decoded,
// resampled to the canonical rate and pushed — nothing on the delivery
// path blocks on transcription or anything else downstream.
package capture

import (
	"context"
	"fmt"
	"time"
)

const (
	microphoneName  = "microphone"
	systemAudioName = "system_audio"
)

// Source is one live capture stream feeding its own ring buffer.
// Workers and the orchestrator depend on this interface only; the
// concrete variants wrap PortAudio (microphone) and ScreenCaptureKit
// (system audio).
type Source interface {
	// Start acquires the underlying capture session. On any failure
	// path, partially acquired resources are released before the
	// error is returned; no half-registered session remains.
	Start(ctx context.Context) error

	// Stop releases the capture session. Safe to call when already
	// stopped.
	Stop() error

	// IsCapturing reports whether the session is live.
	IsCapturing() bool

	// ReadWindow returns a copy of up to d seconds of the newest
	// buffered audio, fewer when less history exists.
	ReadWindow(d time.Duration) []float32

	// Clear drops all buffered audio.
	Clear()

	// Name identifies the source in logs.
	Name() string

	// Close releases the audio subsystem. Call after Stop, once, at
	// process exit.
	Close() error
}

// UnavailableError reports a capture backend that cannot start on this
// host: missing permission, unsupported OS version, missing platform
// bindings, or a registration failure. It is the signal to degrade the
// session rather than crash it.
type UnavailableError struct {
	Source string
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s unavailable: %s", e.Source, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
