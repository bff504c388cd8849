//go:build darwin

package capture

/*
#cgo OBJCFLAGS: -fobjc-arc
#cgo LDFLAGS: -framework ScreenCaptureKit -framework CoreMedia -framework CoreGraphics -framework Foundation

#include <stdlib.h>
#include "system_darwin.h"
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/kostaspaps/NG/internal/audio"
	"github.com/kostaspaps/NG/internal/metrics"
)

// The ScreenCaptureKit callbacks land in exported C functions with no
// receiver, so a single tap per process owns them.
var (
	sysMu     sync.Mutex
	activeSys *SystemAudio
)

// SystemAudio captures the remote side of a call by tapping system
// audio output through ScreenCaptureKit. It requires macOS 13+ and the
// Screen Recording permission; when either is missing Start reports
// UnavailableError and the session continues without it.
type SystemAudio struct {
	ring *audio.Ring
	log  zerolog.Logger
	met  *metrics.Metrics

	mu           sync.Mutex
	capturing    bool
	lastFallback string
}

// NewSystemAudio prepares a system audio source with bufferSeconds of
// ring capacity.
func NewSystemAudio(bufferSeconds int, met *metrics.Metrics, log zerolog.Logger) *SystemAudio {
	return &SystemAudio{
		ring: audio.NewRing(bufferSeconds * audio.SampleRate),
		log:  log.With().Str("source", systemAudioName).Logger(),
		met:  met,
	}
}

func (s *SystemAudio) Name() string { return systemAudioName }

func (s *SystemAudio) Start(ctx context.Context) error {
	sysMu.Lock()
	if activeSys != nil && activeSys != s {
		sysMu.Unlock()
		return &UnavailableError{Source: systemAudioName, Reason: "another system audio tap is active"}
	}
	activeSys = s
	sysMu.Unlock()

	rc := int(C.ng_system_capture_start())
	if rc != C.NG_CAPTURE_OK {
		sysMu.Lock()
		activeSys = nil
		sysMu.Unlock()
		return &UnavailableError{Source: systemAudioName, Reason: startReason(rc)}
	}

	s.mu.Lock()
	s.capturing = true
	s.mu.Unlock()

	s.log.Info().Msg("System audio capturing")
	return nil
}

func startReason(rc int) string {
	switch rc {
	case C.NG_CAPTURE_UNSUPPORTED:
		return "system audio capture requires macOS 13 or newer"
	case C.NG_CAPTURE_PERMISSION:
		return "screen recording permission not granted"
	case C.NG_CAPTURE_NO_CONTENT:
		return "no shareable display found"
	case C.NG_CAPTURE_CONFIG:
		return "stream configuration rejected"
	case C.NG_CAPTURE_REGISTER:
		return "audio output registration failed"
	case C.NG_CAPTURE_START:
		return "capture stream failed to start"
	case C.NG_CAPTURE_TIMEOUT:
		return "timed out waiting for ScreenCaptureKit"
	case C.NG_CAPTURE_ACTIVE:
		return "capture already active in this process"
	default:
		return fmt.Sprintf("unknown capture error %d", rc)
	}
}

func (s *SystemAudio) Stop() error {
	sysMu.Lock()
	mine := activeSys == s
	if mine {
		activeSys = nil
	}
	sysMu.Unlock()

	if mine {
		C.ng_system_capture_stop()
	}

	s.mu.Lock()
	wasCapturing := s.capturing
	s.capturing = false
	s.mu.Unlock()

	if wasCapturing {
		s.log.Info().Msg("System audio stopped")
	}
	return nil
}

func (s *SystemAudio) IsCapturing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capturing
}

func (s *SystemAudio) ReadWindow(d time.Duration) []float32 {
	return s.ring.ReadLast(d)
}

func (s *SystemAudio) Clear() {
	s.ring.Clear()
}

func (s *SystemAudio) Close() error {
	return s.Stop()
}

// handleBlock runs on the ScreenCaptureKit sample queue. Whatever the
// tap delivers is normalized to 16 kHz mono float32 before it enters
// the ring.
func (s *SystemAudio) handleBlock(raw []byte, f audio.Format) {
	samples, recognized := audio.Decode(raw, f)
	if !recognized {
		s.noteFallback(f)
	}
	samples = audio.Resample(samples, f.Rate, audio.SampleRate)
	audio.Clamp(samples)
	s.ring.Push(samples)
}

// noteFallback logs an unrecognized sample format once per descriptor;
// the callback fires dozens of times per second.
func (s *SystemAudio) noteFallback(f audio.Format) {
	s.met.RecordDecodeFallback()

	desc := fmt.Sprintf("bits=%d float=%t signed=%t interleaved=%t rate=%d channels=%d",
		f.Bits, f.Float, f.Signed, f.Interleaved, f.Rate, f.Channels)
	s.mu.Lock()
	seen := s.lastFallback == desc
	s.lastFallback = desc
	s.mu.Unlock()
	if !seen {
		s.log.Warn().Str("format", desc).Msg("Unrecognized sample format, decoding as float32")
	}
}

func (s *SystemAudio) streamStopped(msg string) {
	s.mu.Lock()
	s.capturing = false
	s.mu.Unlock()
	s.log.Warn().Str("reason", msg).Msg("System audio stream stopped")
}

//export goSystemAudioBlock
func goSystemAudioBlock(data unsafe.Pointer, length, sampleRate, channels, bits, isFloat, isSigned, isInterleaved C.int) {
	sysMu.Lock()
	s := activeSys
	sysMu.Unlock()
	if s == nil {
		return
	}

	raw := C.GoBytes(data, length)
	s.handleBlock(raw, audio.Format{
		Bits:        int(bits),
		Float:       isFloat != 0,
		Signed:      isSigned != 0,
		Interleaved: isInterleaved != 0,
		Channels:    int(channels),
		Rate:        int(sampleRate),
	})
}

//export goSystemAudioSkipped
func goSystemAudioSkipped() {
	sysMu.Lock()
	s := activeSys
	sysMu.Unlock()
	if s == nil {
		return
	}
	s.met.RecordBlockSkipped()
	s.log.Debug().Msg("Audio block skipped")
}

//export goSystemAudioStopped
func goSystemAudioStopped(message *C.char) {
	msg := C.GoString(message)
	C.free(unsafe.Pointer(message))

	sysMu.Lock()
	s := activeSys
	sysMu.Unlock()
	if s == nil {
		return
	}
	s.streamStopped(msg)
}
