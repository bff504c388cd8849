//go:build !whisper_cpp

package stt

import (
	"context"

	"github.com/rs/zerolog"
)

// Stub engine so the project builds without the whisper_cpp tag. It
// recognizes nothing, which the pipeline treats as silent windows.
type stubRecognizer struct{}

func newWhisper(opts Options, log zerolog.Logger) (Recognizer, error) {
	log.Warn().Msg("Built without whisper_cpp, transcription disabled")
	return &stubRecognizer{}, nil
}

func (*stubRecognizer) Recognize(ctx context.Context, samples []float32) (string, error) {
	return "", nil
}

func (*stubRecognizer) Close() error { return nil }
