// Package stt turns audio windows into text. The primary engine is
// whisper.cpp behind the whisper_cpp build tag; an HTTP engine posts
// windows to a remote transcription server instead.
package stt

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

const (
	EngineWhisper = "whisper"
	EngineHTTP    = "http"
)

// Recognizer transcribes a single window of 16 kHz mono float32
// samples. Implementations serialize calls internally; the returned
// text is empty when the window carried no recognizable speech.
type Recognizer interface {
	Recognize(ctx context.Context, samples []float32) (string, error)
	Close() error
}

// Options selects and configures a recognition engine.
type Options struct {
	Engine   string
	Model    string // model name (downloaded on demand) or path to a ggml file
	Language string // "auto" detects per window
	Threads  int    // 0 uses all CPU cores

	URL   string // http engine endpoint
	Token string // optional bearer token for the http engine
}

// New builds a Recognizer for the configured engine.
func New(opts Options, log zerolog.Logger) (Recognizer, error) {
	switch opts.Engine {
	case "", EngineWhisper:
		return newWhisper(opts, log)
	case EngineHTTP:
		return NewHTTP(opts.URL, opts.Token, log)
	default:
		return nil, fmt.Errorf("unknown stt engine: %s", opts.Engine)
	}
}
