//go:build whisper_cpp

package stt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"

	"github.com/kostaspaps/NG/internal/audio"
	"github.com/kostaspaps/NG/internal/config"
)

// Whisper processes at most 30 seconds of audio per pass.
const maxWindowSamples = 30 * audio.SampleRate

type whisperRecognizer struct {
	threads  uint
	language string
	log      zerolog.Logger

	mu    sync.Mutex
	model whisper.Model
}

// newWhisper loads a ggml model, downloading it first when Model names
// one of the known models and no local copy exists.
func newWhisper(opts Options, log zerolog.Logger) (Recognizer, error) {
	modelPath := opts.Model
	if _, err := os.Stat(modelPath); err != nil {
		modelPath = filepath.Join(config.ModelsPath(), opts.Model+".bin")
		if _, err := os.Stat(modelPath); os.IsNotExist(err) {
			if err := downloadModel(opts.Model, modelPath, log); err != nil {
				return nil, fmt.Errorf("download model: %w", err)
			}
		}
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	threads := uint(runtime.NumCPU())
	if opts.Threads > 0 {
		threads = uint(opts.Threads)
	}

	log.Info().Str("model", modelPath).Uint("threads", threads).Msg("Whisper model loaded")
	return &whisperRecognizer{
		threads:  threads,
		language: opts.Language,
		log:      log,
		model:    model,
	}, nil
}

func (w *whisperRecognizer) Recognize(ctx context.Context, samples []float32) (string, error) {
	if len(samples) > maxWindowSamples {
		samples = samples[len(samples)-maxWindowSamples:]
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model == nil {
		return "", errors.New("recognizer closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create whisper context: %w", err)
	}

	wctx.SetThreads(w.threads)
	if w.language != "" && w.language != "auto" {
		if err := wctx.SetLanguage(w.language); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}
	wctx.SetTranslate(false)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	var sb strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err != nil {
			break // io.EOF after the last segment
		}
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func (w *whisperRecognizer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
	return nil
}
