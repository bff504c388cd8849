package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kostaspaps/NG/internal/audio"
)

// HTTP posts each window as a WAV file to a whisper-compatible server
// (POST <url>, multipart field "file", JSON {"text": ...} back).
type HTTP struct {
	url    string
	token  string
	client *http.Client
	log    zerolog.Logger
}

type httpResponse struct {
	Text string `json:"text"`
}

func NewHTTP(url, token string, log zerolog.Logger) (*HTTP, error) {
	if url == "" {
		return nil, errors.New("http engine requires a url")
	}
	return &HTTP{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}, nil
}

func (h *HTTP) Recognize(ctx context.Context, samples []float32) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "window.wav")
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(audio.EncodeWAV(samples, audio.SampleRate)); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post window: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("transcription server http %d: %s", resp.StatusCode, string(b))
	}

	var parsed httpResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}

func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
