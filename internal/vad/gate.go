// Package vad gates transcription on voice activity. Whisper invents
// text when fed silence, so windows below the energy threshold never
// reach the recognizer.
package vad

import (
	"fmt"
	"math"
	"sync"
)

// DefaultThreshold is the RMS level below which a window counts as
// silence. Tuned against typical laptop microphone noise floors.
const DefaultThreshold = 0.003

// Gate is a simple RMS energy gate over float32 sample windows.
type Gate struct {
	threshold float64

	mu           sync.Mutex
	totalWindows uint64
	voiceWindows uint64
	lastRMS      float64
}

// Stats reports how many windows the gate has seen and passed.
type Stats struct {
	TotalWindows    uint64
	VoiceWindows    uint64
	VoicePercentage float64
}

// NewGate creates a gate with the given RMS threshold. A threshold of
// zero passes every non-empty window.
func NewGate(threshold float64) (*Gate, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %f", threshold)
	}
	return &Gate{threshold: threshold}, nil
}

// HasVoice reports whether the window carries enough energy to be
// worth transcribing. An empty window is never voice.
func (g *Gate) HasVoice(samples []float32) bool {
	if len(samples) == 0 {
		return false
	}

	var energy float64
	for _, s := range samples {
		energy += float64(s) * float64(s)
	}
	rms := math.Sqrt(energy / float64(len(samples)))
	voice := rms >= g.threshold

	g.mu.Lock()
	g.totalWindows++
	if voice {
		g.voiceWindows++
	}
	g.lastRMS = rms
	g.mu.Unlock()

	return voice
}

// LastRMS returns the RMS of the most recently evaluated window.
func (g *Gate) LastRMS() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastRMS
}

func (g *Gate) Threshold() float64 { return g.threshold }

// GetStats returns gate counters since creation or the last Reset.
func (g *Gate) GetStats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	percentage := float64(0)
	if g.totalWindows > 0 {
		percentage = float64(g.voiceWindows) / float64(g.totalWindows) * 100
	}
	return Stats{
		TotalWindows:    g.totalWindows,
		VoiceWindows:    g.voiceWindows,
		VoicePercentage: percentage,
	}
}

// Reset clears the gate counters.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.totalWindows = 0
	g.voiceWindows = 0
	g.lastRMS = 0
}
