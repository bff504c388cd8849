package vad

import (
	"math"
	"testing"
)

func constantWindow(value float32, n int) []float32 {
	w := make([]float32, n)
	for i := range w {
		w[i] = value
	}
	return w
}

func TestNewGateValidatesThreshold(t *testing.T) {
	for _, threshold := range []float64{-0.1, 1.5} {
		if _, err := NewGate(threshold); err == nil {
			t.Errorf("NewGate(%f) succeeded, want error", threshold)
		}
	}
	if _, err := NewGate(DefaultThreshold); err != nil {
		t.Errorf("NewGate(DefaultThreshold) = %v", err)
	}
}

func TestHasVoiceSilence(t *testing.T) {
	gate, err := NewGate(DefaultThreshold)
	if err != nil {
		t.Fatal(err)
	}

	if gate.HasVoice(constantWindow(0, 16000)) {
		t.Error("silence passed the gate")
	}
	if gate.LastRMS() != 0 {
		t.Errorf("LastRMS() = %f, want 0", gate.LastRMS())
	}
}

func TestHasVoiceSpeechLevel(t *testing.T) {
	gate, err := NewGate(DefaultThreshold)
	if err != nil {
		t.Fatal(err)
	}

	// Constant amplitude a has RMS exactly a.
	if !gate.HasVoice(constantWindow(0.5, 16000)) {
		t.Error("speech-level window did not pass the gate")
	}
	if got := gate.LastRMS(); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("LastRMS() = %f, want 0.5", got)
	}
}

func TestHasVoiceEmptyWindow(t *testing.T) {
	gate, err := NewGate(0)
	if err != nil {
		t.Fatal(err)
	}
	if gate.HasVoice(nil) {
		t.Error("empty window passed the gate")
	}
}

func TestHasVoiceThresholdBoundary(t *testing.T) {
	gate, err := NewGate(0.25)
	if err != nil {
		t.Fatal(err)
	}

	if !gate.HasVoice(constantWindow(0.25, 100)) {
		t.Error("window at exactly the threshold should pass")
	}
	if gate.HasVoice(constantWindow(0.24, 100)) {
		t.Error("window below the threshold should not pass")
	}
}

func TestGateStats(t *testing.T) {
	gate, err := NewGate(0.1)
	if err != nil {
		t.Fatal(err)
	}

	gate.HasVoice(constantWindow(0.5, 100))
	gate.HasVoice(constantWindow(0.5, 100))
	gate.HasVoice(constantWindow(0.0, 100))

	stats := gate.GetStats()
	if stats.TotalWindows != 3 {
		t.Errorf("TotalWindows = %d, want 3", stats.TotalWindows)
	}
	if stats.VoiceWindows != 2 {
		t.Errorf("VoiceWindows = %d, want 2", stats.VoiceWindows)
	}
	if math.Abs(stats.VoicePercentage-66.666) > 0.01 {
		t.Errorf("VoicePercentage = %f, want ~66.666", stats.VoicePercentage)
	}

	gate.Reset()
	stats = gate.GetStats()
	if stats.TotalWindows != 0 || stats.VoiceWindows != 0 {
		t.Errorf("stats after Reset = %+v, want zeros", stats)
	}
}
