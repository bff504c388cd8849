package audio

import (
	"math"
	"testing"
)

func TestResampleConstantValue(t *testing.T) {
	cases := []struct {
		name    string
		srcRate int
		length  int
	}{
		{"48kHz", 48000, 4800},
		{"44.1kHz", 44100, 4410},
		{"22.05kHz", 22050, 2205},
		{"8kHz upsample", 8000, 800},
	}

	const value = 0.25
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := constWindow(tc.length, value)
			got := Resample(in, tc.srcRate, SampleRate)

			wantLen := int(math.Round(float64(tc.length) * float64(SampleRate) / float64(tc.srcRate)))
			if len(got) != wantLen {
				t.Fatalf("expected %d samples, got %d", wantLen, len(got))
			}
			for i, s := range got {
				if math.Abs(float64(s)-value) > 1e-6 {
					t.Fatalf("sample %d: expected %f, got %f", i, value, s)
				}
			}
		})
	}
}

func TestResampleZeroLength(t *testing.T) {
	got := Resample(nil, 48000, SampleRate)
	if len(got) != 0 {
		t.Fatalf("expected empty output for empty input, got %d samples", len(got))
	}
}

func TestResampleSameRatePassthrough(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	got := Resample(in, SampleRate, SampleRate)
	if len(got) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("sample %d: expected %f, got %f", i, in[i], got[i])
		}
	}
}

func TestResamplePreservesEndpointsAndOrder(t *testing.T) {
	in := make([]float32, 480) // linear ramp 0..1 at 48 kHz
	for i := range in {
		in[i] = float32(i) / float32(len(in)-1)
	}

	got := Resample(in, 48000, SampleRate)
	if len(got) != 160 {
		t.Fatalf("expected 160 samples, got %d", len(got))
	}
	if got[0] != 0 {
		t.Fatalf("expected first sample 0, got %f", got[0])
	}
	if math.Abs(float64(got[len(got)-1])-1.0) > 1e-6 {
		t.Fatalf("expected last sample 1.0, got %f", got[len(got)-1])
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("ramp not monotonic at %d: %f < %f", i, got[i], got[i-1])
		}
	}
}

func TestResampleUpsampleDoubles(t *testing.T) {
	in := constWindow(800, 0.5)
	got := Resample(in, 8000, SampleRate)
	if len(got) != 1600 {
		t.Fatalf("expected 1600 samples, got %d", len(got))
	}
}

func TestClamp(t *testing.T) {
	s := []float32{1.5, -2.0, 0.5, 1.0, -1.0}
	Clamp(s)
	want := []float32{1.0, -1.0, 0.5, 1.0, -1.0}
	for i := range want {
		if s[i] != want[i] {
			t.Fatalf("sample %d: expected %f, got %f", i, want[i], s[i])
		}
	}
}
