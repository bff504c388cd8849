// Package audio holds the sample-level primitives the capture pipeline
// is built on: the ring buffer every source writes into, wire-format
// decoding, linear resampling and in-memory WAV encoding.
//
// Everything downstream of a capture source assumes the canonical
// format: mono float32 at 16 kHz, values in [-1, 1].
package audio

const (
	// SampleRate is the canonical pipeline rate in Hz.
	SampleRate = 16000

	// Channels is fixed; the pipeline is mono end to end.
	Channels = 1
)

// Clamp bounds samples to the canonical [-1, 1] range in place.
// Resampling and channel averaging can overshoot slightly on hot
// signals; recognizers expect normalized input.
func Clamp(samples []float32) {
	for i, s := range samples {
		if s > 1 {
			samples[i] = 1
		} else if s < -1 {
			samples[i] = -1
		}
	}
}
