package audio

import (
	"encoding/binary"
	"math"
)

// Format describes the wire layout of a raw sample block as reported
// by the OS capture framework. System audio taps make no promises
// about layout ahead of time, so every block carries its descriptor.
type Format struct {
	Bits        int // size of one sample: 16, 32 or 64
	Float       bool
	Signed      bool
	Interleaved bool
	Channels    int
	Rate        int // source sample rate, Hz
}

// Decode interprets a raw little-endian byte block according to f and
// returns mono float32 samples. recognized is false when the
// descriptor matched no known layout and the block was read as float32
// anyway: a misclassified format degrades audio quality, but it must
// never kill the capture stream.
func Decode(raw []byte, f Format) (samples []float32, recognized bool) {
	switch {
	case f.Float && f.Bits == 32:
		samples, recognized = decodeFloat32(raw), true
	case f.Float && f.Bits == 64:
		samples, recognized = decodeFloat64(raw), true
	case !f.Float && f.Signed && f.Bits == 16:
		samples, recognized = decodeInt16(raw), true
	case !f.Float && f.Signed && f.Bits == 32:
		samples, recognized = decodeInt32(raw), true
	default:
		samples, recognized = decodeFloat32(raw), false
	}
	return downmix(samples, f), recognized
}

func decodeFloat32(raw []byte) []float32 {
	n := len(raw) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}

func decodeFloat64(raw []byte) []float32 {
	n := len(raw) / 8
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:])))
	}
	return out
}

func decodeInt16(raw []byte) []float32 {
	n := len(raw) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
	}
	return out
}

func decodeInt32(raw []byte) []float32 {
	n := len(raw) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(int32(binary.LittleEndian.Uint32(raw[i*4:]))) / 2147483648
	}
	return out
}

// downmix folds multi-channel samples to mono. Interleaved frames are
// channel-averaged; non-interleaved (planar) blocks keep the first
// plane, which is the full first channel.
func downmix(samples []float32, f Format) []float32 {
	ch := f.Channels
	if ch <= 1 {
		return samples
	}
	if !f.Interleaved {
		return samples[:len(samples)/ch]
	}
	frames := len(samples) / ch
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += samples[i*ch+c]
		}
		out[i] = sum / float32(ch)
	}
	return out
}
