package audio

import "math"

// Resample converts samples from srcRate to dstRate using linear
// interpolation. Cheap and good enough for speech recognition input;
// not meant for playback fidelity. Arbitrary non-integer ratios are
// fine, zero-length input returns zero-length output, and matching
// rates return the input slice untouched.
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if len(samples) == 0 || srcRate == dstRate || srcRate <= 0 || dstRate <= 0 {
		return samples
	}
	n := int(math.Round(float64(len(samples)) * float64(dstRate) / float64(srcRate)))
	if n <= 0 {
		n = 1
	}
	out := make([]float32, n)
	if n == 1 {
		out[0] = samples[0]
		return out
	}
	step := float64(len(samples)-1) / float64(n-1)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j] + (samples[j+1]-samples[j])*frac
	}
	return out
}
