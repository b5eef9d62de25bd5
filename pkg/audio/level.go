package audio

import (
	"encoding/binary"
	"math"
)

// RMS computes the root-mean-square amplitude of a frame of int16 PCM,
// normalised to [0, 1]. Trailing odd bytes are ignored. An empty frame has
// an RMS of zero.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[2*i : 2*i+2]))
		v := float64(s) / 32768
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// MeanVariance returns the mean and population variance of a level series.
// Both are zero for an empty series.
func MeanVariance(levels []float64) (mean, variance float64) {
	if len(levels) == 0 {
		return 0, 0
	}
	for _, v := range levels {
		mean += v
	}
	mean /= float64(len(levels))
	for _, v := range levels {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(levels))
	return mean, variance
}
