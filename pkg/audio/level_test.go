package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

// pcmConst builds n int16 samples all holding value v.
func pcmConst(n int, v int16) []byte {
	out := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}

func TestRMS_Silence(t *testing.T) {
	t.Parallel()
	if got := RMS(pcmConst(480, 0)); got != 0 {
		t.Errorf("RMS of silence = %v, want 0", got)
	}
}

func TestRMS_Empty(t *testing.T) {
	t.Parallel()
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS of empty input = %v, want 0", got)
	}
	// A single trailing odd byte carries no complete sample.
	if got := RMS([]byte{0x7f}); got != 0 {
		t.Errorf("RMS of odd byte = %v, want 0", got)
	}
}

func TestRMS_ConstantAmplitude(t *testing.T) {
	t.Parallel()
	// A constant signal at half scale has RMS equal to its amplitude.
	got := RMS(pcmConst(1000, 16384))
	want := 16384.0 / 32768.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("RMS = %v, want %v", got, want)
	}
}

func TestMeanVariance(t *testing.T) {
	t.Parallel()
	mean, variance := MeanVariance([]float64{0.2, 0.4, 0.6})
	if math.Abs(mean-0.4) > 1e-9 {
		t.Errorf("mean = %v, want 0.4", mean)
	}
	want := (0.04 + 0 + 0.04) / 3
	if math.Abs(variance-want) > 1e-9 {
		t.Errorf("variance = %v, want %v", variance, want)
	}
}

func TestMeanVariance_Empty(t *testing.T) {
	t.Parallel()
	mean, variance := MeanVariance(nil)
	if mean != 0 || variance != 0 {
		t.Errorf("MeanVariance(nil) = %v, %v, want 0, 0", mean, variance)
	}
}

func TestClipDuration(t *testing.T) {
	t.Parallel()
	// 16 kHz mono: 32000 bytes per second.
	clip := Clip{
		PCM:    make([]byte, 32000*3),
		Format: Format{SampleRate: 16000, Channels: 1},
	}
	if got := clip.Duration(); got != 3*time.Second {
		t.Errorf("Duration = %v, want 3s", got)
	}
}

func TestClipDuration_ZeroFormat(t *testing.T) {
	t.Parallel()
	clip := Clip{PCM: make([]byte, 1024)}
	if got := clip.Duration(); got != 0 {
		t.Errorf("Duration with zero format = %v, want 0", got)
	}
}
