// Package audio defines the interfaces and types for microphone capture and
// speaker playback within HearDiary.
//
// The two primary abstractions are:
//
//   - [InputDevice] — opens the microphone and returns an [InputStream] that
//     delivers raw PCM frames until closed.
//   - [Sink] — plays one finalized [Clip] at a time, blocking until the clip's
//     natural end or until the caller's context is cancelled.
//
// Real implementations live in platform-specific adapter packages
// (e.g. audio/portaudio); audio/mock provides in-memory test doubles.
//
// This package lives under pkg/ because alternative device adapters are
// expected to implement [InputDevice] and [Sink].
package audio

import (
	"errors"
	"time"
)

// Sentinel errors reported by [InputDevice.Open]. Adapters must map their
// platform-specific failures onto these so that callers can present a
// meaningful message without knowing the adapter.
var (
	// ErrPermissionDenied indicates the platform refused microphone access.
	ErrPermissionDenied = errors.New("audio: microphone permission denied")

	// ErrDeviceUnavailable indicates no usable capture device is present or
	// the device is held by another process.
	ErrDeviceUnavailable = errors.New("audio: capture device unavailable")
)

// Format describes the sample rate and channel count of a PCM stream.
// Samples are always little-endian signed 16-bit.
type Format struct {
	// SampleRate in Hz (e.g. 16000).
	SampleRate int

	// Channels: 1 for mono, 2 for stereo.
	Channels int
}

// BytesPerSecond returns the PCM byte rate of the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * 2
}

// Frame is a single chunk of captured audio flowing from an [InputStream].
// Frames are the atomic unit of capture — they are accumulated in delivery
// order and concatenated at finalize time.
type Frame struct {
	// Data is raw int16 PCM. Length is always a multiple of two bytes.
	Data []byte

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Clip is a finalized, self-contained piece of audio handed to a [Sink].
type Clip struct {
	// PCM is raw int16 little-endian audio data.
	PCM []byte

	// Format describes the PCM layout.
	Format Format
}

// Duration returns the playing time of the clip.
func (c Clip) Duration() time.Duration {
	bps := c.Format.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(len(c.PCM)) * time.Second / time.Duration(bps)
}
