// Package portaudio implements the [audio.InputDevice] and [audio.Sink]
// interfaces on top of PortAudio, giving HearDiary access to the default
// system microphone and speaker.
//
// The package wraps the cgo bindings from github.com/gordonklaus/portaudio.
// Create one [Device] per process with [New]; it owns the PortAudio runtime
// and must be released with [Device.Close].
package portaudio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/heardiary/heardiary/pkg/audio"
)

// framesPerBuffer is the number of sample frames read or written per PortAudio
// call. 1024 frames at 16 kHz is a 64 ms buffer — small enough for a live
// level meter, large enough to avoid overruns on slow hosts.
const framesPerBuffer = 1024

// Compile-time interface assertions.
var (
	_ audio.InputDevice = (*Device)(nil)
	_ audio.Sink        = (*Device)(nil)
)

// Device is the PortAudio-backed adapter for both capture and playback.
// It enforces the single-microphone invariant: a second Open while a stream
// is live fails with [audio.ErrDeviceUnavailable].
type Device struct {
	mu     sync.Mutex
	inUse  bool
	closed bool
}

// New initialises the PortAudio runtime and returns a ready [Device].
func New() (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	return &Device{}, nil
}

// Close terminates the PortAudio runtime. The Device must not be used after
// Close returns.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("portaudio: terminate: %w", err)
	}
	return nil
}

// Open implements [audio.InputDevice]. It acquires the default capture device
// and starts a background read loop delivering frames until the stream is
// closed.
//
// PortAudio does not distinguish a denied microphone permission from a missing
// device on all hosts; both surface here as [audio.ErrDeviceUnavailable].
func (d *Device) Open(_ context.Context, format audio.Format) (audio.InputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("portaudio: device closed: %w", audio.ErrDeviceUnavailable)
	}
	if d.inUse {
		return nil, fmt.Errorf("portaudio: capture already active: %w", audio.ErrDeviceUnavailable)
	}

	buf := make([]int16, framesPerBuffer*format.Channels)
	st, err := portaudio.OpenDefaultStream(format.Channels, 0, float64(format.SampleRate), framesPerBuffer, buf)
	if err != nil {
		return nil, fmt.Errorf("portaudio: open capture stream: %v: %w", err, audio.ErrDeviceUnavailable)
	}
	if err := st.Start(); err != nil {
		st.Close()
		return nil, fmt.Errorf("portaudio: start capture stream: %v: %w", err, audio.ErrDeviceUnavailable)
	}

	s := &inputStream{
		device:   d,
		st:       st,
		buf:      buf,
		frames:   make(chan audio.Frame, 32),
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
		start:    time.Now(),
	}
	d.inUse = true
	go s.loop()
	return s, nil
}

// release clears the in-use flag after a stream is fully closed.
func (d *Device) release() {
	d.mu.Lock()
	d.inUse = false
	d.mu.Unlock()
}

// inputStream is a live PortAudio capture stream.
type inputStream struct {
	device   *Device
	st       *portaudio.Stream
	buf      []int16
	frames   chan audio.Frame
	stop     chan struct{}
	loopDone chan struct{}
	start    time.Time

	closeOnce sync.Once
	closeErr  error
}

// loop reads from the device until stopped, converting each buffer to a Frame.
// A frame is dropped rather than blocking when the consumer falls behind.
func (s *inputStream) loop() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		if err := s.st.Read(); err != nil {
			// Device failure mid-capture: end the stream; Close still
			// releases the handle.
			return
		}
		frame := audio.Frame{
			Data:      int16ToBytes(s.buf),
			Timestamp: time.Since(s.start),
		}
		select {
		case s.frames <- frame:
		case <-s.stop:
			return
		default:
		}
	}
}

// Frames implements [audio.InputStream].
func (s *inputStream) Frames() <-chan audio.Frame {
	return s.frames
}

// Close implements [audio.InputStream]. It stops the read loop, stops and
// closes the PortAudio stream, and releases the device for the next session.
func (s *inputStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.loopDone
		if err := s.st.Stop(); err != nil {
			s.closeErr = fmt.Errorf("portaudio: stop capture stream: %w", err)
		}
		if err := s.st.Close(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("portaudio: close capture stream: %w", err)
		}
		close(s.frames)
		s.device.release()
	})
	return s.closeErr
}

// Play implements [audio.Sink]. It opens the default output device, writes the
// clip in buffer-sized chunks, and blocks until the clip ends or ctx is
// cancelled. The output stream is closed on every return path.
func (d *Device) Play(ctx context.Context, clip audio.Clip) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("portaudio: device closed: %w", audio.ErrDeviceUnavailable)
	}
	d.mu.Unlock()

	buf := make([]int16, framesPerBuffer*clip.Format.Channels)
	st, err := portaudio.OpenDefaultStream(0, clip.Format.Channels, float64(clip.Format.SampleRate), framesPerBuffer, buf)
	if err != nil {
		return fmt.Errorf("portaudio: open playback stream: %w", err)
	}
	defer st.Close()

	if err := st.Start(); err != nil {
		return fmt.Errorf("portaudio: start playback stream: %w", err)
	}
	defer st.Stop()

	samples := bytesToInt16(clip.PCM)
	for off := 0; off < len(samples); off += len(buf) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(buf, samples[off:])
		// Zero-pad the final partial buffer so stale samples are not replayed.
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		if err := st.Write(); err != nil {
			return fmt.Errorf("portaudio: write playback stream: %w", err)
		}
	}
	return nil
}

// int16ToBytes copies a sample buffer into a fresh little-endian byte slice.
func int16ToBytes(samples []int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// bytesToInt16 converts little-endian PCM bytes to samples, ignoring a
// trailing odd byte.
func bytesToInt16(pcm []byte) []int16 {
	n := len(pcm) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	return out
}
