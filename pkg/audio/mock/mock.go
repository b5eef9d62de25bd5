// Package mock provides in-memory mock implementations of the
// [audio.InputDevice], [audio.InputStream], and [audio.Sink] interfaces for
// use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so that
// tests can assert on call counts and arguments, and they expose exported
// fields that the test can set to control return values.
//
// Typical usage:
//
//	stream := mock.NewInputStream()
//	device := &mock.InputDevice{OpenResult: stream}
//	// ... start a capture session against device ...
//	stream.Push(make([]byte, 640))
//	stream.Finish()
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/heardiary/heardiary/pkg/audio"
)

// ─── InputDevice ──────────────────────────────────────────────────────────────

// InputDevice is a mock implementation of [audio.InputDevice].
// Set the exported Result fields before use; inspect the Call* fields after.
type InputDevice struct {
	mu sync.Mutex

	// OpenResult is returned by [InputDevice.Open] when OpenError is nil.
	OpenResult *InputStream

	// OpenError is returned by [InputDevice.Open]. Set this to
	// audio.ErrPermissionDenied or audio.ErrDeviceUnavailable to simulate
	// acquisition failures.
	OpenError error

	// CallCountOpen records how many times Open was called.
	CallCountOpen int

	// RecordedFormats holds the formats passed to Open, in call order.
	RecordedFormats []audio.Format
}

// Open implements [audio.InputDevice].
func (d *InputDevice) Open(_ context.Context, format audio.Format) (audio.InputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CallCountOpen++
	d.RecordedFormats = append(d.RecordedFormats, format)
	if d.OpenError != nil {
		return nil, d.OpenError
	}
	return d.OpenResult, nil
}

// ─── InputStream ──────────────────────────────────────────────────────────────

// InputStream is a mock implementation of [audio.InputStream]. Tests feed it
// frames with [InputStream.Push] and end the stream with [InputStream.Finish]
// or by letting the session close it.
type InputStream struct {
	mu sync.Mutex

	// CloseError is returned by the first call to [InputStream.Close].
	CloseError error

	// CallCountClose records how many times Close was called.
	CallCountClose int

	frames chan audio.Frame
	closed bool
	start  time.Time
}

// NewInputStream returns an [InputStream] with a buffered frame channel large
// enough for typical test scenarios.
func NewInputStream() *InputStream {
	return &InputStream{
		frames: make(chan audio.Frame, 64),
		start:  time.Now(),
	}
}

// Push delivers one frame of PCM data to the stream's consumer.
// Push panics if called after Finish or Close, mirroring a real device that
// cannot capture after release.
func (s *InputStream) Push(pcm []byte) {
	s.frames <- audio.Frame{Data: pcm, Timestamp: time.Since(s.start)}
}

// Finish closes the frame channel without counting as a device Close,
// simulating the device ending the stream on its own (e.g. unplugged).
func (s *InputStream) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
}

// Frames implements [audio.InputStream].
func (s *InputStream) Frames() <-chan audio.Frame {
	return s.frames
}

// Close implements [audio.InputStream].
func (s *InputStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountClose++
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.frames)
	return s.CloseError
}

// ─── Sink ─────────────────────────────────────────────────────────────────────

// Sink is a mock implementation of [audio.Sink].
//
// By default Play records the clip and returns immediately. Set PlayFunc to
// take full control (e.g. to block until the test releases it), or BlockUntil
// to have Play wait for a signal or context cancellation — whichever comes
// first — before returning.
type Sink struct {
	mu sync.Mutex

	// PlayError is returned by [Sink.Play] when PlayFunc is nil.
	PlayError error

	// PlayFunc, when non-nil, replaces the default Play behaviour entirely.
	PlayFunc func(ctx context.Context, clip audio.Clip) error

	// BlockUntil, when non-nil and PlayFunc is nil, makes Play wait until the
	// channel is signalled (one receive per Play call) or ctx is cancelled.
	BlockUntil chan struct{}

	// CallCountPlay records how many times Play was called.
	CallCountPlay int

	// Played holds every clip passed to Play, in call order.
	Played []audio.Clip
}

// Play implements [audio.Sink].
func (s *Sink) Play(ctx context.Context, clip audio.Clip) error {
	s.mu.Lock()
	s.CallCountPlay++
	s.Played = append(s.Played, clip)
	fn := s.PlayFunc
	block := s.BlockUntil
	err := s.PlayError
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, clip)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
