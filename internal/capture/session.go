// Package capture implements the recording session: the state machine that
// owns the microphone from "start" to a finalized recording.
//
// A [Session] moves through idle → recording → finalizing → idle. Start and
// Stop are idempotent — starting while recording and stopping while idle are
// no-ops — and the microphone handle is released on every exit path,
// including abandonment and device failure. There is exactly one Session per
// application, which is what enforces the single-microphone invariant at the
// process level.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/heardiary/heardiary/pkg/audio"
)

// State is the capture session lifecycle state.
type State int

const (
	// StateIdle means no capture is in progress.
	StateIdle State = iota

	// StateRecording means the microphone is open and frames are accumulating.
	StateRecording

	// StateFinalizing means the device has been stopped and the buffered
	// frames are being concatenated into one payload.
	StateFinalizing
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// defaultLevelCapacity is the size of the amplitude ring buffer: one RMS
// sample per frame, enough history for the classifier heuristic without
// unbounded growth on long recordings.
const defaultLevelCapacity = 512

// Recording is the finalized product of one capture session.
type Recording struct {
	// PCM is the concatenation of all captured frames, in delivery order.
	PCM []byte

	// Format describes the PCM layout.
	Format audio.Format

	// Duration is the wall-clock elapsed time between start and stop.
	Duration time.Duration

	// Levels are the per-frame RMS amplitudes, oldest first, bounded by the
	// ring buffer capacity.
	Levels []float64

	// EndedAt is the wall-clock time the recording was stopped. The entry's
	// dayKey and display name derive from it.
	EndedAt time.Time
}

// Session is the capture state machine. All methods are safe for concurrent
// use.
type Session struct {
	device audio.InputDevice
	format audio.Format

	mu         sync.Mutex
	state      State
	stream     audio.InputStream
	chunks     [][]byte
	levels     *levelRing
	startedAt  time.Time
	readerDone chan struct{}
}

// SessionOption configures a [Session].
type SessionOption func(*Session)

// WithLevelCapacity sets the amplitude ring buffer size.
func WithLevelCapacity(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.levels = newLevelRing(n)
		}
	}
}

// NewSession creates an idle [Session] that captures from device in the given
// format.
func NewSession(device audio.InputDevice, format audio.Format, opts ...SessionOption) *Session {
	s := &Session{
		device: device,
		format: format,
		levels: newLevelRing(defaultLevelCapacity),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed returns the wall-clock time since recording started, or zero when
// no recording is in progress. Driving the elapsed display off wall-clock
// deltas rather than a tick counter keeps it accurate under UI stalls.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return 0
	}
	return time.Since(s.startedAt)
}

// Start opens the microphone and begins accumulating frames. Starting while a
// recording or finalization is already in progress is a no-op — it must never
// open a second concurrent capture device. A device acquisition failure
// leaves the session idle and is returned to the caller; no half-open handle
// remains (the [audio.InputDevice] contract).
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return nil
	}

	stream, err := s.device.Open(ctx, s.format)
	if err != nil {
		return fmt.Errorf("capture: open microphone: %w", err)
	}

	s.state = StateRecording
	s.stream = stream
	s.chunks = nil
	s.levels.reset()
	s.startedAt = time.Now()
	s.readerDone = make(chan struct{})
	go s.read(stream, s.readerDone)
	return nil
}

// read accumulates frames in delivery order until the stream's channel
// closes. It also feeds the amplitude ring buffer consumed by the classifier
// heuristic.
func (s *Session) read(stream audio.InputStream, done chan<- struct{}) {
	defer close(done)
	for frame := range stream.Frames() {
		if len(frame.Data) == 0 {
			continue
		}
		rms := audio.RMS(frame.Data)
		s.mu.Lock()
		if s.stream != stream {
			// The session was discarded mid-drain; drop stale frames.
			s.mu.Unlock()
			continue
		}
		s.chunks = append(s.chunks, frame.Data)
		s.levels.push(rms)
		s.mu.Unlock()
	}
}

// Stop ends the recording and finalizes the buffered frames into a
// [Recording]. Stopping while idle or finalizing is a no-op returning
// (nil, nil). The microphone is released before finalization begins, so the
// device is free even if the caller discards the result.
func (s *Session) Stop(ctx context.Context) (*Recording, error) {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return nil, nil
	}
	s.state = StateFinalizing
	stream := s.stream
	readerDone := s.readerDone
	s.mu.Unlock()

	if err := stream.Close(); err != nil {
		// The adapter contract releases the device even when Close errors;
		// the buffered frames are still good, so finalize anyway.
		slog.Warn("capture: closing microphone stream", "err", err)
	}

	// Wait for the reader to drain frames captured before the close, so the
	// payload is complete and FIFO-ordered.
	select {
	case <-readerDone:
	case <-ctx.Done():
		s.discard()
		return nil, fmt.Errorf("capture: finalize: %w", ctx.Err())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var total int
	for _, c := range s.chunks {
		total += len(c)
	}
	pcm := make([]byte, 0, total)
	for _, c := range s.chunks {
		pcm = append(pcm, c...)
	}

	rec := &Recording{
		PCM:      pcm,
		Format:   s.format,
		Duration: time.Since(s.startedAt),
		Levels:   s.levels.snapshot(),
		EndedAt:  time.Now(),
	}
	s.resetLocked()
	return rec, nil
}

// Abandon stops any in-progress recording and discards the buffered frames
// without producing a Recording. Used when the user navigates away from the
// record view mid-capture. Abandoning an idle session is a no-op.
func (s *Session) Abandon() {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return
	}
	s.state = StateFinalizing
	stream := s.stream
	readerDone := s.readerDone
	s.mu.Unlock()

	if err := stream.Close(); err != nil {
		slog.Warn("capture: closing microphone stream", "err", err)
	}
	<-readerDone
	s.discard()
}

// discard drops the buffered state and returns the session to idle.
func (s *Session) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// resetLocked clears per-recording state. Callers must hold the lock.
func (s *Session) resetLocked() {
	s.state = StateIdle
	s.stream = nil
	s.chunks = nil
	s.levels.reset()
	s.readerDone = nil
}
