package capture

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heardiary/heardiary/pkg/audio"
	"github.com/heardiary/heardiary/pkg/audio/mock"
)

var testFormat = audio.Format{SampleRate: 16000, Channels: 1}

func TestSession_StartStop(t *testing.T) {
	t.Parallel()
	stream := mock.NewInputStream()
	device := &mock.InputDevice{OpenResult: stream}
	s := NewSession(device, testFormat)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := s.State(); got != StateRecording {
		t.Fatalf("state = %v, want recording", got)
	}

	stream.Push([]byte{1, 2})
	stream.Push([]byte{3, 4})
	stream.Push([]byte{5, 6})

	rec, err := s.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec == nil {
		t.Fatal("Stop returned nil recording for an active session")
	}

	// Chunks concatenate in delivery order.
	if !bytes.Equal(rec.PCM, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("PCM = %v, want delivery-order concatenation", rec.PCM)
	}
	if rec.Format != testFormat {
		t.Errorf("format = %+v, want %+v", rec.Format, testFormat)
	}
	if len(rec.Levels) != 3 {
		t.Errorf("levels = %d samples, want 3", len(rec.Levels))
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("state after stop = %v, want idle", got)
	}
	if stream.CallCountClose == 0 {
		t.Error("microphone stream was not closed")
	}
}

func TestSession_StartWhileRecording_NoSecondDevice(t *testing.T) {
	t.Parallel()
	stream := mock.NewInputStream()
	device := &mock.InputDevice{OpenResult: stream}
	s := NewSession(device, testFormat)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v, want no-op nil", err)
	}
	if device.CallCountOpen != 1 {
		t.Errorf("device opened %d times, want 1", device.CallCountOpen)
	}
	s.Abandon()
}

func TestSession_StopWhileIdle_NoOp(t *testing.T) {
	t.Parallel()
	s := NewSession(&mock.InputDevice{}, testFormat)

	rec, err := s.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop while idle: %v", err)
	}
	if rec != nil {
		t.Errorf("Stop while idle returned %+v, want nil", rec)
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("state = %v, want idle", got)
	}
}

func TestSession_OpenFailure_StaysIdle(t *testing.T) {
	t.Parallel()
	device := &mock.InputDevice{OpenError: audio.ErrPermissionDenied}
	s := NewSession(device, testFormat)

	err := s.Start(context.Background())
	if !errors.Is(err, audio.ErrPermissionDenied) {
		t.Fatalf("Start err = %v, want ErrPermissionDenied", err)
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("state after failed start = %v, want idle", got)
	}

	// The session recovers: a later start with a working device succeeds.
	device.OpenError = nil
	device.OpenResult = mock.NewInputStream()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start after recovery: %v", err)
	}
	s.Abandon()
}

func TestSession_Elapsed(t *testing.T) {
	t.Parallel()
	stream := mock.NewInputStream()
	s := NewSession(&mock.InputDevice{OpenResult: stream}, testFormat)

	if got := s.Elapsed(); got != 0 {
		t.Errorf("idle elapsed = %v, want 0", got)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if got := s.Elapsed(); got < 25*time.Millisecond {
		t.Errorf("elapsed = %v, want wall-clock time since start", got)
	}
	s.Abandon()
	if got := s.Elapsed(); got != 0 {
		t.Errorf("elapsed after abandon = %v, want 0", got)
	}
}

func TestSession_Duration(t *testing.T) {
	stream := mock.NewInputStream()
	s := NewSession(&mock.InputDevice{OpenResult: stream}, testFormat)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stream.Push(make([]byte, 640))
	time.Sleep(120 * time.Millisecond)

	rec, err := s.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec.Duration < 100*time.Millisecond || rec.Duration > time.Second {
		t.Errorf("duration = %v, want roughly the recorded wall-clock span", rec.Duration)
	}
	if rec.EndedAt.IsZero() {
		t.Error("EndedAt not set")
	}
}

func TestSession_Abandon_ReleasesDevice(t *testing.T) {
	t.Parallel()
	stream := mock.NewInputStream()
	device := &mock.InputDevice{OpenResult: stream}
	s := NewSession(device, testFormat)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stream.Push([]byte{1, 2})
	s.Abandon()

	if stream.CallCountClose == 0 {
		t.Error("abandon did not close the microphone stream")
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("state after abandon = %v, want idle", got)
	}

	// Abandoning again is a no-op.
	s.Abandon()
}

func TestSession_DeviceEndsStream(t *testing.T) {
	t.Parallel()
	stream := mock.NewInputStream()
	s := NewSession(&mock.InputDevice{OpenResult: stream}, testFormat)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stream.Push([]byte{9, 9})
	// Device ends the stream on its own (e.g. unplugged).
	stream.Finish()

	rec, err := s.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop after device finish: %v", err)
	}
	if !bytes.Equal(rec.PCM, []byte{9, 9}) {
		t.Errorf("PCM = %v, want frames captured before the device ended", rec.PCM)
	}
}

func TestSession_Restartable(t *testing.T) {
	t.Parallel()
	first := mock.NewInputStream()
	device := &mock.InputDevice{OpenResult: first}
	s := NewSession(device, testFormat)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first.Push([]byte{1, 1})
	if _, err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	second := mock.NewInputStream()
	device.OpenResult = second
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	second.Push([]byte{2, 2})

	rec, err := s.Stop(context.Background())
	if err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	// No bleed-through from the first recording.
	if !bytes.Equal(rec.PCM, []byte{2, 2}) {
		t.Errorf("PCM = %v, want only the second recording's frames", rec.PCM)
	}
	if len(rec.Levels) != 1 {
		t.Errorf("levels = %d, want 1", len(rec.Levels))
	}
}
