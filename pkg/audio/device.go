package audio

import "context"

// InputDevice is the entry point for a microphone adapter.
//
// Implementations must be safe for concurrent use, but note that HearDiary
// never holds two streams open at once — the capture session enforces
// exclusive ownership of the microphone.
type InputDevice interface {
	// Open acquires the capture device and starts delivering frames in the
	// requested format. The supplied ctx governs the lifetime of the open
	// attempt only; once open, the stream remains live until
	// [InputStream.Close] is called.
	//
	// Open returns [ErrPermissionDenied] or [ErrDeviceUnavailable] (possibly
	// wrapped) when the device cannot be acquired. On error no device handle
	// may be left open.
	Open(ctx context.Context, format Format) (InputStream, error)
}

// InputStream is a live microphone capture.
type InputStream interface {
	// Frames returns the channel delivering captured frames in FIFO order.
	// The channel is closed when the stream is closed or the device fails.
	Frames() <-chan Frame

	// Close stops capture and releases the device. It is safe to call Close
	// more than once; subsequent calls are no-ops and return nil. After Close
	// returns, the Frames channel is closed (possibly after draining frames
	// already captured).
	Close() error
}

// Sink plays finalized clips through the speaker.
//
// Play blocks until the clip has played to its natural end, or until ctx is
// cancelled, in which case playback halts immediately and ctx.Err() is
// returned. Implementations must release the playback handle on every return
// path. Only one Play call is in flight at a time; the soundprint player
// enforces this.
type Sink interface {
	Play(ctx context.Context, clip Clip) error
}
