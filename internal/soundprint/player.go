// Package soundprint implements sequential playback of a day's diary entries.
//
// A soundprint is the gapless, in-order replay of every entry recorded on one
// calendar day. The [Player] chains tracks by awaiting each clip's natural
// end before starting the next; cancellation detaches the pending
// continuation, so a track that finishes after Stop can never spuriously
// start its successor.
package soundprint

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/heardiary/heardiary/internal/codec"
	"github.com/heardiary/heardiary/internal/entry"
	"github.com/heardiary/heardiary/pkg/audio"
)

// EntrySource resolves the ordered entry list for a day. *entry.Store
// satisfies it.
type EntrySource interface {
	EntriesForDay(dayKey string) []entry.Entry
}

// Status describes what the player is doing right now.
type Status struct {
	// Playing reports whether a soundprint is in progress.
	Playing bool `json:"playing"`

	// DayKey is the day being played, empty when idle.
	DayKey string `json:"dayKey,omitempty"`

	// EntryID identifies the track now playing, empty between tracks and
	// when idle.
	EntryID string `json:"entryId,omitempty"`
}

// Player owns the single "now playing" handle. All methods are safe for
// concurrent use; at most one playback run exists at a time.
type Player struct {
	source   EntrySource
	sink     audio.Sink
	onFinish func(dayKey string, played time.Duration)

	// startMu serialises Play/Stop so that two racing Play calls can never
	// leave two playback runs alive.
	startMu sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	dayKey  string
	current string
}

// PlayerOption configures a [Player].
type PlayerOption func(*Player)

// WithOnFinish registers a callback invoked when a playback run ends, whether
// it ran to completion or was stopped. It receives the day that was playing
// and the wall-clock time the run lasted.
func WithOnFinish(f func(dayKey string, played time.Duration)) PlayerOption {
	return func(p *Player) { p.onFinish = f }
}

// NewPlayer creates an idle [Player] reading entries from source and playing
// them through sink.
func NewPlayer(source EntrySource, sink audio.Sink, opts ...PlayerOption) *Player {
	p := &Player{source: source, sink: sink}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Play starts the soundprint for dayKey. A day with no entries is a no-op.
// Calling Play while a soundprint is already in progress stops it and
// restarts from the requested day — never two overlapping playback streams.
func (p *Player) Play(dayKey string) {
	p.startMu.Lock()
	defer p.startMu.Unlock()

	entries := p.source.EntriesForDay(dayKey)
	if len(entries) == 0 {
		return
	}

	p.stopCurrent()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.dayKey = dayKey
	p.mu.Unlock()

	go p.run(ctx, entries, done)
}

// run plays each entry to its natural end, in order. It clears the player
// state on every exit path.
func (p *Player) run(ctx context.Context, entries []entry.Entry, done chan struct{}) {
	started := time.Now()
	var dayKey string

	defer func() {
		p.mu.Lock()
		if p.done == done {
			dayKey = p.dayKey
			p.cancel = nil
			p.done = nil
			p.dayKey = ""
			p.current = ""
		}
		p.mu.Unlock()
		close(done)
		if p.onFinish != nil {
			p.onFinish(dayKey, time.Since(started))
		}
	}()

	for _, e := range entries {
		// Checked between tracks: a Stop that lands after one clip ends must
		// prevent the next from ever starting.
		if ctx.Err() != nil {
			return
		}

		pcm, format, err := codec.DecodePayload(e.AudioData)
		if err != nil {
			slog.Warn("soundprint: skipping undecodable entry", "id", e.ID, "err", err)
			continue
		}

		p.mu.Lock()
		p.current = e.ID
		p.mu.Unlock()

		err = p.sink.Play(ctx, audio.Clip{PCM: pcm, Format: format})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Warn("soundprint: playback failed, skipping to next entry", "id", e.ID, "err", err)
		}
	}
}

// Stop halts playback immediately and releases the playback handle. Stopping
// an idle player is a no-op. Stop does not return until the playback
// goroutine has exited.
func (p *Player) Stop() {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	p.stopCurrent()
}

// stopCurrent cancels and awaits the in-flight run, if any. Callers must hold
// startMu.
func (p *Player) stopCurrent() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Status reports the current playback state.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Playing: p.done != nil,
		DayKey:  p.dayKey,
		EntryID: p.current,
	}
}
