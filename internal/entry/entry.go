// Package entry defines the persisted diary entry and the store that owns the
// ordered entry collection.
//
// An Entry is created only when a capture session finalizes successfully and
// is immutable afterwards except for its note. The collection is grouped by
// dayKey for the diary view and for soundprint playback.
package entry

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one persisted voice-note record. The JSON form is the on-disk
// representation; the optional classification triple is stored flattened
// alongside the note.
type Entry struct {
	// ID is the opaque unique identifier assigned at creation time.
	ID string `json:"id"`

	// DisplayName is the user-supplied or auto-generated label.
	DisplayName string `json:"displayName"`

	// AudioData is the finalized recording as a base64 WAVE payload.
	// Always non-empty for a persisted entry.
	AudioData string `json:"audioData"`

	// DurationLabel is the elapsed recording time formatted as MM:SS.
	DurationLabel string `json:"durationLabel"`

	// DayKey is the YYYY-MM-DD partition key, computed at finalize time.
	DayKey string `json:"dayKey"`

	// Note is the user's free-text annotation. The only mutable field.
	Note string `json:"note,omitempty"`

	// Tag, Emotion, and Score form the optional classification attached at
	// finalize time. Score is in [0, 1]; zero is the fallback value and is a
	// legitimate score, so it is never elided from the serialized form.
	Tag     string  `json:"tag,omitempty"`
	Emotion string  `json:"emotion,omitempty"`
	Score   float64 `json:"score"`
}

// NewID returns a fresh opaque entry identifier.
func NewID() string {
	return uuid.NewString()
}

// DayKeyFor returns the YYYY-MM-DD partition key for t in local time.
func DayKeyFor(t time.Time) string {
	return t.Format("2006-01-02")
}

// AutoName returns the generated display name for an unnamed recording
// finalized at t.
func AutoName(t time.Time) string {
	return "Recording " + t.Format(time.DateTime)
}

// FormatDuration renders an elapsed recording time as MM:SS, rounded to the
// nearest second. Durations of an hour or more keep counting minutes.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
