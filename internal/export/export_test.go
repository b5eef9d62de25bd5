package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/heardiary/heardiary/internal/codec"
	"github.com/heardiary/heardiary/internal/entry"
	"github.com/heardiary/heardiary/pkg/audio"
)

func TestWriteEntry_ByteIdentical(t *testing.T) {
	t.Parallel()
	pcm := []byte{1, 2, 3, 4}
	format := audio.Format{SampleRate: 16000, Channels: 1}
	wav := codec.EncodeWAV(pcm, format)

	e := entry.Entry{
		ID:          "e1",
		DisplayName: "Recording 2026-08-30 09:00:00",
		AudioData:   codec.EncodePayload(pcm, format),
	}

	dir := t.TempDir()
	path, err := WriteEntry(dir, e)
	if err != nil {
		t.Fatalf("WriteEntry: %v", err)
	}
	if filepath.Base(path) != "Recording 2026-08-30 09_00_00.wav" {
		t.Errorf("file name = %q", filepath.Base(path))
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, wav) {
		t.Error("exported bytes differ from the captured encoding")
	}
}

func TestWriteEntry_CorruptPayload(t *testing.T) {
	t.Parallel()
	e := entry.Entry{ID: "bad", DisplayName: "x", AudioData: "%%%"}
	if _, err := WriteEntry(t.TempDir(), e); err == nil {
		t.Error("expected error for corrupt payload")
	}
}

func TestFilename(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		e    entry.Entry
		want string
	}{
		{"plain", entry.Entry{DisplayName: "morning walk"}, "morning walk.wav"},
		{"separators", entry.Entry{DisplayName: "a/b\\c"}, "a_b_c.wav"},
		{"empty falls back to id", entry.Entry{ID: "abc-123"}, "abc-123.wav"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Filename(tc.e); got != tc.want {
				t.Errorf("Filename = %q, want %q", got, tc.want)
			}
		})
	}
}
