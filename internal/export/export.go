// Package export writes diary entries out as standalone WAV files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/heardiary/heardiary/internal/codec"
	"github.com/heardiary/heardiary/internal/entry"
)

// Filename returns the export file name for an entry:
// its display name, scrubbed of path-hostile characters, plus ".wav".
func Filename(e entry.Entry) string {
	name := sanitize(e.DisplayName)
	if name == "" {
		name = e.ID
	}
	return name + ".wav"
}

// WriteEntry writes e's decoded audio payload into dir under [Filename].
// The written bytes are identical to the originally captured encoding.
// It returns the full path of the written file.
func WriteEntry(dir string, e entry.Entry) (string, error) {
	wav, err := codec.PayloadBytes(e.AudioData)
	if err != nil {
		return "", fmt.Errorf("export: entry %s: %w", e.ID, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create directory: %w", err)
	}

	path := filepath.Join(dir, Filename(e))
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	return path, nil
}

// sanitize strips characters that are path separators or otherwise unsafe in
// file names on common platforms.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|' || r < 0x20:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
