package entry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/heardiary/heardiary/internal/kv"
)

// Keys of the two persisted records in the keyed store.
const (
	entriesKey = "entries"
	prefsKey   = "prefs"
)

// Preferences is the user preference record, persisted separately from the
// entry collection.
type Preferences struct {
	// Theme names the UI colour theme.
	Theme string `json:"theme,omitempty"`

	// PIN is the optional lock code. Empty means the diary is not locked.
	PIN string `json:"pin,omitempty"`
}

// Store owns the ordered entry collection. Every mutation is written through
// to the keyed store before it becomes visible, so the in-memory view never
// runs ahead of what a restart would recover.
//
// All methods are safe for concurrent use; mutations are serialized.
type Store struct {
	mu      sync.RWMutex
	kv      *kv.Store
	entries []Entry
}

// Open loads the entry collection from db. A missing record initializes an
// empty collection; a corrupt record is treated as empty with a logged
// warning rather than failing startup.
func Open(db *kv.Store) *Store {
	s := &Store{kv: db}

	raw, err := db.Get(entriesKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		// First run.
	case err != nil:
		slog.Warn("entry store: could not read persisted entries, starting empty", "err", err)
	default:
		if err := json.Unmarshal(raw, &s.entries); err != nil {
			slog.Warn("entry store: persisted entries are corrupt, starting empty", "err", err)
			s.entries = nil
		}
	}
	return s
}

// Append adds e to the end of the collection and persists immediately.
// A persistence failure is returned to the caller and leaves the collection
// unchanged.
func (s *Store) Append(e Entry) error {
	if e.ID == "" {
		return errors.New("entry: append: missing id")
	}
	if e.AudioData == "" {
		return errors.New("entry: append: empty audio payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.entries, func(x Entry) bool { return x.ID == e.ID }) {
		return fmt.Errorf("entry: append: duplicate id %q", e.ID)
	}

	next := append(slices.Clone(s.entries), e)
	return s.commit(next)
}

// Remove deletes the entry with the given id and persists immediately.
// Removing an absent id is a no-op, not an error.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.entries, func(x Entry) bool { return x.ID == id })
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(s.entries), i, i+1)
	return s.commit(next)
}

// UpdateNote replaces the note of the entry with the given id and persists
// immediately. An absent id is a no-op.
func (s *Store) UpdateNote(id, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.entries, func(x Entry) bool { return x.ID == id })
	if i < 0 {
		return nil
	}
	next := slices.Clone(s.entries)
	next[i].Note = note
	return s.commit(next)
}

// commit persists the candidate collection and, on success, makes it the
// in-memory state. Callers must hold the write lock.
func (s *Store) commit(next []Entry) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("entry: encode collection: %w", err)
	}
	if err := s.kv.Set(entriesKey, raw); err != nil {
		return fmt.Errorf("entry: persist collection: %w", err)
	}
	s.entries = next
	return nil
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.entries, func(x Entry) bool { return x.ID == id })
	if i < 0 {
		return Entry{}, false
	}
	return s.entries[i], true
}

// All returns a copy of the collection in insertion order.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// ListByDay groups the collection by dayKey, preserving insertion order
// within each day.
func (s *Store) ListByDay() map[string][]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]Entry)
	for _, e := range s.entries {
		out[e.DayKey] = append(out[e.DayKey], e)
	}
	return out
}

// EntriesForDay returns the ordered entries recorded on dayKey.
func (s *Store) EntriesForDay(dayKey string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if e.DayKey == dayKey {
			out = append(out, e)
		}
	}
	return out
}

// SortedDayKeys returns the distinct day keys in descending order — for
// YYYY-MM-DD keys, lexicographic descending is chronological descending.
func (s *Store) SortedDayKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var keys []string
	for _, e := range s.entries {
		if !seen[e.DayKey] {
			seen[e.DayKey] = true
			keys = append(keys, e.DayKey)
		}
	}
	slices.SortFunc(keys, func(a, b string) int { return strings.Compare(b, a) })
	return keys
}

// Preferences loads the persisted preference record. A missing or corrupt
// record yields zero-value preferences.
func (s *Store) Preferences() Preferences {
	raw, err := s.kv.Get(prefsKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			slog.Warn("entry store: could not read preferences", "err", err)
		}
		return Preferences{}
	}
	var p Preferences
	if err := json.Unmarshal(raw, &p); err != nil {
		slog.Warn("entry store: persisted preferences are corrupt", "err", err)
		return Preferences{}
	}
	return p
}

// SavePreferences persists the preference record.
func (s *Store) SavePreferences(p Preferences) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("entry: encode preferences: %w", err)
	}
	if err := s.kv.Set(prefsKey, raw); err != nil {
		return fmt.Errorf("entry: persist preferences: %w", err)
	}
	return nil
}
