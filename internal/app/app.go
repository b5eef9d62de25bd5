// Package app wires all HearDiary subsystems into a running daemon.
//
// The App struct owns the full lifecycle: New creates and connects the keyed
// store, the capture session, the classifier, and the soundprint player, and
// Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithStore, WithClassifier, WithInputDevice, etc.). When an option is not
// provided, New creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/heardiary/heardiary/internal/capture"
	"github.com/heardiary/heardiary/internal/classify"
	"github.com/heardiary/heardiary/internal/codec"
	"github.com/heardiary/heardiary/internal/config"
	"github.com/heardiary/heardiary/internal/entry"
	"github.com/heardiary/heardiary/internal/export"
	"github.com/heardiary/heardiary/internal/health"
	"github.com/heardiary/heardiary/internal/kv"
	"github.com/heardiary/heardiary/internal/observe"
	"github.com/heardiary/heardiary/internal/soundprint"
	"github.com/heardiary/heardiary/pkg/audio"
	"github.com/heardiary/heardiary/pkg/audio/portaudio"
)

// RecordStatus is the live state of the capture session, shaped for the
// record view.
type RecordStatus struct {
	// State is "idle", "recording", or "finalizing".
	State string `json:"state"`

	// ElapsedSeconds is the wall-clock time since recording started, zero
	// when idle.
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

// App owns all subsystem lifetimes for the HearDiary daemon.
type App struct {
	cfg     *config.Config
	metrics *observe.Metrics

	db         *kv.Store
	store      *entry.Store
	device     audio.InputDevice
	sink       audio.Sink
	classifier classify.Classifier

	// source labels classifier metrics: "remote", "local", or "custom" for
	// injected test doubles.
	source string

	session *capture.Session
	player  *soundprint.Player

	// recordMu serialises the record operations so the capture metrics stay
	// consistent with the single session's transitions.
	recordMu sync.Mutex

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects an entry store instead of opening one from config.
func WithStore(s *entry.Store) Option {
	return func(a *App) { a.store = s }
}

// WithClassifier injects a classifier instead of selecting one from config.
func WithClassifier(c classify.Classifier) Option {
	return func(a *App) { a.classifier = c }
}

// WithInputDevice injects a capture device instead of opening the microphone.
func WithInputDevice(d audio.InputDevice) Option {
	return func(a *App) { a.device = d }
}

// WithSink injects a playback sink instead of opening the speaker.
func WithSink(s audio.Sink) Option {
	return func(a *App) { a.sink = s }
}

// WithMetrics injects a metrics set instead of building one from the global
// meter provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. Use Option functions
// to inject test doubles for any subsystem; anything not injected is created
// from cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if a.metrics == nil {
		m, err := observe.NewMetrics(otel.GetMeterProvider())
		if err != nil {
			return nil, fmt.Errorf("app: init metrics: %w", err)
		}
		a.metrics = m
	}

	if err := a.initStore(); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}
	if err := a.initAudio(); err != nil {
		return nil, fmt.Errorf("app: init audio: %w", err)
	}
	a.initClassifier()

	a.session = capture.NewSession(a.device, audio.Format{
		SampleRate: cfg.Capture.SampleRate,
		Channels:   cfg.Capture.Channels,
	})
	a.player = soundprint.NewPlayer(a.store, a.sink,
		soundprint.WithOnFinish(func(_ string, played time.Duration) {
			a.metrics.PlaybackDuration.Record(context.Background(), played.Seconds())
		}),
	)

	return a, nil
}

// initStore opens the keyed store and loads the entry collection, unless a
// store was injected.
func (a *App) initStore() error {
	if a.store != nil {
		return nil
	}

	db, err := kv.Open(kv.Options{
		Dir:      filepath.Join(a.cfg.Storage.Dir, "db"),
		InMemory: a.cfg.Storage.InMemory,
	})
	if err != nil {
		return err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	a.store = entry.Open(db)
	return nil
}

// initAudio opens the real microphone and speaker unless test doubles were
// injected. A single portaudio device serves both directions.
func (a *App) initAudio() error {
	if a.device != nil && a.sink != nil {
		return nil
	}

	dev, err := portaudio.New()
	if err != nil {
		return err
	}
	a.closers = append(a.closers, dev.Close)

	if a.device == nil {
		a.device = dev
	}
	if a.sink == nil {
		a.sink = dev
	}
	return nil
}

// initClassifier selects the classifier from config: a remote endpoint when
// one is configured, the local amplitude heuristic otherwise.
func (a *App) initClassifier() {
	if a.classifier != nil {
		a.source = "custom"
		return
	}

	if ep := a.cfg.Classifier.Endpoint; ep != "" {
		remote, err := classify.NewRemote(ep,
			classify.WithAPIKey(a.cfg.Classifier.APIKey),
			classify.WithTimeout(time.Duration(a.cfg.Classifier.TimeoutSeconds)*time.Second),
		)
		if err == nil {
			a.classifier = remote
			a.source = "remote"
			return
		}
		// Validate catches malformed endpoints before we get here; fall
		// through to the local heuristic just in case.
	}

	a.classifier = classify.NewLocal()
	a.source = "local"
}

// ─── Record operations ───────────────────────────────────────────────────────

// StartRecording opens the microphone and begins a capture session. Starting
// while already recording is a no-op.
func (a *App) StartRecording(ctx context.Context) error {
	a.recordMu.Lock()
	defer a.recordMu.Unlock()

	if a.session.State() != capture.StateIdle {
		return nil
	}
	if err := a.session.Start(ctx); err != nil {
		return err
	}
	a.metrics.CaptureActive.Add(ctx, 1)
	return nil
}

// StopRecording finalizes the in-progress capture into a persisted diary
// entry and returns it. displayName overrides the generated name when
// non-empty. Stopping while idle returns (nil, nil).
//
// Classification is awaited before the entry is created, bounded by the
// configured timeout; a classifier that cannot answer in time contributes the
// fallback triple rather than delaying or failing the save.
func (a *App) StopRecording(ctx context.Context, displayName string) (*entry.Entry, error) {
	a.recordMu.Lock()
	defer a.recordMu.Unlock()

	if a.session.State() != capture.StateRecording {
		return nil, nil
	}

	rec, err := a.session.Stop(ctx)
	a.metrics.CaptureActive.Add(ctx, -1)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	a.metrics.CaptureDuration.Record(ctx, rec.Duration.Seconds())

	payload := codec.EncodePayload(rec.PCM, rec.Format)

	timeout := time.Duration(a.cfg.Classifier.TimeoutSeconds) * time.Second
	cctx, cancel := context.WithTimeout(ctx, timeout)
	res := a.classifier.Classify(cctx, payload, rec.Levels)
	cancel()

	status := "ok"
	if res == classify.Fallback() {
		status = "fallback"
	}
	a.metrics.ClassifierRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", a.source),
		attribute.String("status", status),
	))

	if displayName == "" {
		displayName = entry.AutoName(rec.EndedAt)
	}

	e := entry.Entry{
		ID:            entry.NewID(),
		DisplayName:   displayName,
		AudioData:     payload,
		DurationLabel: entry.FormatDuration(rec.Duration),
		DayKey:        entry.DayKeyFor(rec.EndedAt),
		Tag:           res.Tag,
		Emotion:       res.Emotion,
		Score:         res.Score,
	}

	if err := a.store.Append(e); err != nil {
		a.metrics.StoreErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("op", "append")))
		return nil, err
	}
	a.metrics.EntriesPersisted.Add(ctx, 1)
	return &e, nil
}

// AbandonRecording discards any in-progress capture without creating an
// entry. Used when the user navigates away from the record view.
func (a *App) AbandonRecording(ctx context.Context) {
	a.recordMu.Lock()
	defer a.recordMu.Unlock()

	if a.session.State() != capture.StateRecording {
		return
	}
	a.session.Abandon()
	a.metrics.CaptureActive.Add(ctx, -1)
}

// Recording reports the live capture state.
func (a *App) Recording() RecordStatus {
	return RecordStatus{
		State:          a.session.State().String(),
		ElapsedSeconds: a.session.Elapsed().Seconds(),
	}
}

// ─── Diary operations ────────────────────────────────────────────────────────

// Store returns the entry store.
func (a *App) Store() *entry.Store {
	return a.store
}

// DeleteEntry removes the entry with the given id. An absent id is a no-op.
func (a *App) DeleteEntry(ctx context.Context, id string) error {
	_, existed := a.store.Get(id)
	if err := a.store.Remove(id); err != nil {
		a.metrics.StoreErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("op", "remove")))
		return err
	}
	if existed {
		a.metrics.EntriesDeleted.Add(ctx, 1)
	}
	return nil
}

// UpdateNote replaces the note of the entry with the given id.
func (a *App) UpdateNote(ctx context.Context, id, note string) error {
	if err := a.store.UpdateNote(id, note); err != nil {
		a.metrics.StoreErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("op", "update_note")))
		return err
	}
	return nil
}

// ExportEntry writes the entry's audio to the configured export directory as
// a standalone WAV file, byte-identical to the stored payload, and returns
// the written path.
func (a *App) ExportEntry(id string) (string, error) {
	e, ok := a.store.Get(id)
	if !ok {
		return "", fmt.Errorf("app: export: no entry %q", id)
	}
	return export.WriteEntry(a.cfg.Export.Dir, e)
}

// ─── Soundprint operations ───────────────────────────────────────────────────

// PlaySoundprint starts playing the day's entries in order. Playing while a
// soundprint is in progress restarts from the requested day.
func (a *App) PlaySoundprint(dayKey string) {
	a.player.Play(dayKey)
}

// StopSoundprint halts playback. Stopping an idle player is a no-op.
func (a *App) StopSoundprint() {
	a.player.Stop()
}

// Soundprint reports the current playback state.
func (a *App) Soundprint() soundprint.Status {
	return a.player.Status()
}

// ─── Health ──────────────────────────────────────────────────────────────────

// HealthCheckers returns the readiness checks for the daemon's dependencies.
func (a *App) HealthCheckers() []health.Checker {
	return []health.Checker{
		{Name: "store", Check: func(context.Context) error {
			if a.db == nil {
				return nil // injected store, nothing to probe
			}
			if _, err := a.db.Get("entries"); err != nil && !errors.Is(err, kv.ErrNotFound) {
				return err
			}
			return nil
		}},
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown stops playback, abandons any in-progress capture, and tears down
// all subsystems in init order. It respects the context deadline: if ctx
// expires before all closers finish, remaining closers are skipped and the
// context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.player.Stop()
		a.AbandonRecording(ctx)

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil && shutdownErr == nil {
				shutdownErr = fmt.Errorf("app: closer %d: %w", i, err)
			}
		}
	})
	return shutdownErr
}
