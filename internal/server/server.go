// Package server exposes the three HearDiary views as a localhost HTTP API.
//
// The record, diary, and soundprint views each map to a handful of routes
// under /api/. The server also tracks which view is active: navigating away
// from the soundprint view stops playback, and navigating away from the
// record view while recording abandons the capture and releases the
// microphone. Health and Prometheus metrics endpoints round out the surface.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/heardiary/heardiary/internal/app"
	"github.com/heardiary/heardiary/internal/codec"
	"github.com/heardiary/heardiary/internal/entry"
	"github.com/heardiary/heardiary/internal/export"
	"github.com/heardiary/heardiary/internal/health"
	"github.com/heardiary/heardiary/internal/observe"
	"github.com/heardiary/heardiary/pkg/audio"
)

// The three UI views.
const (
	ViewRecord     = "record"
	ViewDiary      = "diary"
	ViewSoundprint = "soundprint"
)

// shutdownGrace bounds how long in-flight requests may run after the serve
// context is cancelled.
const shutdownGrace = 5 * time.Second

// Server routes API requests to the application. All handlers are safe for
// concurrent use.
type Server struct {
	app     *app.App
	handler http.Handler

	mu   sync.Mutex
	view string
}

// New builds the route table for a and wraps it in the observability
// middleware.
func New(a *app.App, m *observe.Metrics) *Server {
	s := &Server{app: a, view: ViewRecord}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/record/start", s.handleRecordStart)
	mux.HandleFunc("POST /api/record/stop", s.handleRecordStop)
	mux.HandleFunc("GET /api/record/status", s.handleRecordStatus)

	mux.HandleFunc("GET /api/entries", s.handleEntries)
	mux.HandleFunc("PUT /api/entries/{id}/note", s.handleUpdateNote)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)
	mux.HandleFunc("GET /api/entries/{id}/download", s.handleDownload)
	mux.HandleFunc("POST /api/entries/{id}/export", s.handleExportEntry)

	mux.HandleFunc("POST /api/soundprint/play", s.handleSoundprintPlay)
	mux.HandleFunc("POST /api/soundprint/stop", s.handleSoundprintStop)
	mux.HandleFunc("GET /api/soundprint/status", s.handleSoundprintStatus)

	mux.HandleFunc("GET /api/view", s.handleViewGet)
	mux.HandleFunc("PUT /api/view", s.handleViewPut)

	mux.HandleFunc("GET /api/prefs", s.handlePrefsGet)
	mux.HandleFunc("PUT /api/prefs", s.handlePrefsPut)

	health.New(a.HealthCheckers()...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.handler = observe.Middleware(m)(mux)
	return s
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves the API on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ─── Record view ─────────────────────────────────────────────────────────────

func (s *Server) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	err := s.app.StartRecording(r.Context())
	switch {
	case errors.Is(err, audio.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "microphone permission denied")
		return
	case errors.Is(err, audio.ErrDeviceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "microphone unavailable")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.app.Recording())
}

func (s *Server) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DisplayName string `json:"displayName"`
	}
	// The body is optional; an empty or absent one means auto-name.
	_ = json.NewDecoder(r.Body).Decode(&body)

	e, err := s.app.StopRecording(r.Context(), body.DisplayName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if e == nil {
		// Nothing was recording; stop is idempotent.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleRecordStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Recording())
}

// ─── Diary view ──────────────────────────────────────────────────────────────

// dayGroup is one diary section: a day and its entries in recording order.
type dayGroup struct {
	DayKey  string        `json:"dayKey"`
	Entries []entry.Entry `json:"entries"`
}

func (s *Server) handleEntries(w http.ResponseWriter, _ *http.Request) {
	store := s.app.Store()

	days := make([]dayGroup, 0)
	for _, key := range store.SortedDayKeys() {
		days = append(days, dayGroup{DayKey: key, Entries: store.EntriesForDay(key)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.app.Store().Get(id); !ok {
		writeError(w, http.StatusNotFound, "no such entry")
		return
	}

	var body struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.app.UpdateNote(r.Context(), id, body.Note); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	// Deleting an absent entry is a no-op, so DELETE is idempotent.
	if err := s.app.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	e, ok := s.app.Store().Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "no such entry")
		return
	}

	wav, err := codec.PayloadBytes(e.AudioData)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(e)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(wav)
}

func (s *Server) handleExportEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.app.Store().Get(id); !ok {
		writeError(w, http.StatusNotFound, "no such entry")
		return
	}

	path, err := s.app.ExportEntry(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// ─── Soundprint view ─────────────────────────────────────────────────────────

func (s *Server) handleSoundprintPlay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DayKey string `json:"dayKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DayKey == "" {
		writeError(w, http.StatusBadRequest, "dayKey is required")
		return
	}

	s.app.PlaySoundprint(body.DayKey)
	writeJSON(w, http.StatusOK, s.app.Soundprint())
}

func (s *Server) handleSoundprintStop(w http.ResponseWriter, _ *http.Request) {
	s.app.StopSoundprint()
	writeJSON(w, http.StatusOK, s.app.Soundprint())
}

func (s *Server) handleSoundprintStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Soundprint())
}

// ─── Navigation ──────────────────────────────────────────────────────────────

func (s *Server) handleViewGet(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	view := s.view
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"view": view})
}

func (s *Server) handleViewPut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		View string `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch body.View {
	case ViewRecord, ViewDiary, ViewSoundprint:
	default:
		writeError(w, http.StatusBadRequest, "unknown view")
		return
	}

	s.mu.Lock()
	prev := s.view
	s.view = body.View
	s.mu.Unlock()

	// Leaving a view releases whatever it holds: the soundprint view its
	// playback handle, the record view its microphone.
	if prev != body.View {
		if prev == ViewSoundprint {
			s.app.StopSoundprint()
		}
		if prev == ViewRecord {
			s.app.AbandonRecording(r.Context())
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"view": body.View})
}

// ─── Preferences ─────────────────────────────────────────────────────────────

func (s *Server) handlePrefsGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Store().Preferences())
}

func (s *Server) handlePrefsPut(w http.ResponseWriter, r *http.Request) {
	var p entry.Preferences
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.Store().SavePreferences(p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
