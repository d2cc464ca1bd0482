// Package api serves the diary over HTTP for a local web front end.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/schemadiary/internal/diary"
	"github.com/pbaille/schemadiary/internal/domain"
	"github.com/pbaille/schemadiary/internal/export"
	"go.uber.org/zap"
)

// maxUpload bounds an uploaded recording.
const maxUpload = 64 << 20

// Recordings is the part of the audio store the API serves from.
type Recordings interface {
	Path(name string) string
	Import(r io.Reader, ext string) (string, bool)
}

// Server handles HTTP requests for the diary API
type Server struct {
	svc        *diary.Service
	recordings Recordings
	addr       string
	log        *zap.Logger
}

// New creates a new API server
func New(svc *diary.Service, recordings Recordings, addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, recordings: recordings, addr: addr, log: log}
}

// Handler returns the routed handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Entries
	mux.HandleFunc("GET /entries", s.listEntries)
	mux.HandleFunc("POST /entries", s.createEntry)
	mux.HandleFunc("GET /entries/{id}", s.getEntry)
	mux.HandleFunc("PUT /entries/{id}", s.updateEntry)
	mux.HandleFunc("DELETE /entries/{id}", s.deleteEntry)

	// Taxonomy
	mux.HandleFunc("GET /modes", s.listModes)

	// Search
	mux.HandleFunc("GET /search", s.searchEntries)

	// Recordings
	mux.HandleFunc("GET /recordings/{name}", s.getRecording)
	mux.HandleFunc("POST /recordings", s.uploadRecording)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return withCORS(s.withLogging(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.String("addr", s.addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ModeGroup lists the modes of one category.
type ModeGroup struct {
	Category domain.SchemaModeCategory `json:"category"`
	Modes    []domain.SchemaMode       `json:"modes"`
}

func (s *Server) listModes(w http.ResponseWriter, r *http.Request) {
	var groups []ModeGroup
	for _, cat := range domain.Categories() {
		groups = append(groups, ModeGroup{Category: cat, Modes: domain.ModesIn(cat)})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": groups,
		"default":    domain.DefaultMode,
	})
}

// EntryRequest is the request body for creating or replacing an entry. An
// empty schema_mode selects the default mode.
type EntryRequest struct {
	Title   string                    `json:"title"`
	Mode    string                    `json:"schema_mode"`
	NeedMet domain.NeedMet            `json:"need_met"`
	Content domain.DiaryContentFields `json:"content"`
}

func (req EntryRequest) draft() (diary.Draft, error) {
	mode := domain.DefaultMode
	if req.Mode != "" {
		m, ok := domain.ParseSchemaMode(req.Mode)
		if !ok {
			return diary.Draft{}, errors.New("unknown schema_mode " + strconv.Quote(req.Mode))
		}
		mode = m
	}
	return diary.Draft{
		Title:   req.Title,
		Mode:    mode,
		NeedMet: req.NeedMet,
		Content: req.Content,
	}, nil
}

func decodeEntryRequest(w http.ResponseWriter, r *http.Request) (diary.Draft, bool) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return diary.Draft{}, false
	}
	d, err := req.draft()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return diary.Draft{}, false
	}
	return d, true
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeEntryRequest(w, r)
	if !ok {
		return
	}

	entry, err := s.svc.Create(d)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, export.View(entry))
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	// Get accepts unique id prefixes as well as full ids.
	entry, err := s.svc.Get(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, export.View(entry))
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.svc.Get(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	d, ok := decodeEntryRequest(w, r)
	if !ok {
		return
	}

	entry, err = s.svc.Edit(entry.ID, d)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, export.View(entry))
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.svc.Get(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if err := s.svc.Delete(entry.ID); err != nil {
		s.writeStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}

	entries, err := s.svc.List(limit, offset)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": export.Views(entries),
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) searchEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	entries, err := s.svc.Search(query)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": export.Views(entries),
		"query":   query,
	})
}

func (s *Server) getRecording(w http.ResponseWriter, r *http.Request) {
	p := s.recordings.Path(r.PathValue("name"))
	if p == "" {
		writeError(w, http.StatusBadRequest, "invalid recording name")
		return
	}
	http.ServeFile(w, r, p)
}

// uploadRecording stores the raw request body as a new recording. The file
// extension comes from the "ext" query parameter.
func (s *Server) uploadRecording(w http.ResponseWriter, r *http.Request) {
	ext := r.URL.Query().Get("ext")
	if strings.ContainsAny(ext, `/\`) {
		writeError(w, http.StatusBadRequest, "invalid extension")
		return
	}

	name, ok := s.recordings.Import(http.MaxBytesReader(w, r.Body, maxUpload), ext)
	if !ok {
		writeError(w, http.StatusBadRequest, "recording could not be stored")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"filename": name})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAmbiguousID):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
