package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/kressler/docproof/internal/app"
	"github.com/kressler/docproof/internal/assets"
	"github.com/kressler/docproof/internal/capture"
	"github.com/kressler/docproof/internal/document"
	"github.com/kressler/docproof/internal/export"
	"github.com/kressler/docproof/internal/logging"
)

// Server is the HTTP + WebSocket API surface for docproof.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
	store        *document.Store
}

// NewServer creates a new Server with its own Orchestrator.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	// Make sure storage root exists
	storageRoot, err := expandPath(cfg.AppConfig.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("expanding storage root path: %w", err)
	}
	cfg.AppConfig.StorageRoot = storageRoot
	if err := os.MkdirAll(storageRoot, 0o755); err != nil {
		logger.Warn("creating storage root directory",
			logging.Field{Key: "path", Value: storageRoot},
			logging.Field{Key: "error", Value: err.Error()})
	}

	store, err := document.Open(cfg.AppConfig.DatabasePath(), logger)
	if err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}

	capturer := cfg.Capturer
	if capturer == nil {
		capturer, err = capture.NewCapturer(cfg.AppConfig.CaptureCfg, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("constructing capture backend: %w", err)
		}
	}

	exporter := export.New(capturer, assets.NewLoader(logger), logger)
	orch := app.NewOrchestrator(cfg.AppConfig, store, exporter, logger)

	r := chi.NewRouter()
	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       r,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
		store: store,
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/documents", s.optionsHandler("GET, POST"))
	r.Options("/documents/{docID}", s.optionsHandler("GET, PUT, DELETE"))
	r.Options("/documents/{docID}/revisions", s.optionsHandler("GET"))
	r.Options("/documents/{docID}/revert", s.optionsHandler("POST"))
	r.Options("/documents/{docID}/jobs/export", s.optionsHandler("POST"))
	r.Options("/jobs", s.optionsHandler("GET"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))
	r.Options("/exports/{jobID}/download", s.optionsHandler("GET"))
	r.Options("/ws/documents/{docID}/export", s.optionsHandler("GET"))

	// Documents
	r.Post("/documents", s.handleCreateDocument)
	r.Get("/documents", s.handleListDocuments)
	r.Get("/documents/{docID}", s.handleGetDocument)
	r.Put("/documents/{docID}", s.handleUpdateDocument)
	r.Delete("/documents/{docID}", s.handleDeleteDocument)

	// Revisions
	r.Get("/documents/{docID}/revisions", s.handleListRevisions)
	r.Post("/documents/{docID}/revert", s.handleRevertDocument)

	// Jobs over REST
	r.Post("/documents/{docID}/jobs/export", s.handleStartExportJob)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// Artifacts
	r.Get("/exports/{jobID}/download", s.handleDownloadExport)

	// WebSockets for job progress
	r.Get("/ws/documents/{docID}/export", s.handleExportWS)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and underlying resources.
func (s *Server) Close() {
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusForErr(err error) int {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrNoRevisions):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// --- HTTP handlers ---

// Documents

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title    string             `json:"title"`
		Sections []document.Section `json:"sections"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	doc := &document.Document{Title: body.Title, Sections: body.Sections}
	if err := s.orchestrator.CreateDocument(r.Context(), doc); err != nil {
		s.logger.Warn("creating document", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("created document", logging.Field{Key: "document_id", Value: doc.ID})
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.orchestrator.ListDocuments(r.Context())
	if err != nil {
		s.logger.Warn("listing documents", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("listed documents", logging.Field{Key: "count", Value: len(docs)})
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	doc, err := s.orchestrator.GetDocument(r.Context(), docID)
	if err != nil {
		s.logger.Warn("getting document", logging.Field{Key: "document_id", Value: docID}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusForErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var body struct {
		Title    string             `json:"title"`
		Sections []document.Section `json:"sections"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	doc := &document.Document{ID: docID, Title: body.Title, Sections: body.Sections}
	if err := s.orchestrator.UpdateDocument(r.Context(), doc); err != nil {
		s.logger.Warn("updating document", logging.Field{Key: "document_id", Value: docID}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusForErr(err), err.Error())
		return
	}
	s.logger.Info("updated document", logging.Field{Key: "document_id", Value: docID})
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	if err := s.orchestrator.DeleteDocument(r.Context(), docID); err != nil {
		s.logger.Warn("deleting document", logging.Field{Key: "document_id", Value: docID}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusForErr(err), err.Error())
		return
	}
	s.logger.Info("deleted document", logging.Field{Key: "document_id", Value: docID})
	writeJSON(w, http.StatusNoContent, nil)
}

// Revisions

func (s *Server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	revs, err := s.orchestrator.ListRevisions(r.Context(), docID)
	if err != nil {
		s.logger.Warn("listing revisions", logging.Field{Key: "document_id", Value: docID}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusForErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, revs)
}

func (s *Server) handleRevertDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var body struct {
		Steps int `json:"steps"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Steps <= 0 {
		body.Steps = 1
	}

	doc, err := s.orchestrator.RevertDocument(r.Context(), docID, body.Steps)
	if err != nil {
		s.logger.Warn("reverting document", logging.Field{Key: "document_id", Value: docID}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusForErr(err), err.Error())
		return
	}
	s.logger.Info("reverted document", logging.Field{Key: "document_id", Value: docID}, logging.Field{Key: "steps", Value: body.Steps})
	writeJSON(w, http.StatusOK, doc)
}

// Jobs (REST)

func (s *Server) handleStartExportJob(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var body struct {
		Format string `json:"format"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Format == "" {
		body.Format = s.cfg.AppConfig.DefaultFormat
	}

	format, err := export.ParseFormat(body.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Detach from the request context so the job survives the response.
	job, err := s.orchestrator.StartExportJob(context.Background(), docID, format)
	if err != nil {
		s.logger.Warn("starting export job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, statusForErr(err), err.Error())
		return
	}
	s.logger.Info("started export job",
		logging.Field{Key: "job_id", Value: job.ID},
		logging.Field{Key: "document_id", Value: docID},
		logging.Field{Key: "format", Value: string(format)})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	s.orchestrator.CancelJob(jobID)
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	writeJSON(w, http.StatusOK, jobs)
}

// Artifacts

func (s *Server) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil || job.Status != app.JobDone || job.OutputPath == "" {
		writeError(w, http.StatusNotFound, "no finished export for job")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(job.OutputPath)))
	http.ServeFile(w, r, job.OutputPath)
}

// WebSockets

func (s *Server) handleExportWS(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job, err := s.orchestrator.StartExportJob(r.Context(), docID, format)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		s.logger.Warn("starting export job", logging.Field{Key: "error", Value: err.Error()})
		return
	}

	s.logger.Info("started export job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
