// Package chi exposes the prospecting store over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/leadforge/prospectdb"
	"github.com/leadforge/prospectdb/internal/db"
	"github.com/leadforge/prospectdb/internal/logger"
	"github.com/leadforge/prospectdb/internal/metrics"
	"github.com/leadforge/prospectdb/internal/usecase/importer"
	"github.com/leadforge/prospectdb/internal/usecase/prospect"
	"github.com/leadforge/prospectdb/internal/usecase/report"
	"github.com/leadforge/prospectdb/stats"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecase services behind a chi router.
type Server struct {
	prospects     *prospect.Service
	imports       *importer.Service
	reports       *report.Service
	pinger        db.Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	prospects *prospect.Service,
	imports *importer.Service,
	reports *report.Service,
	pinger db.Pinger,
	log *zap.Logger,
) *Server {
	s := &Server{
		prospects: prospects,
		imports:   imports,
		reports:   reports,
		pinger:    pinger,
		logger:    log,
	}
	s.errorHandlers = []errorHandler{
		duplicateIDHandler,
		sentinelHandler(prospect.ErrUnknownCollection, http.StatusNotFound, "unknown_collection"),
		sentinelHandler(prospectdb.ErrInvalidPredicate, http.StatusBadRequest, "invalid_predicate"),
		sentinelHandler(importer.ErrTooManyRows, http.StatusBadRequest, "too_many_rows"),
	}
	return s
}

// Router builds the HTTP route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Use(logger.Middleware(s.logger))

	r.Get("/healthz", s.healthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/collections", s.listCollections)
		r.Route("/collections/{collection}", func(r chi.Router) {
			r.Get("/documents", s.listDocuments)
			r.Post("/documents", s.createDocument)
			r.Post("/query", s.queryDocuments)
			r.Get("/documents/{id}", s.getDocument)
			r.Patch("/documents/{id}", s.updateDocument)
			r.Delete("/documents/{id}", s.deleteDocument)
			r.Post("/import", s.importCSV)
			r.Get("/export", s.exportCSV)
		})
		r.Get("/reports/dashboard", s.dashboard)
		r.Get("/reports/latest", s.latestSnapshot)
	})
	return r
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	if err := s.pinger.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		status = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]string{"status": status})
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	infos, err := s.prospects.Overview(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	resp := collectionsResponse{Collections: make([]collectionInfo, len(infos))}
	for i, info := range infos {
		resp.Collections[i] = collectionInfo{Name: info.Name, Count: info.Count}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	opts := prospect.ListOptions{
		SortBy:     r.URL.Query().Get("sortBy"),
		Descending: r.URL.Query().Get("order") == "desc",
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		opts.Limit = limit
	}

	docs, err := s.prospects.List(r.Context(), collection, nil, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: emptyAsList(docs), Total: len(docs)})
}

func (s *Server) queryDocuments(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	p, err := predicateFromWhere(req.Where)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_predicate", err.Error())
		return
	}

	docs, err := s.prospects.List(r.Context(), collection, p, prospect.ListOptions{
		SortBy:     req.SortBy,
		Descending: req.Descending,
		Limit:      req.Limit,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: emptyAsList(docs), Total: len(docs)})
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var doc prospectdb.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if len(doc) == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "document must not be empty")
		return
	}

	id, err := s.prospects.Create(r.Context(), collection, doc)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/collections/"+collection+"/documents/"+id)
	writeJSON(w, http.StatusCreated, insertResponse{ID: id})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	doc, found, err := s.prospects.Get(r.Context(), collection, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "document_not_found", "no document with id "+id)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) updateDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if len(req.Set) == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "set must not be empty")
		return
	}

	doc, found, err := s.prospects.Update(r.Context(), collection, id, req.Set)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "document_not_found", "no document with id "+id)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	deleted, err := s.prospects.Delete(r.Context(), collection, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "document_not_found", "no document with id "+id)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: 1})
}

func (s *Server) importCSV(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var required []string
	if raw := r.URL.Query().Get("required"); raw != "" {
		required = splitComma(raw)
	}

	summary, err := s.imports.ImportCSV(r.Context(), collection, r.Body, required)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	metrics.RecordImport(collection, summary.Inserted, summary.Skipped, summary.Failed)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var fields []string
	if raw := r.URL.Query().Get("fields"); raw != "" {
		fields = splitComma(raw)
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+collection+`.csv"`)
	if err := s.imports.ExportCSV(r.Context(), collection, fields, w); err != nil {
		// Headers are already out; log instead of rewriting the status.
		logger.FromContext(r.Context()).Error("csv export failed", zap.Error(err))
	}
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.reports.Dashboard(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) latestSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.reports.Latest(r.Context())
	if errors.Is(err, stats.ErrEmptyInput) {
		// No snapshots yet is a normal state, not a client error.
		writeJSON(w, http.StatusOK, map[string]any{"snapshot": nil})
		return
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshot": snapshot})
}

func emptyAsList(docs []prospectdb.Document) []prospectdb.Document {
	if docs == nil {
		return []prospectdb.Document{}
	}
	return docs
}

func splitComma(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		prospectdb.ErrDuplicateID,
		prospectdb.ErrInvalidPredicate,
		prospect.ErrUnknownCollection,
		importer.ErrTooManyRows,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel
// error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// duplicateIDHandler handles identifier conflicts, surfacing the offending
// id when the wrapped error carries it.
func duplicateIDHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, prospectdb.ErrDuplicateID) {
		return false
	}
	var dup *prospectdb.DuplicateIDError
	if errors.As(err, &dup) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"code":    "duplicate_id",
			"message": msg,
			"id":      dup.ID,
		})
		return true
	}
	writeError(w, http.StatusConflict, "duplicate_id", msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
