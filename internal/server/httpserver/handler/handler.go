package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/mdkeep-go/internal/core/domain"
	"github.com/yndnr/mdkeep-go/internal/storage"
	"github.com/yndnr/mdkeep-go/internal/telemetry/logger"
)

// DefaultMaxBodyBytes bounds request bodies when Deps.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 64 << 20

// StateStore is the editor's flat storage as seen by the API.
type StateStore interface {
	storage.KVStore
	Keys(ctx context.Context) ([]string, error)
}

// BackupService manages stored backups.
type BackupService interface {
	AutoBackup(ctx context.Context, note string) (string, error)
	ListBackups(ctx context.Context) []domain.IndexEntry
	Get(ctx context.Context, id string) (domain.Snapshot, error)
	Restore(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SaveHook is notified when the editor saves a document.
type SaveHook interface {
	OnSave(ctx context.Context)
}

// Exporter writes export files.
type Exporter interface {
	Export(ctx context.Context, w io.Writer) (string, error)
	ExportToDir(ctx context.Context, dir string) (string, error)
}

// Importer applies export files.
type Importer interface {
	Import(ctx context.Context, r io.Reader) bool
}

// Deps holds the services behind the API.
type Deps struct {
	State    StateStore
	Backups  BackupService
	SaveHook SaveHook
	Exporter Exporter
	Importer Importer

	// ExportDir receives server-side exports (POST /exports).
	ExportDir string

	// Ready reports whether the backing stores are usable.
	Ready func(ctx context.Context) error

	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	// Version is reported by /health.
	Version string

	// NextBackup reports the next scheduled backup, zero when none is
	// scheduled. Optional.
	NextBackup func() time.Time

	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	deps   Deps
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a new Handler with the given services.
func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = DefaultMaxBodyBytes
	}

	h := &Handler{
		deps:   deps,
		logger: deps.Logger,
		mux:    http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Routes lists every route pattern the handler serves.
func Routes() []string {
	return []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",

		"GET /state",
		"GET /state/{key}",
		"PUT /state/{key}",
		"DELETE /state/{key}",
		"POST /hooks/save",

		"GET /backups",
		"POST /backups",
		"GET /backups/{id}",
		"DELETE /backups/{id}",
		"POST /backups/{id}/restore",

		"GET /export",
		"POST /import",
		"GET /exports",
		"POST /exports",
	}
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	if h.deps.Metrics != nil {
		h.mux.Handle("GET /metrics", h.deps.Metrics)
	}

	h.mux.HandleFunc("GET /state", h.handleListState)
	h.mux.HandleFunc("GET /state/{key}", h.handleGetState)
	h.mux.HandleFunc("PUT /state/{key}", h.handlePutState)
	h.mux.HandleFunc("DELETE /state/{key}", h.handleDeleteState)
	h.mux.HandleFunc("POST /hooks/save", h.handleSaveHook)

	h.mux.HandleFunc("GET /backups", h.handleListBackups)
	h.mux.HandleFunc("POST /backups", h.handleCreateBackup)
	h.mux.HandleFunc("GET /backups/{id}", h.handleGetBackup)
	h.mux.HandleFunc("DELETE /backups/{id}", h.handleDeleteBackup)
	h.mux.HandleFunc("POST /backups/{id}/restore", h.handleRestoreBackup)

	h.mux.HandleFunc("GET /export", h.handleExport)
	h.mux.HandleFunc("POST /import", h.handleImport)
	h.mux.HandleFunc("GET /exports", h.handleListExports)
	h.mux.HandleFunc("POST /exports", h.handleExportToDir)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status := ErrorCodeToHTTPStatus(de.Code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err)
		}
		var details any
		if de.Details != "" {
			details = de.Details
		}
		h.writeError(w, r, status, de.Code, de.Message, details)
		return
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.writeError(w, r, http.StatusRequestEntityTooLarge, domain.ErrBadRequest.Code,
			"request body too large", strconv.FormatInt(maxErr.Limit, 10))
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
}

// ErrorCodeToHTTPStatus maps an MK-<AREA>-<NNNN> code to its HTTP status.
// The first three digits of NNNN are the status.
func ErrorCodeToHTTPStatus(code string) int {
	idx := strings.LastIndex(code, "-")
	if idx < 0 || len(code)-idx-1 != 4 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(code[idx+1:])
	if err != nil {
		return http.StatusInternalServerError
	}
	status := n / 10
	if status < 400 || status > 599 || http.StatusText(status) == "" {
		return http.StatusInternalServerError
	}
	return status
}

// getRequestID extracts the request ID set by the RequestID middleware.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// readBody reads the request body up to the configured limit.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, h.deps.MaxBodyBytes))
}
