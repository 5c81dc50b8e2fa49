package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yndnr/mdkeep-go/internal/backup/transfer"
	"github.com/yndnr/mdkeep-go/internal/core/domain"
)

// handleExport handles GET /export. The body is the backup file itself.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := h.deps.Exporter.Export(r.Context(), &buf)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Request-ID", getRequestID(r))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write export failed", "error", err)
	}
}

// handleImport handles POST /import. The body is a backup file; the
// response reports whether the editor state was replaced.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	limit := h.deps.MaxBodyBytes
	if limit > transfer.MaxImportSize {
		limit = transfer.MaxImportSize
	}
	body := http.MaxBytesReader(w, r.Body, limit)

	imported := h.deps.Importer.Import(r.Context(), body)
	h.writeJSON(w, r, http.StatusOK, ImportResponse{Imported: imported})
}

// handleExportToDir handles POST /exports, writing an export file into
// the server's export directory.
func (h *Handler) handleExportToDir(w http.ResponseWriter, r *http.Request) {
	if h.deps.ExportDir == "" {
		h.handleServiceError(w, r, domain.ErrBadRequest.WithDetails("export directory not configured"))
		return
	}

	path, err := h.deps.Exporter.ExportToDir(r.Context(), h.deps.ExportDir)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, ExportFileResponse{Path: path})
}

// handleListExports handles GET /exports.
func (h *Handler) handleListExports(w http.ResponseWriter, r *http.Request) {
	files := []transfer.ExportFile{}
	if h.deps.ExportDir != "" {
		var err error
		files, err = transfer.ListExports(h.deps.ExportDir)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, ListExportsResponse{Items: files, Total: len(files)})
}
