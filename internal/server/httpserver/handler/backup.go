package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yndnr/mdkeep-go/internal/core/domain"
)

// DefaultManualNote is the note of backups created through POST /backups
// without a body.
const DefaultManualNote = "manual backup"

// handleListBackups handles GET /backups. Store failures yield an empty list.
func (h *Handler) handleListBackups(w http.ResponseWriter, r *http.Request) {
	items := h.deps.Backups.ListBackups(r.Context())
	h.writeJSON(w, r, http.StatusOK, ListBackupsResponse{Items: items, Total: len(items)})
}

// handleCreateBackup handles POST /backups.
func (h *Handler) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	body, err := h.readBody(w, r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var req CreateBackupRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.handleServiceError(w, r, domain.ErrBadRequest.WithDetails("invalid JSON body"))
			return
		}
	}
	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = DefaultManualNote
	}

	id, err := h.deps.Backups.AutoBackup(r.Context(), note)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/backups/"+id)
	h.writeJSON(w, r, http.StatusCreated, CreateBackupResponse{ID: id, Note: note})
}

// handleGetBackup handles GET /backups/{id}.
func (h *Handler) handleGetBackup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.backupID(w, r)
	if !ok {
		return
	}

	snapshot, err := h.deps.Backups.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, BackupResponse{ID: id, Snapshot: snapshot})
}

// handleRestoreBackup handles POST /backups/{id}/restore.
func (h *Handler) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.backupID(w, r)
	if !ok {
		return
	}

	if err := h.deps.Backups.Restore(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, BackupActionResponse{ID: id, Restored: true})
}

// handleDeleteBackup handles DELETE /backups/{id}.
func (h *Handler) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.backupID(w, r)
	if !ok {
		return
	}

	if err := h.deps.Backups.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, BackupActionResponse{ID: id, Deleted: true})
}

// backupID returns the {id} path value. Malformed ids cannot name a stored
// backup and are answered with 404 without touching the store.
func (h *Handler) backupID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !domain.IsValidBackupID(id) {
		h.handleServiceError(w, r, domain.ErrNotFound.WithDetails("malformed backup id"))
		return "", false
	}
	return id, true
}
