package handler

import (
	"time"

	"github.com/yndnr/mdkeep-go/internal/backup/transfer"
	"github.com/yndnr/mdkeep-go/internal/core/domain"
)

// Response is the standard API response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// StateEntry is one key of the editor's flat storage.
type StateEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// StateKeysResponse is the response body for GET /state.
type StateKeysResponse struct {
	Items []string `json:"items"`
	Total int      `json:"total"`
}

// StateWriteResponse is the response body for PUT and DELETE /state/{key}.
type StateWriteResponse struct {
	Key   string `json:"key"`
	Bytes int    `json:"bytes,omitempty"`
}

// CreateBackupRequest is the request body for POST /backups.
type CreateBackupRequest struct {
	Note string `json:"note"`
}

// CreateBackupResponse is the response body for POST /backups.
type CreateBackupResponse struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

// ListBackupsResponse is the response body for GET /backups.
type ListBackupsResponse struct {
	Items []domain.IndexEntry `json:"items"`
	Total int                 `json:"total"`
}

// BackupResponse is the response body for GET /backups/{id}.
type BackupResponse struct {
	ID       string          `json:"id"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// BackupActionResponse is the response body for restore and delete.
type BackupActionResponse struct {
	ID       string `json:"id"`
	Restored bool   `json:"restored,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
}

// ImportResponse is the response body for POST /import.
type ImportResponse struct {
	Imported bool `json:"imported"`
}

// ExportFileResponse is the response body for POST /exports.
type ExportFileResponse struct {
	Path string `json:"path"`
}

// ListExportsResponse is the response body for GET /exports.
type ListExportsResponse struct {
	Items []transfer.ExportFile `json:"items"`
	Total int                   `json:"total"`
}

// HealthResponse is the response body for /health and /ready.
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`

	// NextBackup is the next scheduled backup time (RFC 3339).
	NextBackup string `json:"next_backup,omitempty"`
}
