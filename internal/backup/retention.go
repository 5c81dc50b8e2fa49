package backup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yndnr/mdkeep-go/internal/core/domain"
)

// Retention keeps the number of stored backups at or below a maximum.
type Retention struct {
	store      Store
	maxBackups int
	logger     *slog.Logger
}

// NewRetention creates a Retention for store.
func NewRetention(store Store, maxBackups int, logger *slog.Logger) *Retention {
	if maxBackups <= 0 {
		maxBackups = DefaultMaxBackups
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retention{store: store, maxBackups: maxBackups, logger: logger}
}

// MaxBackups returns the configured bound.
func (r *Retention) MaxBackups() int {
	return r.maxBackups
}

// Enforce deletes the oldest backup when more than MaxBackups are stored.
// It removes at most one backup per call. Returns the removed id, or "" when nothing was removed.
func (r *Retention) Enforce(ctx context.Context) (string, error) {
	entries, err := r.store.ListBackups(ctx)
	if err != nil {
		return "", fmt.Errorf("list backups: %w", err)
	}
	if len(entries) <= r.maxBackups {
		return "", nil
	}

	oldest := oldestEntry(entries)
	if err := r.store.DeleteBackup(ctx, oldest.ID); err != nil {
		return "", fmt.Errorf("delete backup %s: %w", oldest.ID, err)
	}

	r.logger.Info("retention removed oldest backup",
		"id", oldest.ID,
		"time", oldest.Time,
		"stored", len(entries)-1,
		"max_backups", r.maxBackups)
	return oldest.ID, nil
}

// oldestEntry returns the last entry of a newest-first list.
func oldestEntry(entries []domain.IndexEntry) domain.IndexEntry {
	return entries[len(entries)-1]
}
