package backup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/mdkeep-go/internal/appstate"
	"github.com/yndnr/mdkeep-go/internal/core/domain"
	"github.com/yndnr/mdkeep-go/internal/storage"
)

// DefaultMaxBackups is the number of backups kept by retention.
const DefaultMaxBackups = 10

// Store is the backup database. *backupdb.DB implements it.
type Store interface {
	CreateBackup(ctx context.Context, payload domain.Snapshot, note string) (string, error)
	ListBackups(ctx context.Context) ([]domain.IndexEntry, error)
	GetBackup(ctx context.Context, id string) (domain.Snapshot, error)
	DeleteBackup(ctx context.Context, id string) error
}

// Metrics records backup activity. *metric.Registry implements it.
type Metrics interface {
	BackupCreated(elapsed time.Duration)
	BackupFailed(op string)
	BackupPruned()
	BackupRestored()
}

type nopMetrics struct{}

func (nopMetrics) BackupCreated(time.Duration) {}
func (nopMetrics) BackupFailed(string)         {}
func (nopMetrics) BackupPruned()               {}
func (nopMetrics) BackupRestored()             {}

// Config configures a Service.
type Config struct {
	// MaxBackups bounds the number of stored backups. Default: 10.
	MaxBackups int

	// State holds the key prefix, clock and version policy used to
	// capture and apply snapshots.
	State appstate.Options
}

// Service captures, stores and restores editor snapshots.
type Service struct {
	state     storage.KVStore
	store     Store
	retention *Retention
	cfg       Config
	logger    *slog.Logger
	metrics   Metrics

	// createMu serializes create+retention so the bound holds under
	// concurrent triggers.
	createMu sync.Mutex
}

// ServiceOption configures optional Service dependencies.
type ServiceOption func(*Service)

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService creates a Service over the editor state and the backup store.
func NewService(state storage.KVStore, store Store, cfg Config, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = DefaultMaxBackups
	}
	if cfg.State.Logger == nil {
		cfg.State.Logger = logger
	}

	s := &Service{
		state:   state,
		store:   store,
		cfg:     cfg,
		logger:  logger.With("component", "backup"),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.retention = NewRetention(store, cfg.MaxBackups, s.logger)
	return s
}

// Capture returns the current editor state as a snapshot.
func (s *Service) Capture(ctx context.Context) domain.Snapshot {
	return appstate.Capture(ctx, s.state, s.cfg.State)
}

// Apply overwrites the editor state with s.
func (s *Service) Apply(ctx context.Context, snapshot *domain.Snapshot) error {
	return appstate.Apply(ctx, s.state, snapshot, s.cfg.State)
}

// AutoBackup captures the editor state, stores it with note and enforces
// retention. A retention failure is logged; the backup itself stands.
func (s *Service) AutoBackup(ctx context.Context, note string) (string, error) {
	start := time.Now()

	s.createMu.Lock()
	defer s.createMu.Unlock()

	snapshot := s.Capture(ctx)
	id, err := s.store.CreateBackup(ctx, snapshot, note)
	if err != nil {
		s.metrics.BackupFailed("create")
		return "", err
	}

	removed, err := s.retention.Enforce(ctx)
	if err != nil {
		s.metrics.BackupFailed("retention")
		s.logger.Warn("retention failed", "id", id, "error", err)
	} else if removed != "" {
		s.metrics.BackupPruned()
	}

	s.metrics.BackupCreated(time.Since(start))
	s.logger.Info("backup created",
		"id", id,
		"note", note,
		"documents", len(snapshot.Documents),
		"pruned", removed)
	return id, nil
}

// ListBackups returns the stored backups, newest first. A store failure is
// logged and reported as an empty list.
func (s *Service) ListBackups(ctx context.Context) []domain.IndexEntry {
	entries, err := s.store.ListBackups(ctx)
	if err != nil {
		s.metrics.BackupFailed("list")
		s.logger.Error("list backups failed", "error", err)
		return []domain.IndexEntry{}
	}
	if entries == nil {
		entries = []domain.IndexEntry{}
	}
	return entries
}

// Get returns the snapshot stored under id.
func (s *Service) Get(ctx context.Context, id string) (domain.Snapshot, error) {
	return s.store.GetBackup(ctx, id)
}

// Restore overwrites the editor state with the backup stored under id.
func (s *Service) Restore(ctx context.Context, id string) error {
	snapshot, err := s.store.GetBackup(ctx, id)
	if err != nil {
		s.metrics.BackupFailed("restore")
		return err
	}
	if err := s.Apply(ctx, &snapshot); err != nil {
		s.metrics.BackupFailed("restore")
		return err
	}

	s.metrics.BackupRestored()
	s.logger.Info("backup restored", "id", id, "backup_time", snapshot.BackupTime)
	return nil
}

// Delete removes the backup stored under id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteBackup(ctx, id); err != nil {
		s.metrics.BackupFailed("delete")
		return err
	}
	s.logger.Info("backup deleted", "id", id)
	return nil
}
