package backup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Notes attached to automatic backups.
const (
	NoteStartup   = "automatic backup"
	NoteSave      = "automatic backup on save"
	NoteScheduled = "scheduled backup"
)

// Backuper creates a backup. *Service implements it.
type Backuper interface {
	AutoBackup(ctx context.Context, note string) (string, error)
}

// HooksConfig configures Hooks.
type HooksConfig struct {
	// StartupDelay is the wait before the startup backup. Default: 1s.
	StartupDelay time.Duration

	// Schedule is a cron spec for periodic backups ("@every 30m",
	// "0 */2 * * *"). Empty disables periodic backups.
	Schedule string
}

// DefaultHooksConfig returns the default hook configuration.
func DefaultHooksConfig() HooksConfig {
	return HooksConfig{
		StartupDelay: time.Second,
		Schedule:     "@every 30m",
	}
}

// Hooks runs automatic backups at lifecycle points.
type Hooks struct {
	backuper Backuper
	cfg      HooksConfig
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	cancel  context.CancelFunc // cancels the running schedule's jobs
}

// NewHooks creates Hooks for backuper.
func NewHooks(backuper Backuper, cfg HooksConfig, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StartupDelay < 0 {
		cfg.StartupDelay = 0
	}
	return &Hooks{
		backuper: backuper,
		cfg:      cfg,
		logger:   logger.With("component", "backup_hooks"),
	}
}

// OnStartup waits StartupDelay, then creates a backup. It returns early
// without a backup when ctx is canceled during the wait.
func (h *Hooks) OnStartup(ctx context.Context) {
	if h.cfg.StartupDelay > 0 {
		timer := time.NewTimer(h.cfg.StartupDelay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			h.logger.Debug("startup backup canceled")
			return
		}
	}
	h.run(ctx, NoteStartup)
}

// OnSave creates a backup immediately.
func (h *Hooks) OnSave(ctx context.Context) {
	h.run(ctx, NoteSave)
}

// StartPeriodic schedules periodic backups. It is a no-op when Schedule is
// empty or periodic backups are already running.
func (h *Hooks) StartPeriodic() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cfg.Schedule == "" || h.cron != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New()
	id, err := c.AddFunc(h.cfg.Schedule, func() {
		h.run(ctx, NoteScheduled)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("invalid backup schedule %q: %w", h.cfg.Schedule, err)
	}

	c.Start()
	h.cron = c
	h.entryID = id
	h.cancel = cancel

	h.logger.Info("periodic backups scheduled",
		"schedule", h.cfg.Schedule,
		"next", c.Entry(id).Next)
	return nil
}

// Stop stops periodic backups and waits for a running one to finish or
// for ctx to expire.
func (h *Hooks) Stop(ctx context.Context) error {
	h.mu.Lock()
	c := h.cron
	cancel := h.cancel
	h.cron = nil
	h.mu.Unlock()

	if c == nil {
		return nil
	}

	done := c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
	cancel()
	return nil
}

// NextRun returns the next scheduled backup time, or the zero time when
// periodic backups are not running.
func (h *Hooks) NextRun() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cron == nil {
		return time.Time{}
	}
	return h.cron.Entry(h.entryID).Next
}

func (h *Hooks) run(ctx context.Context, note string) {
	id, err := h.backuper.AutoBackup(ctx, note)
	if err != nil {
		h.logger.Error("automatic backup failed", "note", note, "error", err)
		return
	}
	h.logger.Debug("automatic backup done", "note", note, "id", id)
}
