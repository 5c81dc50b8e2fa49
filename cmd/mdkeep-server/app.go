package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/yndnr/mdkeep-go/internal/appstate"
	"github.com/yndnr/mdkeep-go/internal/backup"
	"github.com/yndnr/mdkeep-go/internal/backup/transfer"
	"github.com/yndnr/mdkeep-go/internal/infra/buildinfo"
	"github.com/yndnr/mdkeep-go/internal/server/config"
	"github.com/yndnr/mdkeep-go/internal/server/httpserver"
	"github.com/yndnr/mdkeep-go/internal/server/httpserver/handler"
	"github.com/yndnr/mdkeep-go/internal/server/localserver"
	"github.com/yndnr/mdkeep-go/internal/storage"
	"github.com/yndnr/mdkeep-go/internal/storage/backupdb"
	"github.com/yndnr/mdkeep-go/internal/storage/memory"
	"github.com/yndnr/mdkeep-go/internal/telemetry/metric"
	"github.com/yndnr/mdkeep-go/pkg/crypto/adaptive"
)

// sealerPurpose scopes the key derived from security.encryption_key.
const sealerPurpose = "backups"

// readyProbeKey is read by /ready to check the state store answers.
const readyProbeKey = "__mdkeep_ready"

// app holds the wired server components.
type app struct {
	state       handler.StateStore
	stateEngine *storage.BadgerEngine // nil when ephemeral
	backups     *backupdb.DB
	service     *backup.Service
	hooks       *backup.Hooks
	router      http.Handler
	httpServer  *httpserver.Server
	local       *localserver.Server // nil unless server.local.socket_path is set
}

// newApp opens the stores and wires every component, registering
// metrics with registry.
func newApp(cfg *config.ServerConfig, log *slog.Logger, registry *metric.Registry) (*app, error) {
	a := &app{}

	if cfg.Storage.Ephemeral {
		a.state = memory.New()
	} else {
		engine, err := storage.NewBadgerEngine(storage.DefaultKVConfig("state", cfg.Storage.StateDir), log)
		if err != nil {
			return nil, fmt.Errorf("open state store: %w", err)
		}
		engine.RegisterMetrics(registry.Registerer())
		a.stateEngine = engine
		a.state = storage.NewStateStore(engine)
	}

	var sealer *adaptive.Sealer
	if cfg.Security.EncryptionKey != "" {
		s, err := adaptive.NewSealer([]byte(cfg.Security.EncryptionKey), sealerPurpose)
		if err != nil {
			a.closeStores()
			return nil, fmt.Errorf("init encryption: %w", err)
		}
		sealer = s
		log.Info("backup encryption enabled", "cipher", s.Type())
	}

	a.backups = backupdb.New(backupdb.Options{
		Dir:        cfg.Storage.BackupDir,
		InMemory:   cfg.Storage.Ephemeral,
		Sealer:     sealer,
		Registerer: registry.Registerer(),
	}, log)
	if err := a.backups.Open(context.Background()); err != nil {
		a.closeStores()
		return nil, fmt.Errorf("open backup database: %w", err)
	}
	registry.Registerer().MustRegister(metric.NewCollector(a.backups.Count))

	a.service = backup.NewService(a.state, a.backups, backup.Config{
		MaxBackups: cfg.Backup.MaxCount,
		State: appstate.Options{
			KeyPrefix:     cfg.Storage.KeyPrefix,
			StrictVersion: cfg.Backup.StrictVersion,
		},
	}, log, backup.WithMetrics(registry))

	a.hooks = backup.NewHooks(a.service, backup.HooksConfig{
		StartupDelay: cfg.Backup.StartupDelay,
		Schedule:     cfg.Backup.Schedule,
	}, log)

	deps := handler.Deps{
		State:        a.state,
		Backups:      a.service,
		SaveHook:     a.hooks,
		Exporter:     transfer.NewExporter(a.service, log, transfer.WithExportMetrics(registry)),
		Importer:     transfer.NewImporter(a.service, log, transfer.WithImportMetrics(registry)),
		ExportDir:    cfg.Storage.ExportDir,
		Ready:        a.ready,
		Metrics:      registry.Handler(),
		Version:      buildinfo.Get().Version,
		NextBackup:   a.hooks.NextRun,
		MaxBodyBytes: cfg.Server.HTTP.MaxBodyBytes,
		Logger:       log,
	}
	a.router = httpserver.NewRouter(&httpserver.RouterConfig{
		Deps:               deps,
		Logger:             log,
		Observer:           registry,
		CORSAllowedOrigins: cfg.Server.HTTP.CORSAllowedOrigins,
		RateLimit: httpserver.RateLimitConfig{
			RequestsPerSecond: cfg.Server.HTTP.RateLimit,
			Burst:             cfg.Server.HTTP.RateBurst,
		},
		EnableAudit: true,
	})
	a.httpServer = httpserver.New(cfg.Server.HTTP.Addr, a.router)
	if cfg.Server.Local.SocketPath != "" {
		a.local = localserver.New(cfg.Server.Local.SocketPath, a.router)
	}

	return a, nil
}

// ready reports whether both stores answer.
func (a *app) ready(ctx context.Context) error {
	if err := a.backups.Open(ctx); err != nil {
		return err
	}
	_, _, err := a.state.Get(ctx, readyProbeKey)
	return err
}

// closeStores closes the backup database and the state store.
func (a *app) closeStores() error {
	var errs []error
	if a.backups != nil {
		if err := a.backups.Close(); err != nil {
			errs = append(errs, fmt.Errorf("backup database: %w", err))
		}
	}
	if a.stateEngine != nil {
		if err := a.stateEngine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("state store: %w", err))
		}
	}
	return errors.Join(errs...)
}
