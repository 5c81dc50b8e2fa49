package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mdkeep-go/internal/infra/buildinfo"
	"github.com/yndnr/mdkeep-go/internal/infra/confloader"
	"github.com/yndnr/mdkeep-go/internal/infra/shutdown"
	"github.com/yndnr/mdkeep-go/internal/server/config"
	"github.com/yndnr/mdkeep-go/internal/telemetry/logger"
	"github.com/yndnr/mdkeep-go/internal/telemetry/metric"
)

// shutdownTimeout bounds the whole shutdown sequence.
const shutdownTimeout = 30 * time.Second

func main() {
	app := &cli.App{
		Name:    "mdkeep-server",
		Usage:   "Backup and restore service for the markdown editor",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"MDKEEP_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "ephemeral",
				Usage: "Keep state and backups in memory (nothing is written to disk)",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("config"), c.Bool("ephemeral"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string, ephemeral bool) error {
	var overrides map[string]any
	if ephemeral {
		overrides = map[string]any{"storage.ephemeral": true}
	}

	cfg, err := loadConfig(configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting mdkeep-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile,
		"ephemeral", cfg.Storage.Ephemeral)

	a, err := newApp(cfg, log, metric.Global())
	if err != nil {
		return err
	}

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, log)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Registered in startup order; they run in reverse.
	shutdownHandler.OnShutdown("stores", func(context.Context) error {
		return a.closeStores()
	})
	shutdownHandler.OnShutdown("backup hooks", func(ctx context.Context) error {
		cancel()
		return a.hooks.Stop(ctx)
	})
	shutdownHandler.OnShutdown("http server", a.httpServer.Shutdown)
	if a.local != nil {
		if err := a.local.Listen(); err != nil {
			a.closeStores()
			return fmt.Errorf("local socket: %w", err)
		}
		shutdownHandler.OnShutdown("local socket", a.local.Shutdown)
	}

	if configFile != "" {
		w, err := watchConfig(configFile, overrides, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return w.Stop()
			})
		}
	}

	if err := a.hooks.StartPeriodic(); err != nil {
		a.closeStores()
		return err
	}
	go a.hooks.OnStartup(ctx)

	go func() {
		addr := cfg.Server.HTTP.Addr
		log.Info("HTTP server listening", "addr", addr, "tls", cfg.Server.HTTP.TLSCertFile != "")

		var err error
		if cfg.Server.HTTP.TLSCertFile != "" {
			err = a.httpServer.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		} else {
			err = a.httpServer.ListenAndServe()
		}
		if err != nil {
			log.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	if a.local != nil {
		go func() {
			log.Info("local socket listening", "path", a.local.Path())
			if err := a.local.Serve(); err != nil {
				log.Error("local socket error", "error", err)
				cancel()
			}
		}()
	}

	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads defaults, then the file, then MDKEEP_ environment
// variables, then overrides, and verifies the result.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchConfig reloads the log level whenever the config file changes.
// Other settings need a restart.
func watchConfig(configFile string, overrides map[string]any, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(path string) {
		cfg, err := loadConfig(configFile, overrides)
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		prev := logger.GetLevel()
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if now := logger.GetLevel(); now != prev {
			log.Info("log level changed", "from", prev, "to", now)
		}
	})

	w.StartAsync()
	return w, nil
}
