package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/robfig/cron/v3"

	"github.com/yndnr/mdkeep-go/internal/telemetry/logger"
)

// MinEncryptionKeyLen is the shortest accepted security.encryption_key.
const MinEncryptionKeyLen = 16

// MaxSocketPathLen is the portable limit for a Unix socket path.
const MaxSocketPathLen = 103

// Verify validates the configuration. Every problem found is reported.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyStorage(&cfg.Storage)...)
	errs = append(errs, verifyBackup(&cfg.Backup)...)
	errs = append(errs, verifySecurity(&cfg.Security)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	return errors.Join(errs...)
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err))
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	if cfg.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("server.http.rate_limit must not be negative"))
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateBurst < 1 {
		errs = append(errs, errors.New("server.http.rate_burst must be at least 1"))
	}
	if cfg.HTTP.MaxBodyBytes < 1 {
		errs = append(errs, errors.New("server.http.max_body_bytes must be positive"))
	}
	for _, origin := range cfg.HTTP.CORSAllowedOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("server.http.cors_allowed_origins: %q is not an http(s) origin", origin))
		}
	}
	if p := cfg.Local.SocketPath; p != "" && len(p) > MaxSocketPathLen {
		errs = append(errs, fmt.Errorf("server.local.socket_path is longer than %d bytes", MaxSocketPathLen))
	}
	return errs
}

func verifyStorage(cfg *StorageSection) []error {
	var errs []error
	if !cfg.Ephemeral {
		if cfg.StateDir == "" {
			errs = append(errs, errors.New("storage.state_dir is required"))
		}
		if cfg.BackupDir == "" {
			errs = append(errs, errors.New("storage.backup_dir is required"))
		}
		if cfg.StateDir != "" && cfg.StateDir == cfg.BackupDir {
			errs = append(errs, errors.New("storage.state_dir and storage.backup_dir must differ"))
		}
	}
	if cfg.ExportDir == "" {
		errs = append(errs, errors.New("storage.export_dir is required"))
	}
	if cfg.KeyPrefix == "" {
		errs = append(errs, errors.New("storage.key_prefix is required"))
	}
	return errs
}

func verifyBackup(cfg *BackupSection) []error {
	var errs []error
	if cfg.MaxCount < 1 {
		errs = append(errs, errors.New("backup.max_count must be at least 1"))
	}
	if cfg.StartupDelay < 0 {
		errs = append(errs, errors.New("backup.startup_delay must not be negative"))
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("backup.schedule %q: %w", cfg.Schedule, err))
		}
	}
	return errs
}

func verifySecurity(cfg *SecuritySection) []error {
	if cfg.EncryptionKey != "" && len(cfg.EncryptionKey) < MinEncryptionKeyLen {
		return []error{fmt.Errorf("security.encryption_key must be at least %d bytes", MinEncryptionKeyLen)}
	}
	return nil
}

func verifyLog(cfg *LogSection) []error {
	var errs []error
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch cfg.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: must be json or text", cfg.Format))
	}
	return errs
}
