package config

import (
	"time"

	"github.com/yndnr/mdkeep-go/internal/appstate"
	"github.com/yndnr/mdkeep-go/internal/backup"
)

// Default configuration values.
const (
	DefaultHTTPAddr     = "127.0.0.1:5090"
	DefaultRateLimit    = 20
	DefaultRateBurst    = 40
	DefaultMaxBodyBytes = 64 << 20

	DefaultStateDir  = "data/state"
	DefaultBackupDir = "data/backups"
	DefaultExportDir = "data/exports"

	DefaultStartupDelay = time.Second
	DefaultSchedule     = "@every 30m"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				RateLimit:    DefaultRateLimit,
				RateBurst:    DefaultRateBurst,
				MaxBodyBytes: DefaultMaxBodyBytes,
			},
		},
		Storage: StorageSection{
			StateDir:  DefaultStateDir,
			BackupDir: DefaultBackupDir,
			ExportDir: DefaultExportDir,
			KeyPrefix: appstate.DefaultKeyPrefix,
		},
		Backup: BackupSection{
			MaxCount:     backup.DefaultMaxBackups,
			StartupDelay: DefaultStartupDelay,
			Schedule:     DefaultSchedule,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
