package config

import "time"

// ServerConfig is the root configuration for mdkeep-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server" yaml:"server"`
	Storage  StorageSection  `koanf:"storage" yaml:"storage"`
	Backup   BackupSection   `koanf:"backup" yaml:"backup"`
	Security SecuritySection `koanf:"security" yaml:"security"`
	Log      LogSection      `koanf:"log" yaml:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http" yaml:"http"`
	Local LocalConfig `koanf:"local" yaml:"local"`
}

// LocalConfig configures the Unix socket listener that serves the same API
// to local clients.
type LocalConfig struct {
	// SocketPath enables the listener when set.
	SocketPath string `koanf:"socket_path" yaml:"socket_path"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr" yaml:"addr"`
	TLSCertFile string `koanf:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" yaml:"tls_key_file"`

	// RateLimit is the sustained requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `koanf:"rate_burst" yaml:"rate_burst"`

	// MaxBodyBytes bounds PUT /state and POST /import bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes" yaml:"max_body_bytes"`

	// CORSAllowedOrigins lists the editor origins allowed to call the API
	// from a browser. "*" allows any origin; empty disables CORS.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" yaml:"cors_allowed_origins"`
}

// StorageSection configures the state store and the backup database.
type StorageSection struct {
	StateDir  string `koanf:"state_dir" yaml:"state_dir"`
	BackupDir string `koanf:"backup_dir" yaml:"backup_dir"`
	ExportDir string `koanf:"export_dir" yaml:"export_dir"`

	// KeyPrefix namespaces the prefixed state keys (MD__posts, ...).
	KeyPrefix string `koanf:"key_prefix" yaml:"key_prefix"`

	// Ephemeral keeps everything in memory; nothing survives a restart.
	Ephemeral bool `koanf:"ephemeral" yaml:"ephemeral"`
}

// BackupSection configures automatic backups and retention.
type BackupSection struct {
	MaxCount      int           `koanf:"max_count" yaml:"max_count"`
	StartupDelay  time.Duration `koanf:"startup_delay" yaml:"startup_delay"`
	Schedule      string        `koanf:"schedule" yaml:"schedule"`
	StrictVersion bool          `koanf:"strict_version" yaml:"strict_version"`
}

// SecuritySection configures security settings.
type SecuritySection struct {
	// EncryptionKey seals backup payloads at rest when set.
	EncryptionKey string `koanf:"encryption_key" yaml:"encryption_key"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
