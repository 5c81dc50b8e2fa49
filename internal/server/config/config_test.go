package config

import (
	"strings"
	"testing"
	"time"

	"github.com/yndnr/mdkeep-go/internal/appstate"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if cfg.Storage.KeyPrefix != appstate.DefaultKeyPrefix {
		t.Errorf("KeyPrefix = %q, want %q", cfg.Storage.KeyPrefix, appstate.DefaultKeyPrefix)
	}
	if cfg.Backup.MaxCount != 10 {
		t.Errorf("MaxCount = %d, want 10", cfg.Backup.MaxCount)
	}
	if cfg.Backup.StartupDelay != time.Second {
		t.Errorf("StartupDelay = %v, want 1s", cfg.Backup.StartupDelay)
	}
	if cfg.Backup.Schedule != "@every 30m" {
		t.Errorf("Schedule = %q", cfg.Backup.Schedule)
	}
	if cfg.Backup.StrictVersion {
		t.Error("StrictVersion should be off by default")
	}
	if cfg.Storage.Ephemeral {
		t.Error("Ephemeral should be off by default")
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Security.EncryptionKey = "super-secret-key-1234567890"

	sanitized := Sanitize(cfg)

	if cfg.Security.EncryptionKey != "super-secret-key-1234567890" {
		t.Error("original config should not be modified")
	}
	if sanitized.Security.EncryptionKey == cfg.Security.EncryptionKey {
		t.Error("sanitized config should mask the encryption key")
	}
	if len(sanitized.Security.EncryptionKey) != len(cfg.Security.EncryptionKey) {
		t.Errorf("masked key length = %d, want %d", len(sanitized.Security.EncryptionKey), len(cfg.Security.EncryptionKey))
	}
}

func TestSanitize_EmptyKey(t *testing.T) {
	cfg := Default()

	if got := Sanitize(cfg).Security.EncryptionKey; got != "" {
		t.Errorf("empty key should stay empty, got %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a", "****"},
		{"abcd", "****"},
		{"abcde", "ab*de"},
		{"abcdef", "ab**ef"},
		{"1234567890", "12******90"},
	}

	for _, tt := range tests {
		if result := maskSecret(tt.input); result != tt.expected {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*ServerConfig)
		wantErr string
	}{
		{"default", func(*ServerConfig) {}, ""},
		{"bad addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "localhost" }, "server.http.addr"},
		{"cert without key", func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "cert.pem" }, "tls_key_file"},
		{"negative rate", func(c *ServerConfig) { c.Server.HTTP.RateLimit = -1 }, "rate_limit"},
		{"zero burst", func(c *ServerConfig) { c.Server.HTTP.RateBurst = 0 }, "rate_burst"},
		{"rate limit disabled", func(c *ServerConfig) {
			c.Server.HTTP.RateLimit = 0
			c.Server.HTTP.RateBurst = 0
		}, ""},
		{"zero body limit", func(c *ServerConfig) { c.Server.HTTP.MaxBodyBytes = 0 }, "max_body_bytes"},
		{"cors origins", func(c *ServerConfig) {
			c.Server.HTTP.CORSAllowedOrigins = []string{"*", "http://localhost:5173"}
		}, ""},
		{"bad cors origin", func(c *ServerConfig) {
			c.Server.HTTP.CORSAllowedOrigins = []string{"localhost:5173"}
		}, "cors_allowed_origins"},
		{"local socket", func(c *ServerConfig) { c.Server.Local.SocketPath = "/run/mdkeep.sock" }, ""},
		{"long socket path", func(c *ServerConfig) {
			c.Server.Local.SocketPath = "/" + strings.Repeat("a", MaxSocketPathLen)
		}, "socket_path"},
		{"empty state dir", func(c *ServerConfig) { c.Storage.StateDir = "" }, "storage.state_dir"},
		{"same dirs", func(c *ServerConfig) { c.Storage.BackupDir = c.Storage.StateDir }, "must differ"},
		{"ephemeral needs no dirs", func(c *ServerConfig) {
			c.Storage.Ephemeral = true
			c.Storage.StateDir = ""
			c.Storage.BackupDir = ""
		}, ""},
		{"empty export dir", func(c *ServerConfig) { c.Storage.ExportDir = "" }, "export_dir"},
		{"empty key prefix", func(c *ServerConfig) { c.Storage.KeyPrefix = "" }, "key_prefix"},
		{"zero max count", func(c *ServerConfig) { c.Backup.MaxCount = 0 }, "backup.max_count"},
		{"negative delay", func(c *ServerConfig) { c.Backup.StartupDelay = -time.Second }, "startup_delay"},
		{"bad schedule", func(c *ServerConfig) { c.Backup.Schedule = "every so often" }, "backup.schedule"},
		{"cron schedule", func(c *ServerConfig) { c.Backup.Schedule = "0 */2 * * *" }, ""},
		{"no schedule", func(c *ServerConfig) { c.Backup.Schedule = "" }, ""},
		{"short key", func(c *ServerConfig) { c.Security.EncryptionKey = "short" }, "encryption_key"},
		{"long key", func(c *ServerConfig) { c.Security.EncryptionKey = strings.Repeat("k", 32) }, ""},
		{"bad level", func(c *ServerConfig) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Verify() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Backup.MaxCount = 0
	cfg.Log.Format = "xml"

	err := Verify(cfg)
	if err == nil {
		t.Fatal("Verify() expected error")
	}
	for _, want := range []string{"max_count", "log.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Verify() error %q missing %q", err, want)
		}
	}
}
