package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"text format", Config{Level: "debug", Format: "text"}, false},
		{"console format", Config{Level: "info", Format: "console"}, false},
		{"empty", Config{}, false},
		{"bad format", Config{Format: "xml"}, true},
		{"bad level", Config{Level: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("New() should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("test message", "component", "test-value")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("invalid JSON output: %v", err)
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["component"] != "test-value" {
				t.Errorf("component = %v", entry["component"])
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer SetLevel("info")

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatal("debug logged at info level")
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatal(err)
	}
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() = %s", GetLevel())
	}
	l.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug not logged after SetLevel(debug)")
	}

	if err := SetLevel("verbose"); err == nil {
		t.Error("SetLevel() should reject unknown levels")
	}
	if GetLevel() != "debug" {
		t.Error("failed SetLevel must not change the level")
	}
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
		if _, err := ParseLevel(name); err != nil {
			t.Errorf("ParseLevel(%q) error = %v", name, err)
		}
	}
}

func TestRedaction(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	l.Info("config loaded",
		"encryption_key", "hunter2",
		"content", "# My private diary",
		"key", "MD__posts",
		"api_token", "",
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}

	if entry["encryption_key"] != redactedValue {
		t.Errorf("encryption_key = %v", entry["encryption_key"])
	}
	if entry["content"] != "[18 bytes]" {
		t.Errorf("content = %v", entry["content"])
	}
	if entry["key"] != "MD__posts" {
		t.Errorf("state key should not be redacted, got %v", entry["key"])
	}
	if entry["api_token"] != "" {
		t.Errorf("empty secret = %v", entry["api_token"])
	}
	if strings.Contains(buf.String(), "hunter2") || strings.Contains(buf.String(), "diary") {
		t.Error("secret leaked into output")
	}
}

func TestRedaction_Groups(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	l.WithGroup("security").Info("x", "encryption_key", "abc")
	if strings.Contains(buf.String(), "abc") {
		t.Errorf("grouped secret leaked: %s", buf.String())
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := map[string]bool{
		"password":       true,
		"Encryption_Key": true,
		"x_secret":       true,
		"Authorization":  true,
		"key":            false,
		"id":             false,
	}
	for key, want := range tests {
		if got := IsSensitiveKey(key); got != want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", key, got, want)
		}
	}
	if RedactString("") != "" || RedactString("x") != redactedValue {
		t.Error("RedactString() mismatch")
	}
}

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-1")

	if RequestIDFromContext(ctx) != "req-1" {
		t.Errorf("RequestIDFromContext() = %q", RequestIDFromContext(ctx))
	}
	if FromContext(context.Background()) == nil {
		t.Error("FromContext() without logger returned nil")
	}

	L(ctx).Info("hello")
	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("request_id missing: %s", buf.String())
	}
}
