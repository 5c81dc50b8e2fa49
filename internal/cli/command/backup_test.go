package command

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/mdkeep-go/internal/cli/connection"
	"github.com/yndnr/mdkeep-go/internal/core/domain"
)

func TestBackupCommand_Subcommands(t *testing.T) {
	cmd := BackupCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		names[sub.Name] = true
		if sub.Action == nil {
			t.Errorf("%s has no action", sub.Name)
		}
	}
	for _, want := range []string{"list", "create", "get", "restore", "delete", "export", "exports", "import"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestBackupList(t *testing.T) {
	server := newMockServer(t)
	server.handle("GET /backups", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"items": []domain.IndexEntry{
				{ID: "01hzb", Time: "2024-05-01T09:00:00.000Z", Note: "automatic backup on save"},
				{ID: "01hza", Time: "2024-05-01T08:30:00.000Z", Note: "manual backup"},
			},
			"total": 2,
		})
	})

	t.Run("table", func(t *testing.T) {
		res := runApp(t, server, "", "backup", "list")
		if res.err != nil {
			t.Fatalf("run error = %v", res.err)
		}
		lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines:\n%s", len(lines), res.stdout)
		}
		if !strings.HasPrefix(lines[0], "ID") || !strings.HasPrefix(lines[1], "01hzb") {
			t.Errorf("unexpected table:\n%s", res.stdout)
		}
	})

	t.Run("json", func(t *testing.T) {
		res := runApp(t, server, "", "-o", "json", "backup", "list")
		if res.err != nil {
			t.Fatalf("run error = %v", res.err)
		}
		var got listBackupsResult
		if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, res.stdout)
		}
		if got.Total != 2 || got.Items[1].Note != "manual backup" {
			t.Errorf("got %+v", got)
		}
	})
}

func TestBackupList_Empty(t *testing.T) {
	server := newMockServer(t)
	server.handle("GET /backups", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{"items": []any{}, "total": 0})
	})

	res := runApp(t, server, "", "backup", "ls")
	if res.err != nil {
		t.Fatalf("run error = %v", res.err)
	}
	if strings.TrimSpace(res.stdout) != "No backups." {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestBackupCreate(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantBody string
	}{
		{"with note", []string{"backup", "create", "--note", "before refactor"}, `{"note":"before refactor"}`},
		{"without note", []string{"backup", "create"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newMockServer(t)
			var gotBody string
			server.handle("POST /backups", func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				gotBody = string(b)
				jsonResponse(w, http.StatusCreated, map[string]string{"id": "01hzc", "note": "manual backup"})
			})

			res := runApp(t, server, "", tt.args...)
			if res.err != nil {
				t.Fatalf("run error = %v", res.err)
			}
			if gotBody != tt.wantBody {
				t.Errorf("request body = %q, want %q", gotBody, tt.wantBody)
			}
			if !strings.Contains(res.stdout, "Backup created: 01hzc") {
				t.Errorf("stdout = %q", res.stdout)
			}
		})
	}
}

func TestBackupGet(t *testing.T) {
	server := newMockServer(t)
	server.handle("GET /backups/01hza", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"id": "01hza",
			"snapshot": domain.Snapshot{
				Documents:     []domain.Document{{Title: "Notes", Content: "# Notes"}},
				StyleConfig:   &domain.StyleConfig{Active: "custom"},
				Settings:      &domain.Settings{Theme: "dark"},
				BackupTime:    "2024-05-01T08:30:00.000Z",
				BackupVersion: domain.BackupVersion,
			},
		})
	})

	res := runApp(t, server, "", "backup", "get", "01hza")
	if res.err != nil {
		t.Fatalf("run error = %v", res.err)
	}
	for _, want := range []string{"01hza", "Documents: 1", "Notes", "active: custom", "dark"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestBackupGet_NotFound(t *testing.T) {
	server := newMockServer(t)
	server.handle("GET /backups/missing", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusNotFound, "MK-BAK-4040", "backup not found")
	})

	res := runApp(t, server, "", "backup", "get", "missing")
	var apiErr *connection.APIError
	if !errors.As(res.err, &apiErr) || apiErr.Code != "MK-BAK-4040" {
		t.Errorf("error = %v, want MK-BAK-4040", res.err)
	}
}

func TestBackupGet_MissingArg(t *testing.T) {
	res := runApp(t, newMockServer(t), "", "backup", "get")
	if res.err == nil || !strings.Contains(res.err.Error(), "ID is required") {
		t.Errorf("error = %v", res.err)
	}
}

func TestBackupRestore(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		stdin      string
		wantCalled bool
	}{
		{"force", []string{"backup", "restore", "--force", "01hza"}, "", true},
		{"confirmed", []string{"backup", "restore", "01hza"}, "y\n", true},
		{"declined", []string{"backup", "restore", "01hza"}, "n\n", false},
		{"no input", []string{"backup", "restore", "01hza"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newMockServer(t)
			server.handle("POST /backups/01hza/restore", func(w http.ResponseWriter, r *http.Request) {
				jsonResponse(w, http.StatusOK, map[string]any{"id": "01hza", "restored": true})
			})

			res := runApp(t, server, tt.stdin, tt.args...)
			if res.err != nil {
				t.Fatalf("run error = %v", res.err)
			}
			if called := server.seen("POST /backups/01hza/restore"); called != tt.wantCalled {
				t.Errorf("restore called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantCalled && !strings.Contains(res.stdout, "Restored backup 01hza") {
				t.Errorf("stdout = %q", res.stdout)
			}
		})
	}
}

func TestBackupDelete(t *testing.T) {
	server := newMockServer(t)
	server.handle("DELETE /backups/01hza", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{"id": "01hza", "deleted": true})
	})

	res := runApp(t, server, "", "-o", "json", "backup", "rm", "-f", "01hza")
	if res.err != nil {
		t.Fatalf("run error = %v", res.err)
	}
	var got backupAction
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if !got.Deleted || got.ID != "01hza" {
		t.Errorf("got %+v", got)
	}
}

func TestBackupExport_Local(t *testing.T) {
	const payload = `{"posts":[],"cssContentConfig":{"active":"","tabs":[]},"settings":{}}`
	server := newMockServer(t)
	server.handle("GET /export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="md-backup-2024-05-01-083000.json"`)
		w.Write([]byte(payload))
	})

	dir := filepath.Join(t.TempDir(), "exports")
	res := runApp(t, server, "", "backup", "export", "--dir", dir)
	if res.err != nil {
		t.Fatalf("run error = %v", res.err)
	}

	path := filepath.Join(dir, "md-backup-2024-05-01-083000.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("export file: %v", err)
	}
	if string(data) != payload {
		t.Errorf("export content = %q", data)
	}
	if !strings.Contains(res.stdout, path) {
		t.Errorf("stdout = %q", res.stdout)
	}

	// A second export with the same name must not overwrite the first.
	if res := runApp(t, server, "", "backup", "export", "--dir", dir); res.err == nil {
		t.Error("expected error for existing export file")
	}
}

func TestBackupExport_Remote(t *testing.T) {
	server := newMockServer(t)
	server.handle("POST /exports", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusCreated, map[string]string{"path": "/srv/exports/md-backup-x.json"})
	})

	res := runApp(t, server, "", "backup", "export", "--remote")
	if res.err != nil {
		t.Fatalf("run error = %v", res.err)
	}
	if !strings.Contains(res.stdout, "/srv/exports/md-backup-x.json") {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestBackupExports(t *testing.T) {
	server := newMockServer(t)
	server.handle("GET /exports", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"items": []map[string]any{{
				"name":       "md-backup-2024-05-01-083000.json",
				"path":       "/srv/exports/md-backup-2024-05-01-083000.json",
				"size":       120,
				"created_at": "2024-05-01T08:30:00Z",
			}},
			"total": 1,
		})
	})

	res := runApp(t, server, "", "backup", "exports")
	if res.err != nil {
		t.Fatalf("run error = %v", res.err)
	}
	if !strings.Contains(res.stdout, "NAME") || !strings.Contains(res.stdout, "md-backup-2024-05-01-083000.json") {
		t.Errorf("stdout:\n%s", res.stdout)
	}
}

func TestBackupImport(t *testing.T) {
	file := filepath.Join(t.TempDir(), "in.json")
	if err := os.WriteFile(file, []byte(`{"posts":[]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		imported bool
		wantErr  bool
	}{
		{"accepted", true, false},
		{"rejected", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newMockServer(t)
			var gotBody string
			server.handle("POST /import", func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				gotBody = string(b)
				jsonResponse(w, http.StatusOK, map[string]bool{"imported": tt.imported})
			})

			res := runApp(t, server, "", "backup", "import", file)
			if (res.err != nil) != tt.wantErr {
				t.Fatalf("run error = %v, wantErr %v", res.err, tt.wantErr)
			}
			if gotBody != `{"posts":[]}` {
				t.Errorf("uploaded body = %q", gotBody)
			}
			if tt.wantErr && !errors.Is(res.err, errImportRejected) {
				t.Errorf("error = %v, want errImportRejected", res.err)
			}
		})
	}
}

func TestBackupImport_WrongExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"notes.txt", "backup", "in.json.bak"} {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(dir, name)
			if err := os.WriteFile(file, []byte(`{"posts":[]}`), 0o600); err != nil {
				t.Fatal(err)
			}
			server := newMockServer(t)
			server.handle("POST /import", func(w http.ResponseWriter, r *http.Request) {
				jsonResponse(w, http.StatusOK, map[string]bool{"imported": true})
			})

			res := runApp(t, server, "", "backup", "import", file)
			if !errors.Is(res.err, errImportExt) {
				t.Errorf("error = %v, want errImportExt", res.err)
			}
			if server.seen("POST /import") {
				t.Error("file with the wrong extension was uploaded")
			}
		})
	}
}

func TestBackupImport_UppercaseExtension(t *testing.T) {
	file := filepath.Join(t.TempDir(), "IN.JSON")
	if err := os.WriteFile(file, []byte(`{"posts":[]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	server := newMockServer(t)
	server.handle("POST /import", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]bool{"imported": true})
	})

	if res := runApp(t, server, "", "backup", "import", file); res.err != nil {
		t.Fatalf("run error = %v", res.err)
	}
	if !server.seen("POST /import") {
		t.Error("upload not sent")
	}
}

func TestBackupImport_MissingFile(t *testing.T) {
	res := runApp(t, newMockServer(t), "", "backup", "import", filepath.Join(t.TempDir(), "nope.json"))
	if res.err == nil {
		t.Error("expected error for missing file")
	}
}
