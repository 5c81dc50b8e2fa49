package command

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "mdkeep-cli" {
		t.Errorf("Name = %q", app.Name)
	}

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"backup", "system", "config"} {
		if !names[want] {
			t.Errorf("missing command %q", want)
		}
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		for _, n := range f.Names() {
			flags[n] = true
		}
	}
	for _, want := range []string{"server", "s", "output", "o", "verbose", "config"} {
		if !flags[want] {
			t.Errorf("missing global flag %q", want)
		}
	}
}

func TestGlobalFlags_CLIConfigDefaults(t *testing.T) {
	server := healthyServer(t, "1.2.3")

	cliPath := filepath.Join(t.TempDir(), "cli.yaml")
	content := "server: " + server.URL + "\noutput: json\n"
	if err := os.WriteFile(cliPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	// No --server and no --output: both come from the CLI config.
	res := run(t, "", "--config", cliPath, "system", "health")
	if res.err != nil {
		t.Fatalf("run error = %v", res.err)
	}
	if !strings.HasPrefix(strings.TrimSpace(res.stdout), "{") {
		t.Errorf("expected JSON output, got %q", res.stdout)
	}
}

func TestGlobalFlags_FlagBeatsConfig(t *testing.T) {
	server := newMockServer(t)
	server.handle("GET /backups", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{"items": []any{}, "total": 0})
	})

	cliPath := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(cliPath, []byte("server: 127.0.0.1:1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	res := run(t, "", "--config", cliPath, "--server", server.URL, "backup", "list")
	if res.err != nil {
		t.Fatalf("run error = %v", res.err)
	}
}

func TestGlobalFlags_BadOutput(t *testing.T) {
	res := runApp(t, healthyServer(t, "1"), "", "-o", "xml", "system", "version")
	if res.err == nil || !strings.Contains(res.err.Error(), "unknown output format") {
		t.Errorf("error = %v", res.err)
	}
}

func TestVerbose(t *testing.T) {
	server := healthyServer(t, "1.2.3")
	res := runApp(t, server, "", "--verbose", "system", "health")
	if res.err != nil {
		t.Fatalf("run error = %v", res.err)
	}
	if !strings.Contains(res.stderr, server.URL) {
		t.Errorf("stderr = %q", res.stderr)
	}
}
