package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"
)

// mockServer is a test HTTP server dispatching on "METHOD /path" keys.
type mockServer struct {
	*httptest.Server
	handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []string
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		m.mu.Lock()
		m.requests = append(m.requests, key)
		m.mu.Unlock()
		if h, ok := m.handlers[key]; ok {
			h(w, r)
			return
		}
		errorResponse(w, http.StatusNotFound, "MK-SYS-4040", "no route")
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) handle(key string, h http.HandlerFunc) {
	m.handlers[key] = h
}

func (m *mockServer) seen(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r == key {
			return true
		}
	}
	return false
}

// jsonResponse writes a success envelope around data.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       "OK",
		"message":    "success",
		"request_id": "req_test",
		"data":       data,
	})
}

// errorResponse writes an error envelope.
func errorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       code,
		"message":    message,
		"request_id": "req_test",
	})
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

// runApp runs the CLI against server with a private CLI config file.
// stdin feeds confirmation prompts.
func runApp(t *testing.T, server *mockServer, stdin string, args ...string) runResult {
	t.Helper()
	if server != nil {
		args = append([]string{"--server", server.URL}, args...)
	}
	return run(t, stdin, args...)
}

// runAppWithURL runs the CLI against a raw server address.
func runAppWithURL(t *testing.T, url string, args ...string) runResult {
	t.Helper()
	return run(t, "", append([]string{"--server", url}, args...)...)
}

func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()

	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := []string{"mdkeep-cli", "--config", filepath.Join(t.TempDir(), "cli.yaml")}
	full = append(full, args...)

	err := app.Run(full)
	return runResult{stdout: out.String(), stderr: errOut.String(), err: err}
}
