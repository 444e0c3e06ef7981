package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/econet-core/internal/infrastructure/config"
	"github.com/nerrad567/econet-core/internal/infrastructure/logging"
)

// writeConfig writes a config pointing at apiURL and an MQTT port that
// refuses connections.
func writeConfig(t *testing.T, apiURL string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
account:
  email: "user@example.com"
  password: "secret"
  api_url: %q
  request_timeout: 5

mqtt:
  broker:
    host: "127.0.0.1"
    port: 19999
    tls: false
  reconnect:
    initial_delay: 1
    max_delay: 5

journal:
  enabled: true
  path: %q

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stderr
`, apiURL, filepath.Join(dir, "journal.db"))

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// fakeLogin serves the login endpoint with the given options.
func fakeLogin(success bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/auth" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if success {
			fmt.Fprint(w, `{"user_token":"tok","options":{"success":true,"account_id":"1234"}}`)
			return
		}
		fmt.Fprint(w, `{"options":{"success":false,"message":"Invalid credentials"}}`)
	}))
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("ECONET_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("run() error = %v, want config load failure", err)
	}
}

func TestRun_LoginRejected(t *testing.T) {
	srv := fakeLogin(false)
	defer srv.Close()
	t.Setenv("ECONET_CONFIG", writeConfig(t, srv.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "Invalid credentials") {
		t.Fatalf("run() error = %v, want authentication failure", err)
	}
}

func TestRun_BrokerUnreachable(t *testing.T) {
	srv := fakeLogin(true)
	defer srv.Close()
	t.Setenv("ECONET_CONFIG", writeConfig(t, srv.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "connecting to MQTT") {
		t.Fatalf("run() error = %v, want MQTT connection failure", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("ECONET_CONFIG", "")
	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}

	t.Setenv("ECONET_CONFIG", "/custom/path/config.yaml")
	if path := getConfigPath(); path != "/custom/path/config.yaml" {
		t.Errorf("getConfigPath() = %q, want env override", path)
	}
}

func TestOpenJournal(t *testing.T) {
	ctx := context.Background()
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
	db, err := openJournal(ctx, config.JournalConfig{
		Enabled:     true,
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	}, log)
	if err != nil {
		t.Fatalf("openJournal() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	var name string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='command_journal'",
	).Scan(&name)
	if err != nil {
		t.Fatalf("command_journal table missing: %v", err)
	}

	if v, err := db.SchemaVersion(ctx); err != nil || v != "20261001_090000" {
		t.Errorf("SchemaVersion() = %q, %v, want 20261001_090000", v, err)
	}
}

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestRefreshLoop(t *testing.T) {
	ref := &countingRefresher{err: errors.New("econet: transport error")}
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		refreshLoop(ctx, ref, 5*time.Millisecond, log)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for ref.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refreshLoop did not stop after cancel")
	}
	if ref.calls.Load() < 3 {
		t.Errorf("refreshed %d times, want at least 3 despite failures", ref.calls.Load())
	}
}
