package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/penwyp/go-usage-board/internal/application/usage"
	"github.com/penwyp/go-usage-board/internal/data/client"
	"github.com/penwyp/go-usage-board/internal/util"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected func(string) string
	}{
		{
			name:  "home directory expansion",
			input: "~/test/path",
			expected: func(home string) string {
				return filepath.Join(home, "test/path")
			},
		},
		{
			name:  "absolute path unchanged",
			input: "/absolute/path",
			expected: func(home string) string {
				return "/absolute/path"
			},
		},
		{
			name:  "relative path converted to absolute",
			input: "relative/path",
			expected: func(home string) string {
				abs, _ := filepath.Abs("relative/path")
				return abs
			},
		},
	}

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected(home), expandPath(tt.input))
		})
	}
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(t.TempDir(), "test", "nested", "dir")

	require.NoError(t, ensureDir(testDir))
	info, err := os.Stat(testDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, ensureDir(testDir))
}

// newFlagCommand builds a command carrying the root flags so flag
// precedence can be tested without touching rootCmd.
func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().AddFlagSet(rootCmd.Flags())
	require.NoError(t, cmd.ParseFlags(args))
	t.Cleanup(func() {
		for _, name := range []string{"api", "range", "engine", "page", "output", "timezone", "refresh"} {
			cmd.Flags().Lookup(name).Changed = false
		}
		apiURL, rangeFlag, engineFlag, outputFormat, timezone = "", "", "", "", ""
		page = 1
	})
	return cmd
}

func TestResolveConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[api]
base_url = "http://file:1"

[display]
range = "30d"
engine = "codex"
output = "csv"
`), 0644))

	prevConfig := configFile
	configFile = cfgPath
	t.Cleanup(func() { configFile = prevConfig })
	t.Setenv(usage.EnvAPI, "http://env:2")
	t.Setenv(usage.EnvCacheTTL, "90")

	cmd := newFlagCommand(t, "--range", "today", "--output", "JSON")
	cfg, err := resolveConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, "http://env:2", cfg.APIBaseURL, "env overrides file")
	assert.Equal(t, "today", cfg.Range, "flag overrides file")
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "codex", cfg.Engine, "file value kept")
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 1, cfg.Page)
}

func TestResolveConfigRejectsBadFlag(t *testing.T) {
	prevConfig := configFile
	configFile = filepath.Join(t.TempDir(), "missing.toml")
	t.Cleanup(func() { configFile = prevConfig })

	cmd := newFlagCommand(t, "--engine", "copilot")
	_, err := resolveConfig(cmd)
	assert.Error(t, err)
}

type fakeBackend struct {
	primaryStatus int32
	requests      atomic.Int32
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/api/usage/range", func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		if status := atomic.LoadInt32(&b.primaryStatus); status != 0 {
			w.WriteHeader(int(status))
			return
		}
		writeJSON(w, map[string]any{
			"total_cost":     3.5,
			"total_tokens":   4200,
			"total_sessions": 2,
			"by_model": []map[string]any{
				{"model": "claude-sonnet-4-20250514", "total_cost": 3.5, "total_tokens": 4200, "session_count": 2},
			},
			"by_project": []map[string]any{
				{"project_path": "/work/api", "project_name": "api", "total_cost": 3.5, "session_count": 2},
			},
			"by_date": []map[string]any{
				{"date": "2024-03-15", "total_cost": 2.5},
				{"date": "2024-03-14", "total_cost": 1},
			},
		})
	})
	mux.HandleFunc("/api/usage/sessions", func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		writeJSON(w, []map[string]any{{"project_path": "/work/api", "total_cost": 3.5}})
	})
	mux.HandleFunc("/api/usage/engines/codex", func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		writeJSON(w, map[string]any{
			"total_cost":     1.5,
			"total_tokens":   1000,
			"total_sessions": 1,
			"by_model":       []map[string]any{{"model": "gpt-5-codex", "total_cost": 1.5, "session_count": 1}},
		})
	})
	mux.HandleFunc("/api/usage/engines/gemini", func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	return mux
}

func newTestDashboard(t *testing.T, b *fakeBackend, cfg usage.Config) *dashboard {
	t.Helper()
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)

	require.NoError(t, cfg.Validate())
	clock := util.NewManualClock(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))
	d, err := newDashboard(cfg, client.NewHTTPClient(server.URL, time.Second), clock)
	require.NoError(t, err)
	return d
}

func TestDashboardRenderCombinesEngines(t *testing.T) {
	b := &fakeBackend{}
	d := newTestDashboard(t, b, usage.Config{Output: usage.OutputSummary})

	var buf bytes.Buffer
	require.NoError(t, d.render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, "Date Range: Last 7 days (2024-03-08 to 2024-03-15)")
	assert.Contains(t, out, "Total Cost: $5.00 USD")
	assert.Contains(t, out, "OpenAI Codex: $1.50 USD")
	assert.NotContains(t, out, "Google Gemini:")
}

func TestDashboardRenderServesRepeatLoadsFromCache(t *testing.T) {
	b := &fakeBackend{}
	d := newTestDashboard(t, b, usage.Config{Output: usage.OutputJSON})

	var first, second bytes.Buffer
	require.NoError(t, d.render(context.Background(), &first))
	requests := b.requests.Load()
	assert.Equal(t, int32(4), requests)

	require.NoError(t, d.render(context.Background(), &second))
	assert.Equal(t, requests+1, b.requests.Load(), "failed gemini fetch is not cached")
	assert.JSONEq(t, first.String(), second.String())
}

func TestDashboardRenderEngineFilter(t *testing.T) {
	b := &fakeBackend{}
	d := newTestDashboard(t, b, usage.Config{Output: usage.OutputCSV, Engine: "codex"})

	var buf bytes.Buffer
	require.NoError(t, d.render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "model,codex,gpt-5-codex")
	assert.NotContains(t, buf.String(), "claude")
}

func TestDashboardRenderPrimaryFailure(t *testing.T) {
	b := &fakeBackend{primaryStatus: http.StatusInternalServerError}
	d := newTestDashboard(t, b, usage.Config{})

	var buf bytes.Buffer
	err := d.render(context.Background(), &buf)
	require.Error(t, err)
	assert.Equal(t, usage.UserErrorMessage, err.Error())
	assert.Empty(t, buf.String())
	assert.Equal(t, usage.UserErrorMessage, d.loader.Store().Snapshot().Error)
}

func TestDashboardLoopRetriesAfterFailure(t *testing.T) {
	b := &fakeBackend{primaryStatus: http.StatusBadGateway}
	d := newTestDashboard(t, b, usage.Config{Output: usage.OutputSummary})

	ctx, cancel := context.WithCancel(context.Background())
	var buf syncBuffer
	done := make(chan error, 1)
	go func() { done <- d.loop(ctx, &buf, 20*time.Millisecond, nil) }()

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "retrying in 20ms")
	}, time.Second, 5*time.Millisecond)

	atomic.StoreInt32(&b.primaryStatus, 0)
	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "Usage Summary Report")
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestDashboardLoopReloadPurgesCache(t *testing.T) {
	b := &fakeBackend{}
	d := newTestDashboard(t, b, usage.Config{Output: usage.OutputSummary})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reload := make(chan os.Signal, 1)
	var buf syncBuffer
	done := make(chan error, 1)
	go func() { done <- d.loop(ctx, &buf, time.Hour, reload) }()

	require.Eventually(t, func() bool {
		return strings.Count(buf.String(), "Usage Summary Report") == 1
	}, time.Second, 5*time.Millisecond)
	first := b.requests.Load()

	reload <- syscall.SIGHUP
	require.Eventually(t, func() bool {
		return strings.Count(buf.String(), "Usage Summary Report") == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2*first, b.requests.Load(), "every source is fetched again")

	cancel()
	assert.NoError(t, <-done)
}
