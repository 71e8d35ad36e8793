package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL+"/", time.Second)
}

func TestFetchPrimaryStats(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/usage/stats", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"total_cost": 12.5, "total_tokens": 1000, "total_sessions": 3,
			"by_model": [{"model": "claude-sonnet-4-20250514", "total_cost": 12.5}]}`))
	})

	stats, err := client.FetchPrimaryStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, stats.TotalCost)
	assert.Equal(t, int64(3), stats.TotalSessions)
	require.Len(t, stats.ByModel, 1)
	assert.Equal(t, "claude-sonnet-4-20250514", stats.ByModel[0].Model)
}

func TestFetchPrimaryStatsForRange(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/usage/range", r.URL.Path)
		assert.Equal(t, "2024-03-08", r.URL.Query().Get("start"))
		assert.Equal(t, "2024-03-15", r.URL.Query().Get("end"))
		_, _ = w.Write([]byte(`{"total_cost": 1}`))
	})

	stats, err := client.FetchPrimaryStatsForRange(context.Background(), "2024-03-08", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 1.0, stats.TotalCost)
}

func TestFetchSessionStats(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/usage/sessions", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "20240308", q.Get("since"))
		assert.Equal(t, "20240315", q.Get("until"))
		assert.Equal(t, "desc", q.Get("order"))
		_, _ = w.Write([]byte(`[{"project_path": "/work/app", "project_name": "app", "total_cost": 2.5, "session_count": 4}]`))
	})

	projects, err := client.FetchSessionStats(context.Background(), "20240308", "20240315", "desc")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "/work/app", projects[0].ProjectPath)
	assert.Equal(t, int64(4), projects[0].SessionCount)
}

func TestFetchSessionStatsUnbounded(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`[]`))
	})

	projects, err := client.FetchSessionStats(context.Background(), "", "", "")
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestFetchSecondaryStats(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/usage/engines/codex":
			_, _ = w.Write([]byte(`{"total_cost": 3, "total_cached_input_tokens": 50}`))
		case "/api/usage/engines/gemini":
			_, _ = w.Write([]byte(`{"total_cost": 4, "total_sessions": 2}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	codex, err := client.FetchSecondaryStats(context.Background(), model.EngineCodex, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.EngineCodex, codex.Engine())
	assert.Equal(t, int64(50), codex.Totals().CacheReadTokens)

	gemini, err := client.FetchSecondaryStats(context.Background(), model.EngineGemini, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.EngineGemini, gemini.Engine())
	assert.Equal(t, int64(2), gemini.Totals().Sessions)

	_, err = client.FetchSecondaryStats(context.Background(), model.EngineClaude, "", "")
	assert.True(t, errors.Is(err, model.ErrUnknownEngine))
}

func TestFetchUnexpectedStatus(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchPrimaryStats(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestFetchMalformedBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := client.FetchPrimaryStats(context.Background())
	assert.Error(t, err)
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.FetchPrimaryStats(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewHTTPClientDefaults(t *testing.T) {
	client := NewHTTPClient("", 0)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
}
