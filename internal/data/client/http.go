package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/penwyp/go-usage-board/internal/util"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8080"
	DefaultTimeout = 30 * time.Second

	statsPath    = "/api/usage/stats"
	rangePath    = "/api/usage/range"
	sessionsPath = "/api/usage/sessions"
	enginesPath  = "/api/usage/engines/"
)

// HTTPClient implements StatsClient against the usage backend's JSON API
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for baseURL. A zero timeout uses DefaultTimeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) FetchPrimaryStats(ctx context.Context) (*model.UsageStats, error) {
	var stats model.UsageStats
	if err := c.getJSON(ctx, statsPath, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) FetchPrimaryStatsForRange(ctx context.Context, start, end string) (*model.UsageStats, error) {
	var stats model.UsageStats
	query := boundsQuery("start", start, "end", end)
	if err := c.getJSON(ctx, rangePath, query, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) FetchSessionStats(ctx context.Context, since, until, order string) ([]model.ProjectUsage, error) {
	query := boundsQuery("since", since, "until", until)
	if order != "" {
		query.Set("order", order)
	}

	var projects []model.ProjectUsage
	if err := c.getJSON(ctx, sessionsPath, query, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *HTTPClient) FetchSecondaryStats(ctx context.Context, engine model.Engine, start, end string) (model.EngineStats, error) {
	path := enginesPath + url.PathEscape(string(engine))
	query := boundsQuery("start", start, "end", end)

	switch engine {
	case model.EngineCodex:
		var stats model.CodexUsageStats
		if err := c.getJSON(ctx, path, query, &stats); err != nil {
			return nil, err
		}
		return &stats, nil
	case model.EngineGemini:
		var stats model.GeminiUsageStats
		if err := c.getJSON(ctx, path, query, &stats); err != nil {
			return nil, err
		}
		return &stats, nil
	default:
		return nil, fmt.Errorf("%w: %q is not a secondary engine", model.ErrUnknownEngine, engine)
	}
}

func boundsQuery(startKey, start, endKey, end string) url.Values {
	query := url.Values{}
	if start != "" {
		query.Set(startKey, start)
	}
	if end != "" {
		query.Set(endKey, end)
	}
	return query
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	util.LogDebug("Fetching usage data", util.F("url", endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		util.LogDebug("Unexpected HTTP status code", util.F("url", endpoint), util.F("status", resp.StatusCode))
		return fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}
