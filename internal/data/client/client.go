package client

import (
	"context"
	"errors"

	"github.com/penwyp/go-usage-board/internal/core/model"
)

// ErrUnexpectedStatus is wrapped by errors for non-200 backend responses.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// StatsClient is the backend surface the usage loader depends on. Empty
// string arguments mean unbounded (dates) or backend default (order).
type StatsClient interface {
	FetchPrimaryStats(ctx context.Context) (*model.UsageStats, error)
	FetchPrimaryStatsForRange(ctx context.Context, start, end string) (*model.UsageStats, error)
	FetchSessionStats(ctx context.Context, since, until, order string) ([]model.ProjectUsage, error)
	FetchSecondaryStats(ctx context.Context, engine model.Engine, start, end string) (model.EngineStats, error)
}
