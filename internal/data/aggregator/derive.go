package aggregator

import (
	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/penwyp/go-usage-board/internal/util"
)

const (
	// TopN is how many models and projects the summary highlights.
	TopN = 3
	// ItemsPerPage is the project and session list page size.
	ItemsPerPage = 10
)

// AverageCostPerSession is zero when the view has no sessions.
func (v *View) AverageCostPerSession() float64 {
	return util.AverageCost(v.Totals.Cost, v.Totals.Sessions)
}

// TopModels returns up to n models in the view's order.
func (v *View) TopModels(n int) []model.EngineModelUsage {
	return head(v.Models, n)
}

// TopProjects returns up to n projects in the view's order.
func (v *View) TopProjects(n int) []model.EngineProjectUsage {
	return head(v.Projects, n)
}

func head[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) < n {
		n = len(items)
	}
	return items[:n]
}

// Page is one slice of a paginated list. Start and End are zero-based,
// End exclusive.
type Page[T any] struct {
	Items      []T
	Number     int
	TotalPages int
	Start      int
	End        int
	Total      int
}

// Paginate returns page number (1-based, clamped to the valid range).
func Paginate[T any](items []T, number, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = ItemsPerPage
	}
	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	start := (number - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}

	return Page[T]{
		Items:      items[start:end],
		Number:     number,
		TotalPages: totalPages,
		Start:      start,
		End:        end,
		Total:      total,
	}
}

// TimelineBar is one day of the cost chart.
type TimelineBar struct {
	model.DailyUsage
	HeightPercent float64
}

// Timeline is the daily cost chart in chronological order.
type Timeline struct {
	MaxCost     float64
	HalfMaxCost float64
	Bars        []TimelineBar
}

// BuildTimeline reverses the backend's newest-first day list and scales bar
// heights against the most expensive day. It returns nil for no days.
func BuildTimeline(days []model.DailyUsage) *Timeline {
	if len(days) == 0 {
		return nil
	}

	maxCost := 0.0
	for _, d := range days {
		if d.TotalCost > maxCost {
			maxCost = d.TotalCost
		}
	}

	bars := make([]TimelineBar, 0, len(days))
	for i := len(days) - 1; i >= 0; i-- {
		bar := TimelineBar{DailyUsage: days[i]}
		if maxCost > 0 {
			bar.HeightPercent = days[i].TotalCost / maxCost * 100
		}
		bars = append(bars, bar)
	}

	return &Timeline{
		MaxCost:     maxCost,
		HalfMaxCost: maxCost / 2,
		Bars:        bars,
	}
}

// Costs returns the bar costs in chart order.
func (t *Timeline) Costs() []float64 {
	costs := make([]float64, len(t.Bars))
	for i, bar := range t.Bars {
		costs[i] = bar.TotalCost
	}
	return costs
}
