package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/penwyp/go-usage-board/internal/core/model"
)

// Filter selects either every engine or a single one.
type Filter string

const FilterAll Filter = "all"

// ParseFilter accepts "all" or an engine name.
func ParseFilter(s string) (Filter, error) {
	if strings.EqualFold(strings.TrimSpace(s), string(FilterAll)) || s == "" {
		return FilterAll, nil
	}
	engine, err := model.ParseEngine(s)
	if err != nil {
		return "", err
	}
	return Filter(engine), nil
}

func (f Filter) Engine() (model.Engine, bool) {
	if f == FilterAll {
		return "", false
	}
	return model.Engine(f), true
}

// EngineSummary is one engine's share of the combined totals.
type EngineSummary struct {
	Engine   model.Engine `json:"engine"`
	Cost     float64      `json:"cost"`
	Tokens   int64        `json:"tokens"`
	Sessions int64        `json:"sessions"`
	Present  bool         `json:"present"`
}

// CombinedView merges the primary engine with every secondary engine that
// has settled successfully.
type CombinedView struct {
	Totals         model.Totals               `json:"totals"`
	ByEngine       []EngineSummary            `json:"by_engine"`
	ByModel        []model.EngineModelUsage   `json:"by_model"`
	ByProject      []model.EngineProjectUsage `json:"by_project"`
	ByDate         []model.DailyUsage         `json:"by_date"`
	FailedEngines  []model.Engine             `json:"failed_engines,omitempty"`
	PendingEngines []model.Engine             `json:"pending_engines,omitempty"`
}

// sources returns the stats of every present engine in display order.
func sources(primary model.EngineStats, secondaries map[model.Engine]model.SecondaryResult) map[model.Engine]model.EngineStats {
	present := make(map[model.Engine]model.EngineStats, len(model.AllEngines))
	if primary != nil {
		present[model.PrimaryEngine] = primary
	}
	for _, engine := range model.SecondaryEngines {
		if result, ok := secondaries[engine]; ok && result.Present() {
			present[engine] = result.Stats
		}
	}
	return present
}

// Aggregate builds the all-engines view. Absent, pending and failed
// secondaries contribute nothing; daily data comes from the primary only.
func Aggregate(primary model.EngineStats, secondaries map[model.Engine]model.SecondaryResult) *CombinedView {
	present := sources(primary, secondaries)
	view := &CombinedView{
		ByModel:   []model.EngineModelUsage{},
		ByProject: []model.EngineProjectUsage{},
		ByDate:    []model.DailyUsage{},
	}

	for _, engine := range model.AllEngines {
		stats, ok := present[engine]
		summary := EngineSummary{Engine: engine, Present: ok}
		if ok {
			totals := stats.Totals()
			view.Totals = view.Totals.Add(totals)
			summary.Cost = totals.Cost
			summary.Tokens = totals.Tokens
			summary.Sessions = totals.Sessions

			for _, m := range stats.Models() {
				view.ByModel = append(view.ByModel, model.EngineModelUsage{ModelUsage: m, Engine: engine})
			}
			for _, p := range stats.Projects() {
				view.ByProject = append(view.ByProject, model.EngineProjectUsage{ProjectUsage: p, Engine: engine})
			}
		}
		view.ByEngine = append(view.ByEngine, summary)
	}

	if primary != nil {
		view.ByDate = append(view.ByDate, primary.Days()...)
	}

	for _, engine := range model.SecondaryEngines {
		result := secondaries[engine]
		switch {
		case result.Failed():
			view.FailedEngines = append(view.FailedEngines, engine)
		case !result.Settled:
			view.PendingEngines = append(view.PendingEngines, engine)
		}
	}

	sort.SliceStable(view.ByModel, func(i, j int) bool {
		return view.ByModel[i].TotalCost > view.ByModel[j].TotalCost
	})
	sort.SliceStable(view.ByProject, func(i, j int) bool {
		return view.ByProject[i].TotalCost > view.ByProject[j].TotalCost
	})

	return view
}

// EngineView returns the selected engine's stats exactly as fetched, or
// false when that engine has no data.
func EngineView(engine model.Engine, primary model.EngineStats, secondaries map[model.Engine]model.SecondaryResult) (model.EngineStats, bool) {
	stats, ok := sources(primary, secondaries)[engine]
	return stats, ok
}

// View is the presentation-ready projection of either the combined view or
// a single engine.
type View struct {
	Filter         Filter                     `json:"engine"`
	Totals         model.Totals               `json:"totals"`
	ByEngine       []EngineSummary            `json:"by_engine,omitempty"`
	Models         []model.EngineModelUsage   `json:"by_model"`
	Projects       []model.EngineProjectUsage `json:"by_project"`
	Days           []model.DailyUsage         `json:"by_date"`
	Sessions       []model.ProjectUsage       `json:"sessions,omitempty"`
	FailedEngines  []model.Engine             `json:"failed_engines,omitempty"`
	PendingEngines []model.Engine             `json:"pending_engines,omitempty"`
}

// Select builds the View for filter. It returns an error when a single
// engine is requested but has no data.
func Select(filter Filter, primary model.EngineStats, secondaries map[model.Engine]model.SecondaryResult) (*View, error) {
	engine, single := filter.Engine()
	if !single {
		combined := Aggregate(primary, secondaries)
		return &View{
			Filter:         FilterAll,
			Totals:         combined.Totals,
			ByEngine:       combined.ByEngine,
			Models:         combined.ByModel,
			Projects:       combined.ByProject,
			Days:           combined.ByDate,
			FailedEngines:  combined.FailedEngines,
			PendingEngines: combined.PendingEngines,
		}, nil
	}

	stats, ok := EngineView(engine, primary, secondaries)
	if !ok {
		return nil, fmt.Errorf("no usage data for %s", engine.Label())
	}

	view := &View{
		Filter:   filter,
		Totals:   stats.Totals(),
		Models:   make([]model.EngineModelUsage, 0, len(stats.Models())),
		Projects: make([]model.EngineProjectUsage, 0, len(stats.Projects())),
		Days:     stats.Days(),
	}
	for _, m := range stats.Models() {
		view.Models = append(view.Models, model.EngineModelUsage{ModelUsage: m, Engine: engine})
	}
	for _, p := range stats.Projects() {
		view.Projects = append(view.Projects, model.EngineProjectUsage{ProjectUsage: p, Engine: engine})
	}
	if view.Days == nil {
		view.Days = []model.DailyUsage{}
	}
	return view, nil
}
