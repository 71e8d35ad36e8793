package model

import (
	"fmt"
	"strings"
)

// Engine identifies an assistant engine whose usage is reported by the backend.
type Engine string

const (
	EngineClaude Engine = "claude"
	EngineCodex  Engine = "codex"
	EngineGemini Engine = "gemini"
)

// PrimaryEngine is fetched first and must succeed; the others are best-effort.
const PrimaryEngine = EngineClaude

// AllEngines lists engines in display order.
var AllEngines = []Engine{EngineClaude, EngineCodex, EngineGemini}

// SecondaryEngines lists the best-effort engines in fetch order.
var SecondaryEngines = []Engine{EngineCodex, EngineGemini}

var engineLabels = map[Engine]string{
	EngineClaude: "Claude",
	EngineCodex:  "OpenAI Codex",
	EngineGemini: "Google Gemini",
}

var engineColors = map[Engine]string{
	EngineClaude: "#D97706",
	EngineCodex:  "#3B82F6",
	EngineGemini: "#8B5CF6",
}

// ParseEngine parses an engine name (case-insensitive).
func ParseEngine(s string) (Engine, error) {
	e := Engine(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := engineLabels[e]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
	return e, nil
}

// Label returns the human readable engine name.
func (e Engine) Label() string {
	if label, ok := engineLabels[e]; ok {
		return label
	}
	return string(e)
}

// Color returns the engine's brand color as a hex string.
func (e Engine) Color() string {
	if color, ok := engineColors[e]; ok {
		return color
	}
	return engineColors[EngineClaude]
}

// IsSecondary reports whether failures for this engine are tolerated.
func (e Engine) IsSecondary() bool {
	return e != PrimaryEngine
}

// ModelUsage is one model's usage within a single engine.
type ModelUsage struct {
	Model               string  `json:"model"`
	TotalCost           float64 `json:"total_cost"`
	TotalTokens         int64   `json:"total_tokens"`
	InputTokens         int64   `json:"input_tokens"`
	OutputTokens        int64   `json:"output_tokens"`
	CacheCreationTokens int64   `json:"cache_creation_tokens"`
	CacheReadTokens     int64   `json:"cache_read_tokens"`
	SessionCount        int64   `json:"session_count"`
}

// DailyUsage is one calendar day (engine-local) of usage.
type DailyUsage struct {
	Date        string   `json:"date"`
	TotalCost   float64  `json:"total_cost"`
	TotalTokens int64    `json:"total_tokens"`
	ModelsUsed  []string `json:"models_used"`
}

// ProjectUsage is one project's usage; ProjectPath is unique within an engine.
type ProjectUsage struct {
	ProjectPath  string  `json:"project_path"`
	ProjectName  string  `json:"project_name"`
	TotalCost    float64 `json:"total_cost"`
	TotalTokens  int64   `json:"total_tokens"`
	SessionCount int64   `json:"session_count"`
	LastUsed     string  `json:"last_used"`
}

// Totals is the summed token/cost breakdown of a stats payload.
type Totals struct {
	Cost                float64 `json:"total_cost"`
	Tokens              int64   `json:"total_tokens"`
	InputTokens         int64   `json:"total_input_tokens"`
	OutputTokens        int64   `json:"total_output_tokens"`
	CacheCreationTokens int64   `json:"total_cache_creation_tokens"`
	CacheReadTokens     int64   `json:"total_cache_read_tokens"`
	Sessions            int64   `json:"total_sessions"`
}

// Add returns the field-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Cost:                t.Cost + o.Cost,
		Tokens:              t.Tokens + o.Tokens,
		InputTokens:         t.InputTokens + o.InputTokens,
		OutputTokens:        t.OutputTokens + o.OutputTokens,
		CacheCreationTokens: t.CacheCreationTokens + o.CacheCreationTokens,
		CacheReadTokens:     t.CacheReadTokens + o.CacheReadTokens,
		Sessions:            t.Sessions + o.Sessions,
	}
}

// EngineStats is the common view over the three engine payload shapes.
// Implementations are immutable snapshots; callers must not modify the
// returned slices.
type EngineStats interface {
	Engine() Engine
	Totals() Totals
	Models() []ModelUsage
	Projects() []ProjectUsage
	Days() []DailyUsage
}

// UsageStats is the primary (Claude) engine payload.
type UsageStats struct {
	TotalCost                float64        `json:"total_cost"`
	TotalTokens              int64          `json:"total_tokens"`
	TotalInputTokens         int64          `json:"total_input_tokens"`
	TotalOutputTokens        int64          `json:"total_output_tokens"`
	TotalCacheCreationTokens int64          `json:"total_cache_creation_tokens"`
	TotalCacheReadTokens     int64          `json:"total_cache_read_tokens"`
	TotalSessions            int64          `json:"total_sessions"`
	ByModel                  []ModelUsage   `json:"by_model"`
	ByDate                   []DailyUsage   `json:"by_date"`
	ByProject                []ProjectUsage `json:"by_project"`
}

func (s *UsageStats) Engine() Engine { return EngineClaude }

func (s *UsageStats) Totals() Totals {
	return Totals{
		Cost:                s.TotalCost,
		Tokens:              s.TotalTokens,
		InputTokens:         s.TotalInputTokens,
		OutputTokens:        s.TotalOutputTokens,
		CacheCreationTokens: s.TotalCacheCreationTokens,
		CacheReadTokens:     s.TotalCacheReadTokens,
		Sessions:            s.TotalSessions,
	}
}

func (s *UsageStats) Models() []ModelUsage     { return s.ByModel }
func (s *UsageStats) Projects() []ProjectUsage { return s.ByProject }
func (s *UsageStats) Days() []DailyUsage       { return s.ByDate }

// CodexSessionUsage is one Codex session as reported by the backend.
type CodexSessionUsage struct {
	SessionID         string  `json:"session_id"`
	ProjectPath       string  `json:"project_path"`
	Model             string  `json:"model"`
	TotalCost         float64 `json:"total_cost"`
	InputTokens       int64   `json:"input_tokens"`
	OutputTokens      int64   `json:"output_tokens"`
	CachedInputTokens int64   `json:"cached_input_tokens"`
	CreatedAt         int64   `json:"created_at"`
	UpdatedAt         int64   `json:"updated_at"`
	FirstMessage      string  `json:"first_message,omitempty"`
}

// CodexUsageStats is the Codex engine payload.
type CodexUsageStats struct {
	TotalCost                float64             `json:"total_cost"`
	TotalTokens              int64               `json:"total_tokens"`
	TotalInputTokens         int64               `json:"total_input_tokens"`
	TotalOutputTokens        int64               `json:"total_output_tokens"`
	TotalCachedInputTokens   int64               `json:"total_cached_input_tokens"`
	TotalCacheCreationTokens *int64              `json:"total_cache_creation_tokens,omitempty"`
	TotalCacheReadTokens     *int64              `json:"total_cache_read_tokens,omitempty"`
	TotalSessions            int64               `json:"total_sessions"`
	ByModel                  []ModelUsage        `json:"by_model"`
	ByDate                   []DailyUsage        `json:"by_date"`
	ByProject                []ProjectUsage      `json:"by_project"`
	Sessions                 []CodexSessionUsage `json:"sessions"`
}

func (s *CodexUsageStats) Engine() Engine { return EngineCodex }

// Totals reports cached input tokens as cache reads when the backend
// omits an explicit cache-read total.
func (s *CodexUsageStats) Totals() Totals {
	cacheRead := s.TotalCachedInputTokens
	if s.TotalCacheReadTokens != nil {
		cacheRead = *s.TotalCacheReadTokens
	}
	return Totals{
		Cost:                s.TotalCost,
		Tokens:              s.TotalTokens,
		InputTokens:         s.TotalInputTokens,
		OutputTokens:        s.TotalOutputTokens,
		CacheCreationTokens: valueOrZero(s.TotalCacheCreationTokens),
		CacheReadTokens:     cacheRead,
		Sessions:            s.TotalSessions,
	}
}

func (s *CodexUsageStats) Models() []ModelUsage     { return s.ByModel }
func (s *CodexUsageStats) Projects() []ProjectUsage { return s.ByProject }
func (s *CodexUsageStats) Days() []DailyUsage       { return s.ByDate }

// GeminiSessionUsage is one Gemini session as reported by the backend.
type GeminiSessionUsage struct {
	SessionID    string  `json:"session_id"`
	ProjectPath  string  `json:"project_path"`
	Model        string  `json:"model"`
	TotalCost    float64 `json:"total_cost"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	StartTime    string  `json:"start_time"`
	FirstMessage string  `json:"first_message,omitempty"`
}

// GeminiUsageStats is the Gemini engine payload.
type GeminiUsageStats struct {
	TotalCost                float64              `json:"total_cost"`
	TotalTokens              int64                `json:"total_tokens"`
	TotalInputTokens         int64                `json:"total_input_tokens"`
	TotalOutputTokens        int64                `json:"total_output_tokens"`
	TotalCacheCreationTokens *int64               `json:"total_cache_creation_tokens,omitempty"`
	TotalCacheReadTokens     *int64               `json:"total_cache_read_tokens,omitempty"`
	TotalSessions            int64                `json:"total_sessions"`
	ByModel                  []ModelUsage         `json:"by_model"`
	ByDate                   []DailyUsage         `json:"by_date"`
	ByProject                []ProjectUsage       `json:"by_project"`
	Sessions                 []GeminiSessionUsage `json:"sessions"`
}

func (s *GeminiUsageStats) Engine() Engine { return EngineGemini }

func (s *GeminiUsageStats) Totals() Totals {
	return Totals{
		Cost:                s.TotalCost,
		Tokens:              s.TotalTokens,
		InputTokens:         s.TotalInputTokens,
		OutputTokens:        s.TotalOutputTokens,
		CacheCreationTokens: valueOrZero(s.TotalCacheCreationTokens),
		CacheReadTokens:     valueOrZero(s.TotalCacheReadTokens),
		Sessions:            s.TotalSessions,
	}
}

func (s *GeminiUsageStats) Models() []ModelUsage     { return s.ByModel }
func (s *GeminiUsageStats) Projects() []ProjectUsage { return s.ByProject }
func (s *GeminiUsageStats) Days() []DailyUsage       { return s.ByDate }

func valueOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// EngineModelUsage is a ModelUsage tagged with the engine that reported it.
type EngineModelUsage struct {
	ModelUsage
	Engine Engine `json:"engine"`
}

// EngineProjectUsage is a ProjectUsage tagged with the engine that reported it.
type EngineProjectUsage struct {
	ProjectUsage
	Engine Engine `json:"engine"`
}

// SecondaryResult is the outcome of a best-effort engine fetch. A result
// that has not settled yet, or settled with an error, contributes nothing
// to aggregates.
type SecondaryResult struct {
	Stats   EngineStats
	Err     error
	Settled bool
}

// Present reports whether the result carries usable stats.
func (r SecondaryResult) Present() bool {
	return r.Settled && r.Err == nil && r.Stats != nil
}

// Failed reports whether the fetch settled with an error.
func (r SecondaryResult) Failed() bool {
	return r.Settled && r.Err != nil
}
