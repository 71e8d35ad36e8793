package formatter

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/penwyp/go-usage-board/internal/core/model"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	costStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	engineStyles = map[model.Engine]lipgloss.Style{}
)

func init() {
	for _, engine := range model.AllEngines {
		engineStyles[engine] = lipgloss.NewStyle().Foreground(lipgloss.Color(engine.Color()))
	}
}

func paint(enabled bool, style lipgloss.Style, s string) string {
	if !enabled {
		return s
	}
	return style.Render(s)
}

func paintEngine(enabled bool, engine model.Engine, s string) string {
	style, ok := engineStyles[engine]
	if !ok {
		return s
	}
	return paint(enabled, style, s)
}
