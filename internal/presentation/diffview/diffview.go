package diffview

import (
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/penwyp/go-usage-board/internal/core/diff"
	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/penwyp/go-usage-board/internal/presentation/highlight"
	"github.com/penwyp/go-usage-board/internal/util"
)

const (
	// CollapseThreshold is the longest unchanged run rendered line by line.
	CollapseThreshold = 8
	// BlankRunMaxLength bounds the whitespace-only runs printed without highlighting.
	BlankRunMaxLength = 50
	// LargeDiffRuns is the run count above which the large diff banner is shown.
	LargeDiffRuns = 200
)

// Highlighter colors source text for one language and theme.
type Highlighter interface {
	Render(text, lang string, theme highlight.Theme) (string, error)
}

// Options controls one render of a diff result.
type Options struct {
	File     string
	Status   model.EditStatus
	Theme    highlight.Theme
	Expanded bool
	Color    bool
}

// Renderer turns diff runs into terminal lines.
type Renderer struct {
	highlighter Highlighter
}

func NewRenderer(h Highlighter) *Renderer {
	return &Renderer{highlighter: h}
}

type palette struct {
	added, removed, addedMark, removedMark lipgloss.Style
}

var palettes = map[highlight.Theme]palette{
	highlight.ThemeDark: {
		added:       lipgloss.NewStyle().Background(lipgloss.Color("#12361F")),
		removed:     lipgloss.NewStyle().Background(lipgloss.Color("#3C1618")),
		addedMark:   lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80")),
		removedMark: lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
	},
	highlight.ThemeLight: {
		added:       lipgloss.NewStyle().Background(lipgloss.Color("#DAFBE1")),
		removed:     lipgloss.NewStyle().Background(lipgloss.Color("#FFEBE9")),
		addedMark:   lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")),
		removedMark: lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")),
	},
}

var (
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fileStyle    = lipgloss.NewStyle().Bold(true)
	statusStyles = map[model.EditStatus]lipgloss.Style{
		model.EditPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
		model.EditSucceeded: lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		model.EditFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}
)

// Render returns the header and, when expanded, every run of result.
func (r *Renderer) Render(result *diff.Result, opts Options) string {
	var sb strings.Builder
	sb.WriteString(r.Header(result, opts))
	sb.WriteString("\n")
	if !opts.Expanded || result == nil {
		return sb.String()
	}

	if len(result.Runs) > LargeDiffRuns {
		sb.WriteString(r.style(opts, mutedStyle, fmt.Sprintf("⚠ Large change (%d blocks), performance mode enabled", len(result.Runs))))
		sb.WriteString("\n")
	}

	for _, run := range result.Runs {
		for _, line := range r.runLines(run, result.Language, opts) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Header is the one-line summary: file name, line counts and edit status.
func (r *Renderer) Header(result *diff.Result, opts Options) string {
	marker := "▸"
	if opts.Expanded {
		marker = "▾"
	}
	p := r.palette(opts)

	parts := []string{marker, "Edit", r.style(opts, mutedStyle, "|"), r.style(opts, fileStyle, baseName(opts.File))}
	if result != nil {
		if result.Stats.Added > 0 {
			parts = append(parts, r.style(opts, p.addedMark, fmt.Sprintf("+%d", result.Stats.Added)))
		}
		if result.Stats.Removed > 0 {
			parts = append(parts, r.style(opts, p.removedMark, fmt.Sprintf("-%d", result.Stats.Removed)))
		}
	}
	parts = append(parts, r.style(opts, statusStyles[opts.Status], opts.Status.String()))
	return strings.Join(parts, " ")
}

func (r *Renderer) runLines(run model.DiffRun, lang string, opts Options) []string {
	if run.Kind == model.DiffUnchanged && run.Lines > CollapseThreshold {
		placeholder := fmt.Sprintf("... %d unchanged lines ...", run.Lines)
		return []string{r.style(opts, mutedStyle, placeholder)}
	}

	text := strings.TrimSuffix(run.Text, "\n")
	if strings.TrimSpace(run.Text) != "" || len(run.Text) >= BlankRunMaxLength {
		text = r.highlight(text, lang, opts)
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, r.decorate(run.Kind, line, opts))
	}
	return out
}

func (r *Renderer) highlight(text, lang string, opts Options) string {
	if !opts.Color || r.highlighter == nil {
		return text
	}
	highlighted, err := r.highlighter.Render(text, lang, opts.Theme)
	if err != nil {
		util.LogDebug("highlight failed, rendering plain text", util.F("lang", lang), util.F("error", err.Error()))
		return text
	}
	return strings.TrimSuffix(highlighted, "\n")
}

func (r *Renderer) decorate(kind model.DiffKind, line string, opts Options) string {
	p := r.palette(opts)
	if opts.Color && strings.Contains(line, "\x1b[") {
		// highlighted tokens may span lines; reset before the next prefix
		line += "\x1b[0m"
	}
	switch kind {
	case model.DiffAdded:
		return r.style(opts, p.added, r.style(opts, p.addedMark, "+")+" "+line)
	case model.DiffRemoved:
		return r.style(opts, p.removed, r.style(opts, p.removedMark, "-")+" "+line)
	default:
		return "  " + line
	}
}

func (r *Renderer) palette(opts Options) palette {
	if p, ok := palettes[opts.Theme]; ok {
		return p
	}
	return palettes[highlight.ThemeDark]
}

func (r *Renderer) style(opts Options, s lipgloss.Style, text string) string {
	if !opts.Color {
		return text
	}
	return s.Render(text)
}

func baseName(file string) string {
	if file == "" {
		return "(untitled)"
	}
	// paths may come from either platform
	file = strings.ReplaceAll(file, "\\", "/")
	return path.Base(file)
}
