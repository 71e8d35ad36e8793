package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/penwyp/go-usage-board/internal/data/aggregator"
	"github.com/penwyp/go-usage-board/internal/util"
)

// TableFormatter prints the dashboard as box-drawn tables
type TableFormatter struct{}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// table is one box-drawn table. Columns listed in leftAlign are left
// aligned; the rest are numeric and right aligned.
type table struct {
	headers   []string
	rows      [][]string
	leftAlign map[int]bool
	// paint styles an already padded cell; nil leaves cells plain
	paint func(row, col int, padded string) string
	// totalRow marks the index of a summary row preceded by a separator
	totalRow int
}

func (f *TableFormatter) Format(w io.Writer, view *aggregator.View, opts Options) error {
	fmt.Fprintf(w, "%s · %s\n\n", headerStyleIf(opts.Color, "Usage Dashboard"), rangeDescription(opts))
	f.writeOverview(w, view, opts)

	if len(view.ByEngine) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyleIf(opts.Color, "By Engine"))
		f.engineTable(view, opts).render(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s (%d)\n", headerStyleIf(opts.Color, "By Model"), len(view.Models))
	if len(view.Models) == 0 {
		fmt.Fprintln(w, paint(opts.Color, mutedStyle, "No model usage in this period"))
	} else {
		f.modelTable(view, opts).render(w)
	}

	fmt.Fprintln(w)
	page := aggregator.Paginate(view.Projects, opts.Page, aggregator.ItemsPerPage)
	fmt.Fprintf(w, "%s (%d)\n", headerStyleIf(opts.Color, "By Project"), page.Total)
	if page.Total == 0 {
		fmt.Fprintln(w, paint(opts.Color, mutedStyle, "No project usage in this period"))
	} else {
		f.projectTable(page, opts).render(w)
		if page.TotalPages > 1 {
			fmt.Fprintf(w, "Showing %d-%d of %d · Page %d of %d\n",
				page.Start+1, page.End, page.Total, page.Number, page.TotalPages)
		}
	}

	if timeline := aggregator.BuildTimeline(view.Days); timeline != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyleIf(opts.Color, "Daily Cost"))
		fmt.Fprintln(w, RenderTimeline(timeline, opts.Width))
	}
	return nil
}

func headerStyleIf(color bool, s string) string {
	return paint(color, headerStyle, s)
}

func (f *TableFormatter) writeOverview(w io.Writer, view *aggregator.View, opts Options) {
	totals := view.Totals
	lines := [][2]string{
		{"Engine", filterLabel(view)},
		{"Total Cost", paint(opts.Color, costStyle, util.FormatCurrency(totals.Cost))},
		{"Total Sessions", util.FormatNumber(totals.Sessions)},
		{"Total Tokens", util.FormatTokens(totals.Tokens)},
		{"Avg Cost/Session", util.FormatCurrency(view.AverageCostPerSession())},
		{"Input / Output", fmt.Sprintf("%s / %s", util.FormatTokens(totals.InputTokens), util.FormatTokens(totals.OutputTokens))},
		{"Cache Write / Read", fmt.Sprintf("%s / %s", util.FormatTokens(totals.CacheCreationTokens), util.FormatTokens(totals.CacheReadTokens))},
	}
	for _, line := range lines {
		fmt.Fprintf(w, "  %s %s\n", util.PadString(line[0]+":", 20, true), line[1])
	}
}

func (f *TableFormatter) engineTable(view *aggregator.View, opts Options) *table {
	t := &table{
		headers:   []string{"Engine", "Cost (USD)", "Tokens", "Sessions"},
		leftAlign: map[int]bool{0: true},
		totalRow:  -1,
	}
	for _, e := range view.ByEngine {
		t.rows = append(t.rows, []string{
			e.Engine.Label(),
			util.FormatCurrency(e.Cost),
			util.FormatTokens(e.Tokens),
			util.FormatNumber(e.Sessions),
		})
	}
	t.paint = func(row, col int, padded string) string {
		if col == 0 {
			return paintEngine(opts.Color, view.ByEngine[row].Engine, padded)
		}
		return padded
	}
	return t
}

func (f *TableFormatter) modelTable(view *aggregator.View, opts Options) *table {
	t := &table{
		headers: []string{
			"Model", "Engine", "Input", "Output",
			"Cache Create", "Cache Read", "Total Tokens", "Sessions", "Cost (USD)",
		},
		leftAlign: map[int]bool{0: true, 1: true},
		totalRow:  len(view.Models),
	}

	var total model.ModelUsage
	for _, m := range view.Models {
		t.rows = append(t.rows, modelRow(util.ModelDisplayName(m.Model), m.Engine.Label(), m.ModelUsage))
		total.InputTokens += m.InputTokens
		total.OutputTokens += m.OutputTokens
		total.CacheCreationTokens += m.CacheCreationTokens
		total.CacheReadTokens += m.CacheReadTokens
		total.TotalTokens += m.TotalTokens
		total.SessionCount += m.SessionCount
		total.TotalCost += m.TotalCost
	}
	t.rows = append(t.rows, modelRow("Total", "", total))

	t.paint = func(row, col int, padded string) string {
		if col == 1 && row < len(view.Models) {
			return paintEngine(opts.Color, view.Models[row].Engine, padded)
		}
		return padded
	}
	return t
}

func modelRow(name, engine string, m model.ModelUsage) []string {
	return []string{
		name,
		engine,
		util.FormatNumber(m.InputTokens),
		util.FormatNumber(m.OutputTokens),
		util.FormatNumber(m.CacheCreationTokens),
		util.FormatNumber(m.CacheReadTokens),
		util.FormatNumber(m.TotalTokens),
		util.FormatNumber(m.SessionCount),
		util.FormatCurrency(m.TotalCost),
	}
}

func (f *TableFormatter) projectTable(page aggregator.Page[model.EngineProjectUsage], opts Options) *table {
	t := &table{
		headers:   []string{"Project", "Engine", "Sessions", "Tokens", "Cost (USD)", "Last Used"},
		leftAlign: map[int]bool{0: true, 1: true, 5: true},
		totalRow:  -1,
	}
	for _, p := range page.Items {
		name := p.ProjectName
		if name == "" {
			name = shortPath(p.ProjectPath)
		}
		t.rows = append(t.rows, []string{
			util.Truncate(name, 40),
			p.Engine.Label(),
			util.FormatNumber(p.SessionCount),
			util.FormatTokens(p.TotalTokens),
			util.FormatCurrency(p.TotalCost),
			p.LastUsed,
		})
	}
	t.paint = func(row, col int, padded string) string {
		if col == 1 {
			return paintEngine(opts.Color, page.Items[row].Engine, padded)
		}
		return padded
	}
	return t
}

// shortPath keeps the last two path segments
func shortPath(path string) string {
	parts := strings.Split(strings.TrimRight(path, "/"), "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}

// calculateColumnWidths sizes each column to its widest cell
func (t *table) calculateColumnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = util.GetDisplayWidth(header)
	}
	for _, row := range t.rows {
		for i, value := range row {
			if width := util.GetDisplayWidth(value); width > widths[i] {
				widths[i] = width
			}
		}
	}
	return widths
}

func (t *table) render(w io.Writer) {
	widths := t.calculateColumnWidths()

	printBorder(w, widths, "top")
	t.printRow(w, -1, t.headers, widths)
	printBorder(w, widths, "middle")
	for i, row := range t.rows {
		if t.totalRow > 0 && i == t.totalRow {
			printBorder(w, widths, "middle")
		}
		t.printRow(w, i, row, widths)
	}
	printBorder(w, widths, "bottom")
}

// printBorder prints table borders (top, middle, bottom)
func printBorder(w io.Writer, widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	var sb strings.Builder
	sb.WriteString(left)
	for i, width := range widths {
		sb.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			sb.WriteString(middle)
		}
	}
	sb.WriteString(right)
	fmt.Fprintln(w, sb.String())
}

// printRow prints one row; row is -1 for the header
func (t *table) printRow(w io.Writer, row int, values []string, widths []int) {
	var sb strings.Builder
	sb.WriteString("│")
	for i, value := range values {
		padded := util.PadString(value, widths[i], t.leftAlign[i] || row < 0)
		if row >= 0 && t.paint != nil {
			padded = t.paint(row, i, padded)
		}
		sb.WriteString(" ")
		sb.WriteString(padded)
		sb.WriteString(" │")
	}
	fmt.Fprintln(w, sb.String())
}
