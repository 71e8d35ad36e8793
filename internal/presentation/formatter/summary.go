package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-usage-board/internal/data/aggregator"
	"github.com/penwyp/go-usage-board/internal/util"
)

// SummaryFormatter is responsible for formatting and outputting summary reports.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

// Format writes totals, the cost split by engine and the top models and projects.
func (f *SummaryFormatter) Format(w io.Writer, view *aggregator.View, opts Options) error {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Usage Summary Report")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Date Range: %s\n", rangeDescription(opts))
	fmt.Fprintf(w, "Engine: %s\n", filterLabel(view))
	fmt.Fprintln(w)

	totals := view.Totals
	if totals.Tokens == 0 && totals.Cost == 0 && len(view.Models) == 0 {
		fmt.Fprintln(w, "No data to summarize")
		fmt.Fprintln(w)
		fmt.Fprintln(w, rule)
		return nil
	}

	fmt.Fprintln(w, "Token Breakdown:")
	fmt.Fprintf(w, "  Input: %s\n", util.FormatNumber(totals.InputTokens))
	fmt.Fprintf(w, "  Output: %s\n", util.FormatNumber(totals.OutputTokens))
	fmt.Fprintf(w, "  Cache Creation: %s\n", util.FormatNumber(totals.CacheCreationTokens))
	fmt.Fprintf(w, "  Cache Read: %s\n", util.FormatNumber(totals.CacheReadTokens))
	fmt.Fprintf(w, "  Total Tokens: %s\n", util.FormatNumber(totals.Tokens))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Cost Breakdown:")
	fmt.Fprintf(w, "  Total Cost: %s USD\n", util.FormatCurrency(totals.Cost))
	fmt.Fprintf(w, "  Sessions: %s\n", util.FormatNumber(totals.Sessions))
	fmt.Fprintf(w, "  Average per Session: %s USD\n", util.FormatCurrency(view.AverageCostPerSession()))
	for _, e := range view.ByEngine {
		if !e.Present {
			continue
		}
		fmt.Fprintf(w, "  %s: %s USD\n", paintEngine(opts.Color, e.Engine, e.Engine.Label()), util.FormatCurrency(e.Cost))
	}
	fmt.Fprintln(w)

	if top := view.TopModels(aggregator.TopN); len(top) > 0 {
		fmt.Fprintln(w, "Top Models:")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for i, m := range top {
			fmt.Fprintf(w, "  %d. %s (%s)  %s USD  %s tokens\n",
				i+1, util.ModelDisplayName(m.Model), m.Engine.Label(),
				util.FormatCurrency(m.TotalCost), util.FormatTokens(m.TotalTokens))
		}
		fmt.Fprintln(w)
	}

	if top := view.TopProjects(aggregator.TopN); len(top) > 0 {
		fmt.Fprintln(w, "Top Projects:")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for i, p := range top {
			fmt.Fprintf(w, "  %d. %s (%s)  %s USD  %d sessions\n",
				i+1, shortPath(p.ProjectPath), p.Engine.Label(),
				util.FormatCurrency(p.TotalCost), p.SessionCount)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, rule)
	return nil
}
