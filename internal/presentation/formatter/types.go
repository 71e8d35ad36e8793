package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-usage-board/internal/core/daterange"
	"github.com/penwyp/go-usage-board/internal/data/aggregator"
)

// Options carries the request context a formatter reports alongside the view
type Options struct {
	Range  daterange.Range
	Window daterange.Window
	Page   int
	Width  int
	Color  bool
}

// Formatter writes a usage view in one output format
type Formatter interface {
	Format(w io.Writer, view *aggregator.View, opts Options) error
}

// New returns the formatter for an output name
func New(output string) (Formatter, error) {
	switch output {
	case "table":
		return NewTableFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	case "summary":
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", output)
	}
}

func rangeDescription(opts Options) string {
	label := opts.Range.Label()
	start, end := opts.Window.StatsBounds()
	switch {
	case start == "":
		return label
	case start == end:
		return fmt.Sprintf("%s (%s)", label, start)
	default:
		return fmt.Sprintf("%s (%s to %s)", label, start, end)
	}
}

func filterLabel(view *aggregator.View) string {
	if engine, ok := view.Filter.Engine(); ok {
		return engine.Label()
	}
	return "All engines"
}
