package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-usage-board/internal/data/aggregator"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(w io.Writer, view *aggregator.View, opts Options) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	headers := []string{
		"Section", "Engine", "Name", "Input", "Output",
		"Cache Create", "Cache Read", "Total Tokens", "Sessions", "Cost (USD)",
	}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, m := range view.Models {
		record := []string{
			"model",
			string(m.Engine),
			m.Model,
			fmt.Sprintf("%d", m.InputTokens),
			fmt.Sprintf("%d", m.OutputTokens),
			fmt.Sprintf("%d", m.CacheCreationTokens),
			fmt.Sprintf("%d", m.CacheReadTokens),
			fmt.Sprintf("%d", m.TotalTokens),
			fmt.Sprintf("%d", m.SessionCount),
			fmt.Sprintf("%.2f", m.TotalCost),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	for _, p := range view.Projects {
		record := []string{
			"project",
			string(p.Engine),
			p.ProjectPath,
			"", "", "", "",
			fmt.Sprintf("%d", p.TotalTokens),
			fmt.Sprintf("%d", p.SessionCount),
			fmt.Sprintf("%.2f", p.TotalCost),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	for _, d := range view.Days {
		record := []string{
			"day",
			string(view.Filter),
			d.Date,
			"", "", "", "",
			fmt.Sprintf("%d", d.TotalTokens),
			strings.Join(d.ModelsUsed, " "),
			fmt.Sprintf("%.2f", d.TotalCost),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
