package formatter

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-usage-board/internal/data/aggregator"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

type jsonReport struct {
	Range                 string  `json:"range"`
	StartDate             string  `json:"start_date,omitempty"`
	EndDate               string  `json:"end_date,omitempty"`
	AverageCostPerSession float64 `json:"average_cost_per_session"`
	*aggregator.View
}

func (f *JSONFormatter) Format(w io.Writer, view *aggregator.View, opts Options) error {
	start, end := opts.Window.StatsBounds()
	report := jsonReport{
		Range:                 opts.Range.String(),
		StartDate:             start,
		EndDate:               end,
		AverageCostPerSession: view.AverageCostPerSession(),
		View:                  view,
	}

	data, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}
