package formatter

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/penwyp/go-usage-board/internal/data/aggregator"
	"github.com/penwyp/go-usage-board/internal/util"
)

const (
	timelineHeight   = 8
	minTimelineWidth = 20
)

// RenderTimeline draws the daily cost chart oldest day first
func RenderTimeline(timeline *aggregator.Timeline, width int) string {
	if timeline == nil || len(timeline.Bars) == 0 {
		return "No daily data available"
	}

	// Leave room for the y-axis labels.
	width -= 12
	if width < minTimelineWidth {
		width = minTimelineWidth
	}

	first := timeline.Bars[0].Date
	last := timeline.Bars[len(timeline.Bars)-1].Date
	caption := fmt.Sprintf("%s → %s · max %s/day · half %s",
		first, last, util.FormatCurrency(timeline.MaxCost), util.FormatCurrency(timeline.HalfMaxCost))

	costs := timeline.Costs()
	if len(costs) == 1 {
		// asciigraph needs two points to draw a line
		costs = append(costs, costs[0])
	}

	return asciigraph.Plot(costs,
		asciigraph.Height(timelineHeight),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
	)
}
