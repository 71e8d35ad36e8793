package util

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatNumber renders an integer with thousands separators (1234567 -> "1,234,567")
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatTokens renders a token count compactly: 2.35M, 12.5K, or 999
func FormatTokens(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return FormatNumber(n)
	}
}

// FormatCurrency renders a USD amount with two decimals and thousands separators
func FormatCurrency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	rounded := math.Round(amount*100) / 100
	return sign + "$" + humanize.FormatFloat("#,###.##", rounded)
}

// FormatDuration renders a duration as "1h 5m" or "5m"
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// AverageCost returns cost per session, or zero when there are no sessions
func AverageCost(cost float64, sessions int64) float64 {
	if sessions <= 0 {
		return 0
	}
	return cost / float64(sessions)
}
