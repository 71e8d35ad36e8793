package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownRange is returned by Parse for an unrecognized selector.
var ErrUnknownRange = errors.New("unknown date range")

// Range is the user's date-range selector.
type Range string

const (
	Today      Range = "today"
	Last7Days  Range = "last-7-days"
	Last30Days Range = "last-30-days"
	AllTime    Range = "all-time"
)

var aliases = map[string]Range{
	"today":        Today,
	"1d":           Today,
	"7d":           Last7Days,
	"last-7-days":  Last7Days,
	"30d":          Last30Days,
	"last-30-days": Last30Days,
	"all":          AllTime,
	"all-time":     AllTime,
}

// Parse accepts both long names (last-7-days) and short ones (7d).
func Parse(s string) (Range, error) {
	if r, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q (valid: today, 7d, 30d, all)", ErrUnknownRange, s)
}

func (r Range) String() string { return string(r) }

// Short returns the compact selector name.
func (r Range) Short() string {
	switch r {
	case Last7Days:
		return "7d"
	case Last30Days:
		return "30d"
	case AllTime:
		return "all"
	default:
		return string(r)
	}
}

// Days returns N for last-N-days selectors and 0 otherwise.
func (r Range) Days() int {
	switch r {
	case Last7Days:
		return 7
	case Last30Days:
		return 30
	default:
		return 0
	}
}

// Label is the human readable description of the selector.
func (r Range) Label() string {
	switch r {
	case Today:
		return "Today"
	case Last7Days:
		return "Last 7 days"
	case Last30Days:
		return "Last 30 days"
	case AllTime:
		return "All time"
	default:
		return string(r)
	}
}

// Window is a resolved, inclusive calendar-date interval. A nil Start and
// End mean the window is unbounded.
type Window struct {
	Start *time.Time
	End   *time.Time
}

const (
	statsLayout   = "2006-01-02"
	sessionLayout = "20060102"
)

// Resolve turns the selector into concrete dates using the calendar date of
// now in now's own location.
func (r Range) Resolve(now time.Time) Window {
	if r == AllTime {
		return Window{}
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -r.Days())
	return Window{Start: &start, End: &today}
}

// Bounded reports whether the window has dates.
func (w Window) Bounded() bool {
	return w.Start != nil && w.End != nil
}

// StatsBounds formats the window as YYYY-MM-DD, or empty strings when unbounded.
func (w Window) StatsBounds() (start, end string) {
	return w.format(statsLayout)
}

// SessionBounds formats the window as YYYYMMDD, or empty strings when unbounded.
func (w Window) SessionBounds() (since, until string) {
	return w.format(sessionLayout)
}

func (w Window) format(layout string) (string, string) {
	if !w.Bounded() {
		return "", ""
	}
	return w.Start.Format(layout), w.End.Format(layout)
}
