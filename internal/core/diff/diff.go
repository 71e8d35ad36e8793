package diff

import (
	"strings"

	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/pmezard/go-difflib/difflib"
)

// Stats is the line-level summary of a diff.
type Stats struct {
	Added   int
	Removed int
}

// Changed reports whether the diff contains any added or removed line.
func (s Stats) Changed() bool {
	return s.Added > 0 || s.Removed > 0
}

// Matches reports whether s agrees with independently reported counts.
func (s Stats) Matches(added, removed int) bool {
	return s.Added == added && s.Removed == removed
}

// SplitLines splits text after every newline. A final line without a
// trailing newline is kept as is, so joining the result reproduces text.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Lines computes the line-level diff between oldText and newText. Runs are
// returned in document order with adjacent lines of one kind merged; inside
// a replaced block the removed run comes before the added run.
func Lines(oldText, newText string) []model.DiffRun {
	a := SplitLines(oldText)
	b := SplitLines(newText)
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	matcher := difflib.NewMatcherWithJunk(a, b, false, nil)

	var runs []model.DiffRun
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			runs = appendRun(runs, model.DiffUnchanged, a[op.I1:op.I2])
		case 'd':
			runs = appendRun(runs, model.DiffRemoved, a[op.I1:op.I2])
		case 'i':
			runs = appendRun(runs, model.DiffAdded, b[op.J1:op.J2])
		case 'r':
			runs = appendRun(runs, model.DiffRemoved, a[op.I1:op.I2])
			runs = appendRun(runs, model.DiffAdded, b[op.J1:op.J2])
		}
	}
	return runs
}

func appendRun(runs []model.DiffRun, kind model.DiffKind, lines []string) []model.DiffRun {
	if len(lines) == 0 {
		return runs
	}
	text := strings.Join(lines, "")
	if n := len(runs); n > 0 && runs[n-1].Kind == kind {
		runs[n-1].Text += text
		runs[n-1].Lines += len(lines)
		return runs
	}
	return append(runs, model.DiffRun{Kind: kind, Text: text, Lines: len(lines)})
}

// Summarize totals added and removed line counts across runs.
func Summarize(runs []model.DiffRun) Stats {
	var s Stats
	for _, run := range runs {
		switch run.Kind {
		case model.DiffAdded:
			s.Added += run.Lines
		case model.DiffRemoved:
			s.Removed += run.Lines
		}
	}
	return s
}

// Reconstruct joins the runs of the given kinds. Unchanged plus removed
// yields the old text; unchanged plus added yields the new text.
func Reconstruct(runs []model.DiffRun, kinds ...model.DiffKind) string {
	var sb strings.Builder
	for _, run := range runs {
		for _, k := range kinds {
			if run.Kind == k {
				sb.WriteString(run.Text)
				break
			}
		}
	}
	return sb.String()
}
