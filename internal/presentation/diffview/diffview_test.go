package diffview

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/penwyp/go-usage-board/internal/core/diff"
	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/penwyp/go-usage-board/internal/presentation/highlight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHighlighter struct {
	calls []string
	err   error
}

func (h *countingHighlighter) Render(text, lang string, theme highlight.Theme) (string, error) {
	h.calls = append(h.calls, text)
	if h.err != nil {
		return text, h.err
	}
	return "\x1b[1m" + text + "\x1b[0m", nil
}

func plainOptions() Options {
	return Options{File: "/repo/src/main.go", Theme: highlight.ThemeDark, Expanded: true}
}

func renderLines(t *testing.T, r *Renderer, result *diff.Result, opts Options) []string {
	t.Helper()
	out := r.Render(result, opts)
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

func TestRenderSingleLineEdit(t *testing.T) {
	result := diff.NewMemo(nil).Compute("a\nb\nc\n", "a\nx\nc\n", "main.go")

	lines := renderLines(t, NewRenderer(nil), result, plainOptions())
	assert.Equal(t, []string{
		"▾ Edit | main.go +1 -1 pending",
		"  a",
		"- b",
		"+ x",
		"  c",
	}, lines)
}

func TestRenderCollapsesLongUnchangedRun(t *testing.T) {
	var unchanged strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&unchanged, "keep %d\n", i)
	}
	oldText := unchanged.String() + "old\n"
	newText := unchanged.String() + "new\n"
	result := diff.NewMemo(nil).Compute(oldText, newText, "notes.txt")

	out := NewRenderer(nil).Render(result, plainOptions())
	assert.Contains(t, out, "... 12 unchanged lines ...")
	assert.Equal(t, 1, strings.Count(out, "unchanged lines"))
	assert.NotContains(t, out, "keep 3")
	assert.Contains(t, out, "- old")
	assert.Contains(t, out, "+ new")
}

func TestRenderKeepsShortUnchangedRun(t *testing.T) {
	result := &diff.Result{Runs: []model.DiffRun{
		{Kind: model.DiffUnchanged, Text: strings.Repeat("same\n", 8), Lines: 8},
	}}

	lines := renderLines(t, NewRenderer(nil), result, plainOptions())
	require.Len(t, lines, 9)
	assert.Equal(t, "  same", lines[8])
}

func TestRenderCollapsedShowsHeaderOnly(t *testing.T) {
	result := diff.NewMemo(nil).Compute("a\n", "b\n", "main.go")
	opts := plainOptions()
	opts.Expanded = false
	opts.Status = model.EditSucceeded

	assert.Equal(t, "▸ Edit | main.go +1 -1 success\n", NewRenderer(nil).Render(result, opts))
}

func TestHeaderOmitsZeroBadges(t *testing.T) {
	result := diff.NewMemo(nil).Compute("a\n", "a\nb\n", `C:\work\readme.md`)
	opts := plainOptions()
	opts.File = `C:\work\readme.md`
	opts.Status = model.EditFailed

	assert.Equal(t, "▾ Edit | readme.md +1 failed", NewRenderer(nil).Header(result, opts))
}

func TestBlankRunSkipsHighlighting(t *testing.T) {
	h := &countingHighlighter{}
	result := &diff.Result{
		Language: "go",
		Runs: []model.DiffRun{
			{Kind: model.DiffAdded, Text: "\n\n", Lines: 2},
			{Kind: model.DiffAdded, Text: "func main() {}\n", Lines: 1},
			{Kind: model.DiffRemoved, Text: strings.Repeat(" ", 60) + "\n", Lines: 1},
		},
	}
	opts := plainOptions()
	opts.Color = true

	NewRenderer(h).Render(result, opts)

	require.Len(t, h.calls, 2)
	assert.Equal(t, "func main() {}", h.calls[0], "one trailing newline is stripped")
	assert.Equal(t, strings.Repeat(" ", 60), h.calls[1], "long whitespace runs are highlighted")
}

func TestHighlightErrorFallsBackToPlainText(t *testing.T) {
	h := &countingHighlighter{err: errors.New("boom")}
	result := &diff.Result{Runs: []model.DiffRun{{Kind: model.DiffUnchanged, Text: "x := 1\n", Lines: 1}}}
	opts := plainOptions()
	opts.Color = true

	out := NewRenderer(h).Render(result, opts)
	assert.Contains(t, out, "x := 1")
	assert.Len(t, h.calls, 1)
}

func TestLargeDiffBanner(t *testing.T) {
	build := func(n int) *diff.Result {
		result := &diff.Result{}
		for i := 0; i < n; i++ {
			kind := model.DiffAdded
			if i%2 == 1 {
				kind = model.DiffUnchanged
			}
			result.Runs = append(result.Runs, model.DiffRun{Kind: kind, Text: fmt.Sprintf("l%d\n", i), Lines: 1})
		}
		return result
	}

	r := NewRenderer(nil)
	atLimit := r.Render(build(LargeDiffRuns), plainOptions())
	assert.NotContains(t, atLimit, "Large change")

	lines := renderLines(t, r, build(LargeDiffRuns+1), plainOptions())
	assert.Contains(t, lines[1], "Large change (201 blocks)")
	assert.Equal(t, 1, strings.Count(strings.Join(lines, "\n"), "Large change"))
	assert.Equal(t, "+ l0", lines[2])
}

func TestRenderWithChroma(t *testing.T) {
	result := diff.NewMemo(highlight.Detect).Compute("package main\n", "package app\n", "main.go")
	opts := plainOptions()
	opts.Color = true

	out := NewRenderer(highlight.NewHighlighter("terminal256")).Render(result, opts)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "app")
}

func TestRenderNilResult(t *testing.T) {
	assert.Equal(t, "▾ Edit | main.go pending\n", NewRenderer(nil).Render(nil, plainOptions()))
}
