package edit

import (
	"sync"

	"github.com/penwyp/go-usage-board/internal/core/diff"
	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/penwyp/go-usage-board/internal/presentation/diffview"
	"github.com/penwyp/go-usage-board/internal/presentation/highlight"
)

// Widget is the state behind one edit diff: its inputs, the expand toggle
// and the theme. Rendering goes through a memo so toggling or switching
// theme never recomputes the diff.
type Widget struct {
	mu       sync.Mutex
	memo     *diff.Memo
	renderer *diffview.Renderer

	file     string
	oldText  string
	newText  string
	status   model.EditStatus
	expanded bool
	theme    highlight.Theme
	color    bool
}

type WidgetOption func(*Widget)

func WithTheme(theme highlight.Theme) WidgetOption {
	return func(w *Widget) { w.theme = theme }
}

func WithExpanded(expanded bool) WidgetOption {
	return func(w *Widget) { w.expanded = expanded }
}

func WithColor(color bool) WidgetOption {
	return func(w *Widget) { w.color = color }
}

// NewWidget starts collapsed with the dark theme unless options say otherwise.
func NewWidget(renderer *diffview.Renderer, opts ...WidgetOption) *Widget {
	w := &Widget{
		memo:     diff.NewMemo(highlight.Detect),
		renderer: renderer,
		theme:    highlight.ThemeDark,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// FromOperation loads an edit parsed from a transcript.
func (w *Widget) FromOperation(op model.EditOperation) {
	w.SetInput(op.FilePath, op.OldString, op.NewString)
	w.SetStatus(op.Status)
}

func (w *Widget) SetInput(file, oldText, newText string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.file, w.oldText, w.newText = file, oldText, newText
}

func (w *Widget) SetStatus(status model.EditStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
}

func (w *Widget) SetTheme(theme highlight.Theme) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.theme = theme
}

// Toggle flips between header-only and full diff, returning the new state.
func (w *Widget) Toggle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expanded = !w.expanded
	return w.expanded
}

func (w *Widget) Expanded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expanded
}

// Result returns the diff for the current inputs.
func (w *Widget) Result() *diff.Result {
	w.mu.Lock()
	file, oldText, newText := w.file, w.oldText, w.newText
	w.mu.Unlock()
	return w.memo.Compute(oldText, newText, file)
}

func (w *Widget) Render() string {
	result := w.Result()

	w.mu.Lock()
	opts := diffview.Options{
		File:     w.file,
		Status:   w.status,
		Theme:    w.theme,
		Expanded: w.expanded,
		Color:    w.color,
	}
	w.mu.Unlock()

	return w.renderer.Render(result, opts)
}

// Computations reports how many times the diff was actually computed.
func (w *Widget) Computations() int {
	return w.memo.Computations()
}
