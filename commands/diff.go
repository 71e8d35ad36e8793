package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/penwyp/go-usage-board/internal/application/edit"
	"github.com/penwyp/go-usage-board/internal/core/model"
	"github.com/penwyp/go-usage-board/internal/data/parser"
	"github.com/penwyp/go-usage-board/internal/presentation/diffview"
	"github.com/penwyp/go-usage-board/internal/presentation/highlight"
	"github.com/penwyp/go-usage-board/internal/util"
	"github.com/spf13/cobra"
)

var (
	diffFile      string
	diffTheme     string
	diffCollapsed bool
	diffWatch     bool
	diffStatus    string
	diffLog       string
	diffIndex     int
	diffAll       bool

	diffCmd = &cobra.Command{
		Use:   "diff [OLD NEW]",
		Short: "Render an edit as a highlighted line diff",
		Long: `Render the difference between two files, or an Edit/MultiEdit recorded in a
session transcript, the way the dashboard shows file edits.

Unchanged blocks longer than 8 lines are collapsed.

Examples:
  go-usage-board diff old.go new.go                  # Diff two files
  go-usage-board diff old.go new.go --watch          # Re-render when either file changes
  go-usage-board diff --log session.jsonl            # Last edit in a transcript
  go-usage-board diff --log session.jsonl --all      # Every edit, headers only`,
		Args: func(cmd *cobra.Command, args []string) error {
			if diffLog != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage: true,
		RunE:         runDiff,
	}
)

var statusNames = map[string]model.EditStatus{
	"pending": model.EditPending,
	"success": model.EditSucceeded,
	"failed":  model.EditFailed,
}

func init() {
	diffCmd.Flags().StringVar(&diffFile, "file", "",
		"File name used for the header and language detection (default NEW)")
	diffCmd.Flags().StringVar(&diffTheme, "theme", "auto",
		"Color theme (auto, dark, light)")
	diffCmd.Flags().BoolVar(&diffCollapsed, "collapsed", false,
		"Show the header only")
	diffCmd.Flags().BoolVarP(&diffWatch, "watch", "w", false,
		"Re-render when OLD or NEW changes")
	diffCmd.Flags().StringVar(&diffStatus, "status", "pending",
		"Edit status shown in the header (pending, success, failed)")
	diffCmd.Flags().StringVar(&diffLog, "log", "",
		"Session transcript (JSONL) to read edits from")
	diffCmd.Flags().IntVar(&diffIndex, "index", -1,
		"Edit to show from --log, 0-based; negative counts from the end")
	diffCmd.Flags().BoolVar(&diffAll, "all", false,
		"Show every edit from --log")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	initLogging()

	theme, err := resolveTheme(diffTheme)
	if err != nil {
		return err
	}
	collapsed := diffCollapsed
	if diffAll && !cmd.Flags().Changed("collapsed") {
		// --all lists headers unless --collapsed=false
		collapsed = true
	}
	opts := []edit.WidgetOption{
		edit.WithTheme(theme),
		edit.WithExpanded(!collapsed),
		edit.WithColor(util.IsTerminal()),
	}
	renderer := diffview.NewRenderer(highlight.NewHighlighter("terminal256"))
	out := cmd.OutOrStdout()

	if diffLog != "" {
		return renderLogEdits(out, renderer, diffLog, diffIndex, diffAll, opts...)
	}

	status, ok := statusNames[diffStatus]
	if !ok {
		return fmt.Errorf("unknown status %q (valid: pending, success, failed)", diffStatus)
	}
	file := diffFile
	if file == "" {
		file = args[1]
	}

	widget := edit.NewWidget(renderer, opts...)
	widget.SetStatus(status)
	if err := loadFiles(widget, file, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprint(out, widget.Render())

	if !diffWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchFiles(ctx, out, widget, file, args[0], args[1])
}

// resolveTheme maps "auto" to the terminal background.
func resolveTheme(name string) (highlight.Theme, error) {
	if name == "auto" {
		if lipgloss.HasDarkBackground() {
			return highlight.ThemeDark, nil
		}
		return highlight.ThemeLight, nil
	}
	return highlight.ParseTheme(name)
}

func loadFiles(widget *edit.Widget, file, oldPath, newPath string) error {
	oldText, err := os.ReadFile(oldPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", oldPath, err)
	}
	newText, err := os.ReadFile(newPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", newPath, err)
	}
	widget.SetInput(file, string(oldText), string(newText))
	return nil
}

func watchFiles(ctx context.Context, w io.Writer, widget *edit.Widget, file, oldPath, newPath string) error {
	watcher, err := edit.NewWatcher([]string{oldPath, newPath}, edit.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch files: %w", err)
	}
	defer watcher.Close()
	go watcher.Run(ctx)

	for changed := range watcher.Events() {
		util.LogDebug("Diff input changed", util.F("path", changed))
		if err := loadFiles(widget, file, oldPath, newPath); err != nil {
			// the file may be mid-rewrite; the next event retries
			util.LogWarn("Failed to reload diff input", util.F("error", err.Error()))
			continue
		}
		if util.IsTerminal() {
			util.ClearScreen(w)
		}
		fmt.Fprint(w, widget.Render())
	}
	return nil
}

// renderLogEdits renders one edit, or all of them, from a transcript.
func renderLogEdits(w io.Writer, renderer *diffview.Renderer, path string, index int, all bool, opts ...edit.WidgetOption) error {
	ops, err := parser.ParseEdits(path)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return fmt.Errorf("no edits found in %s", path)
	}

	if !all {
		if index < 0 {
			index += len(ops)
		}
		if index < 0 || index >= len(ops) {
			return fmt.Errorf("edit index out of range: %s has %d edits", path, len(ops))
		}
		ops = ops[index : index+1]
	}

	for _, op := range ops {
		widget := edit.NewWidget(renderer, opts...)
		widget.FromOperation(op)
		checkReportedCounts(op, widget)
		fmt.Fprint(w, widget.Render())
	}
	return nil
}

// checkReportedCounts compares the computed diff with the line counts the
// tool reported for the edit, when it reported any.
func checkReportedCounts(op model.EditOperation, widget *edit.Widget) {
	if !op.Reported {
		return
	}
	stats := widget.Result().Stats
	if !stats.Matches(op.ReportedAdded, op.ReportedRemoved) {
		util.LogDebug("Edit line counts differ from tool report",
			util.F("tool_use_id", op.ToolUseID),
			util.F("file", op.FilePath),
			util.F("added", stats.Added),
			util.F("removed", stats.Removed),
			util.F("reported_added", op.ReportedAdded),
			util.F("reported_removed", op.ReportedRemoved))
	}
}
