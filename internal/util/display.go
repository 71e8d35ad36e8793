package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const defaultTerminalWidth = 100

// GetDisplayWidth calculates the display width of a string, accounting for wide runes
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadString pads s with spaces to the given display width
func PadString(s string, width int, leftAlign bool) string {
	actual := GetDisplayWidth(s)
	if actual >= width {
		return s
	}
	padding := strings.Repeat(" ", width-actual)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

// Truncate shortens s to at most width display cells, ending with an ellipsis
func Truncate(s string, width int) string {
	if GetDisplayWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// TerminalWidth returns the stdout terminal width, or a fallback when stdout is not a terminal
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return defaultTerminalWidth
	}
	return width
}

// IsTerminal reports whether stdout is attached to a terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ClearScreen clears the terminal and its scrollback, leaving the cursor at the top left
func ClearScreen(w io.Writer) {
	fmt.Fprint(w, "\033[2J\033[3J\033[H")
}
