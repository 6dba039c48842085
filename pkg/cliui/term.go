package cliui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// fd returns the descriptor behind w when w is an *os.File.
func fd(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	return int(f.Fd()), true
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	n, ok := fd(w)
	return ok && term.IsTerminal(n)
}

// Width returns the column count of the terminal behind w, or fallback.
func Width(w io.Writer, fallback int) int {
	n, ok := fd(w)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(n)
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// DisableColor renders every style without color, e.g. for --plain.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
