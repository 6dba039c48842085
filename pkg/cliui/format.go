package cliui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

// FormatBytes formats a byte count with binary units (e.g. "1.5 GiB").
// Negative counts display as zero.
func FormatBytes(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}

// FormatTime formats a timestamp relative to now (e.g. "3 hours ago").
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// Truncate shortens s to width cells, keeping ANSI styling intact.
func Truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}
