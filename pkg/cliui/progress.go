package cliui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/papercomputeco/kbconsole/pkg/upload"
)

// StageLabel returns a styled label for an upload stage.
func StageLabel(s upload.Stage) string {
	switch s {
	case upload.StageIdle:
		return DimStyle.Render("idle")
	case upload.StageUploading:
		return StepStyle.Render("uploading")
	case upload.StageQueued:
		return IDStyle.Render("processing")
	case upload.StageComplete:
		return SuccessMark + " complete"
	case upload.StageFailed:
		return FailMark + " failed"
	}
	return string(s)
}

// NewProgressBar returns a gradient progress bar of the given width.
func NewProgressBar(width int) progress.Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = width
	return bar
}

// ProgressLine renders one line for an upload state: bar, percent, bytes
// and stage.
func ProgressLine(bar progress.Model, s upload.State) string {
	line := fmt.Sprintf("%s %s / %s  %s",
		bar.ViewAs(float64(s.Percent)/100),
		FormatBytes(s.Sent),
		FormatBytes(s.Total),
		StageLabel(s.Stage),
	)
	if s.Err != nil {
		line += "  " + ErrorStyle.Render(s.Err.Error())
	}
	return line
}
