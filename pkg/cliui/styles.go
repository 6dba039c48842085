// Package cliui holds the terminal look of the kb commands: colors and
// marks, a step spinner, byte and time formatting, markdown rendering, and
// upload progress lines.
package cliui

import "github.com/charmbracelet/lipgloss"

// Palette, in 256-color codes.
const (
	colorGreen  = lipgloss.Color("82")
	colorRed    = lipgloss.Color("196")
	colorAmber  = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorViolet = lipgloss.Color("141")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
	colorLight  = lipgloss.Color("252")
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(colorGreen).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(colorRed).Render("✗")

	KeyStyle     = lipgloss.NewStyle().Foreground(colorGray)
	StepStyle    = lipgloss.NewStyle().Foreground(colorGray)
	ValueStyle   = lipgloss.NewStyle().Foreground(colorLight)
	DimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	NameStyle    = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	IDStyle      = lipgloss.NewStyle().Foreground(colorAmber)
	RoleStyle    = lipgloss.NewStyle().Foreground(colorViolet).Bold(true)
	PreviewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(colorRed)

	spinnerStyle = lipgloss.NewStyle().Foreground(colorGreen)
)

// Mark returns SuccessMark for a nil error and FailMark otherwise.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}
