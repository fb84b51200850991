// Package style holds the color palette and status glyphs shared by largo's
// terminal output.
package style

import "github.com/charmbracelet/lipgloss"

// Palette. Slate is the resting text color; the rest mark log levels and
// package states.
var (
	Slate  = lipgloss.Color("#667085")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Status glyphs.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
)
