package utils

import (
	"fmt"

	"github.com/fenilsonani/safeclean/internal/ui/styles"
)

// Below this size the views still render but show a warning first.
const (
	MinTerminalWidth  = 80
	MinTerminalHeight = 24
)

// rows taken by titles, help lines and the status bar
const reservedRows = 10

// Layout is the terminal area a view renders into
type Layout struct {
	Width  int
	Height int
}

// NewLayout returns the layout for a width and height. Zero means no
// WindowSizeMsg has arrived yet; the minimum size is assumed until one does.
func NewLayout(width, height int) Layout {
	if width <= 0 {
		width = MinTerminalWidth
	}
	if height <= 0 {
		height = MinTerminalHeight
	}
	return Layout{Width: width, Height: height}
}

// PageSize is how many list rows fit, never fewer than five
func (l Layout) PageSize() int {
	return max(l.Height-reservedRows, 5)
}

// PathWidth is the room left for a path after reserved columns, never less
// than floor
func (l Layout) PathWidth(reserved, floor int) int {
	return max(l.Width-reserved, floor)
}

// TooSmall reports whether the terminal is under the minimum size
func (l Layout) TooSmall() bool {
	return l.Width < MinTerminalWidth || l.Height < MinTerminalHeight
}

// Banner returns a warning for an undersized terminal, or "".
func (l Layout) Banner() string {
	if !l.TooSmall() {
		return ""
	}
	warning := fmt.Sprintf("⚠️  Terminal too small! Recommended: %dx%d or larger", MinTerminalWidth, MinTerminalHeight)
	warning += styles.DimStyle.Render(" (current: ") +
		styles.WarningStyle.Render(fmt.Sprintf("%dx%d", l.Width, l.Height)) +
		styles.DimStyle.Render(")")
	return styles.WarningStyle.Render(warning) + "\n\n"
}
