package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/safeclean/internal/ui/styles"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

// Shortcut is a key hint on the right of the status bar
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line of the selection views. It always shows
// whether confirming will move anything.
type StatusBar struct {
	view      string
	dryRun    bool
	selected  int
	total     int
	bytes     int64
	shortcuts []Shortcut
}

// NewStatusBar creates a status bar for view
func NewStatusBar(view string, dryRun bool) *StatusBar {
	return &StatusBar{view: view, dryRun: dryRun}
}

// SetSelection records how many of total entries are selected and their size
func (s *StatusBar) SetSelection(selected, total int, bytes int64) {
	s.selected = selected
	s.total = total
	s.bytes = bytes
}

// SetShortcuts sets the key hints, most important first
func (s *StatusBar) SetShortcuts(shortcuts ...Shortcut) {
	s.shortcuts = shortcuts
}

func (s *StatusBar) mode() string {
	if s.dryRun {
		return styles.InfoStyle.Render("DRY RUN")
	}
	return styles.WarningStyle.Render("MOVES TO TRASH")
}

// Render lays the bar out across width. Hints that do not fit are dropped
// from the end; the mode and selection are always kept.
func (s *StatusBar) Render(width int) string {
	if width <= 0 {
		width = 80
	}

	left := []string{styles.BoldStyle.Render(s.view), s.mode()}
	if s.total > 0 {
		left = append(left, fmt.Sprintf("%d/%d selected", s.selected, s.total))
	}
	left = append(left, styles.FileSizeStyle.Render(utils.FormatBytes(s.bytes)))
	leftSide := strings.Join(left, " • ")

	hints := make([]string, 0, len(s.shortcuts))
	for _, sc := range s.shortcuts {
		hints = append(hints, styles.DimStyle.Render(sc.Key)+":"+sc.Desc)
	}

	room := width - lipgloss.Width(leftSide) - 3
	rightSide := strings.Join(hints, " ")
	for len(hints) > 0 && lipgloss.Width(rightSide) > room {
		hints = hints[:len(hints)-1]
		rightSide = strings.Join(hints, " ")
	}

	spacing := max(width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide)-2, 1)
	line := leftSide + strings.Repeat(" ", spacing) + rightSide

	return styles.StatusBarStyle.Width(width).Render(line)
}
