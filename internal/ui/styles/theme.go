package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/safeclean/internal/config"
)

// Theme colors
var (
	Primary     = lipgloss.Color("#7C3AED")
	Secondary   = lipgloss.Color("#A78BFA")
	Success     = lipgloss.Color("#10B981")
	Warning     = lipgloss.Color("#F59E0B")
	Danger      = lipgloss.Color("#EF4444")
	Info        = lipgloss.Color("#3B82F6")
	Muted       = lipgloss.Color("#6B7280")
	Text        = lipgloss.Color("#F3F4F6")
	TextDim     = lipgloss.Color("#9CA3AF")
	Border      = lipgloss.Color("#4B5563")
	FocusBorder = lipgloss.Color("#8B5CF6")
	BgDark      = lipgloss.Color("#1F2937")
	BgLight     = lipgloss.Color("#374151")
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			MarginBottom(1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(1, 2)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	CheckboxStyle = lipgloss.NewStyle().
			Foreground(Success)

	CheckboxUncheckedStyle = lipgloss.NewStyle().
				Foreground(Muted)

	FilePathStyle = lipgloss.NewStyle().
			Foreground(Info)

	FileSizeStyle = lipgloss.NewStyle().
			Foreground(Warning)

	CategoryStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(BgDark).
			Padding(0, 1)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(Primary).
			Bold(true)

	RecommendedBadgeStyle = lipgloss.NewStyle().
				Foreground(BgDark).
				Background(Success).
				Padding(0, 1)

	DimStyle = lipgloss.NewStyle().
			Foreground(TextDim)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Info).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)
)

// Helper functions
func CheckedBox() string {
	return CheckboxStyle.Render("☑")
}

func UncheckedBox() string {
	return CheckboxUncheckedStyle.Render("☐")
}

func ProgressBar(current, total int, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}

	filled := current * width / total
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(Primary).Render(bar)
}

// GetCategoryIcon returns the icon shown next to a category
func GetCategoryIcon(c config.Category) string {
	switch c {
	case config.CategoryLargeFiles:
		return "📀"
	case config.CategoryOldDownloads:
		return "📥"
	case config.CategoryCaches:
		return "💾"
	case config.CategoryLogs:
		return "📜"
	case config.CategoryTrashReport:
		return "🗑"
	}
	return "•"
}

// GetCategoryColor returns the accent color of a category
func GetCategoryColor(c config.Category) lipgloss.Color {
	switch c {
	case config.CategoryLargeFiles:
		return Danger
	case config.CategoryOldDownloads:
		return Warning
	case config.CategoryCaches:
		return Success
	case config.CategoryLogs:
		return Info
	}
	return Muted
}

// GetSafetyIcon returns the marker for a safety level name
func GetSafetyIcon(level string) string {
	switch level {
	case "SAFE":
		return "✓"
	case "CAUTION":
		return "⚠"
	case "RISKY":
		return "✗"
	}
	return "?"
}

// GetSafetyColor returns the color for a safety level name
func GetSafetyColor(level string) lipgloss.Color {
	switch level {
	case "SAFE":
		return Success
	case "CAUTION":
		return Warning
	case "RISKY":
		return Danger
	}
	return Muted
}

// GetFileSizeColor grades a size: red from 1 GiB, amber from 100 MiB
func GetFileSizeColor(size int64) lipgloss.Color {
	switch {
	case size >= 1<<30:
		return Danger
	case size >= 100<<20:
		return Warning
	}
	return Text
}
