package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/internal/ui/styles"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

// InfoPanel represents a contextual information panel
type InfoPanel struct {
	title   string
	content []InfoItem
	visible bool
	width   int
}

// InfoItem represents a single piece of information
type InfoItem struct {
	Label string
	Value string
	Icon  string
}

// NewInfoPanel creates a new info panel
func NewInfoPanel(title string, width int) *InfoPanel {
	return &InfoPanel{
		title: title,
		width: width,
	}
}

// AddItem adds an information item to the panel
func (p *InfoPanel) AddItem(label, value, icon string) {
	p.content = append(p.content, InfoItem{
		Label: label,
		Value: value,
		Icon:  icon,
	})
}

// SetVisible sets the visibility of the panel
func (p *InfoPanel) SetVisible(visible bool) {
	p.visible = visible
}

// IsVisible returns whether the panel is visible
func (p *InfoPanel) IsVisible() bool {
	return p.visible
}

// Toggle toggles the visibility of the panel
func (p *InfoPanel) Toggle() {
	p.visible = !p.visible
}

// Render renders the info panel
func (p *InfoPanel) Render() string {
	if !p.visible || len(p.content) == 0 {
		return ""
	}

	// Half the terminal, between 40 and 80 columns
	panelWidth := p.width / 2
	if panelWidth < 40 {
		panelWidth = 40
	}
	if panelWidth > 80 {
		panelWidth = 80
	}

	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(styles.FocusBorder).
		Padding(1, 2).
		Width(panelWidth)

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Underline(true)
	labelStyle := lipgloss.NewStyle().
		Foreground(styles.Secondary).
		Bold(true)
	valueStyle := lipgloss.NewStyle().
		Foreground(styles.Text)

	var content strings.Builder
	content.WriteString(titleStyle.Render(p.title))
	content.WriteString("\n\n")

	for i, item := range p.content {
		if item.Icon != "" {
			content.WriteString(item.Icon + " ")
		}
		content.WriteString(labelStyle.Render(item.Label) + ": ")
		content.WriteString(valueStyle.Render(item.Value))
		if i < len(p.content)-1 {
			content.WriteString("\n")
		}
	}

	content.WriteString("\n\n")
	content.WriteString(styles.HelpStyle.Render("Press 'i' or 'esc' to close"))

	return panelStyle.Render(content.String())
}

// CategoryInfoPanel creates an info panel for a category
func CategoryInfoPanel(cat config.Category, count int, size int64, safetyLevel string, width int) *InfoPanel {
	panel := NewInfoPanel("Category Information", width)

	panel.AddItem("Category", cat.Label(), styles.GetCategoryIcon(cat))
	panel.AddItem("Items", fmt.Sprintf("%d", count), "📊")
	panel.AddItem("Total Size", utils.FormatBytes(size), "💾")
	panel.AddItem("Safety Level", safetyLevel, styles.GetSafetyIcon(safetyLevel))
	panel.AddItem("Description", CategoryDescription(cat), "📝")

	return panel
}

// ItemInfoPanel creates an info panel for one scanned item
func ItemInfoPanel(item scanner.Item, width int) *InfoPanel {
	panel := NewInfoPanel("Item Information", width)

	kind := "File"
	switch {
	case item.IsSymlink:
		kind = "Symbolic link"
	case item.IsDir:
		kind = "Folder"
	}

	panel.AddItem("Path", item.Path, "📁")
	panel.AddItem("Type", kind, "📄")
	panel.AddItem("Size", utils.FormatBytes(item.Size), "💾")
	panel.AddItem("Modified", item.ModTime.Format("2006-01-02 15:04"), "🕒")
	panel.AddItem("Category", item.Category.Label(), styles.GetCategoryIcon(item.Category))
	panel.AddItem("Recommendation", item.Reason, "💡")

	return panel
}

// CategoryDescription explains what a category finds
func CategoryDescription(cat config.Category) string {
	switch cat {
	case config.CategoryLargeFiles:
		return "Big files in Downloads and extra folders; review before removing"
	case config.CategoryOldDownloads:
		return "Downloads you have not touched in a long time"
	case config.CategoryCaches:
		return "Application caches that are rebuilt on demand"
	case config.CategoryLogs:
		return "Old log files"
	case config.CategoryTrashReport:
		return "Size of the trash; emptied only with its own confirmation"
	}
	return "No description available"
}
