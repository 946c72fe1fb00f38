package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/internal/ui/components"
	"github.com/fenilsonani/safeclean/internal/ui/styles"
	uiutils "github.com/fenilsonani/safeclean/internal/ui/utils"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

// SafetyLevel represents the safety level of a category
type SafetyLevel int

const (
	SafetyLow SafetyLevel = iota
	SafetyMedium
	SafetyHigh
)

func (s SafetyLevel) String() string {
	switch s {
	case SafetyHigh:
		return "SAFE"
	case SafetyMedium:
		return "CAUTION"
	case SafetyLow:
		return "RISKY"
	default:
		return "UNKNOWN"
	}
}

// CategoryItem represents a selectable category
type CategoryItem struct {
	Category    config.Category
	Count       int
	Size        int64
	Selected    bool
	SafetyLevel SafetyLevel
	Recommended bool
}

// CategoryViewModel handles category selection
type CategoryViewModel struct {
	result     *scanner.Result
	categories []CategoryItem
	cursor     int
	showInfo   bool
	width      int
	height     int
}

// NewCategoryViewModel creates a new category view model
func NewCategoryViewModel(result *scanner.Result, width, height int) *CategoryViewModel {
	var categories []CategoryItem
	for _, g := range result.GroupByCategory() {
		safety, recommended := categoryDefaults(g.Category)
		categories = append(categories, CategoryItem{
			Category:    g.Category,
			Count:       len(g.Items),
			Size:        g.TotalSize,
			Selected:    recommended,
			SafetyLevel: safety,
			Recommended: recommended,
		})
	}

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &CategoryViewModel{
		result:     result,
		categories: categories,
		width:      width,
		height:     height,
	}
}

// categoryDefaults returns the safety level of a category and whether it
// starts selected. Anything that may hold user files starts unselected.
func categoryDefaults(c config.Category) (SafetyLevel, bool) {
	switch c {
	case config.CategoryCaches, config.CategoryLogs:
		return SafetyHigh, true
	case config.CategoryOldDownloads:
		return SafetyMedium, false
	default:
		return SafetyLow, false
	}
}

// Categories returns the rows in display order
func (m *CategoryViewModel) Categories() []CategoryItem { return m.categories }

// Init initializes the category view
func (m *CategoryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *CategoryViewModel) Update(msg tea.Msg) (*CategoryViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.categories)-1 {
				m.cursor++
			}
		case "g":
			m.cursor = 0
		case "G":
			if len(m.categories) > 0 {
				m.cursor = len(m.categories) - 1
			}
		case "space", " ":
			if m.cursor < len(m.categories) {
				m.categories[m.cursor].Selected = !m.categories[m.cursor].Selected
			}
		case "x":
			if m.cursor < len(m.categories) {
				m.categories[m.cursor].Selected = !m.categories[m.cursor].Selected
				if m.cursor < len(m.categories)-1 {
					m.cursor++
				}
			}
		case "ctrl+a":
			for i := range m.categories {
				m.categories[i].Selected = true
			}
		case "ctrl+d":
			for i := range m.categories {
				m.categories[i].Selected = false
			}
		case "i":
			m.showInfo = !m.showInfo
		case "esc":
			m.showInfo = false
		case "enter":
			return m, m.proceedToFileBrowser()
		}
	}

	return m, nil
}

// View renders the category selection view
func (m *CategoryViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.NewLayout(m.width, m.height).Banner(); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("📦 Select Categories to Review"))
	b.WriteString("\n\n")

	if len(m.categories) == 0 {
		b.WriteString(styles.SuccessStyle.Render("Nothing to clean up. "))
		b.WriteString(m.trashLine())
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("q: quit"))
		return b.String()
	}

	helpText := "↑/↓:navigate  space:toggle  x:toggle+down  ctrl+a:all  ctrl+d:none  i:info  enter:continue"
	if m.width < 80 {
		helpText = "↑/↓:move  space:toggle  enter:continue"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))
	b.WriteString("\n\n")

	for i, cat := range m.categories {
		cursor := "  "
		if i == m.cursor {
			cursor = styles.SelectedStyle.Render("→ ")
		}

		checkbox := styles.UncheckedBox()
		if cat.Selected {
			checkbox = styles.CheckedBox()
		}

		nameStyle := lipgloss.NewStyle().Foreground(styles.GetCategoryColor(cat.Category)).Bold(true)
		line := fmt.Sprintf("%s%s %s %s",
			cursor,
			checkbox,
			styles.GetCategoryIcon(cat.Category),
			nameStyle.Render(cat.Category.Label()),
		)

		level := cat.SafetyLevel.String()
		safetyStyle := lipgloss.NewStyle().Foreground(styles.GetSafetyColor(level))
		line += " " + safetyStyle.Render(styles.GetSafetyIcon(level))

		if cat.Recommended {
			line += " " + styles.RecommendedBadgeStyle.Render("RECOMMENDED")
		}

		sizeStyle := lipgloss.NewStyle().Foreground(styles.GetFileSizeColor(cat.Size)).Bold(true)
		line += fmt.Sprintf(" (%s items, %s)",
			styles.DimStyle.Render(fmt.Sprintf("%d", cat.Count)),
			sizeStyle.Render(utils.FormatBytes(cat.Size)),
		)

		b.WriteString(line)
		b.WriteString("\n")

		if i == m.cursor && m.width >= 100 {
			descStyle := lipgloss.NewStyle().Foreground(styles.TextDim).Italic(true).MarginLeft(6)
			b.WriteString(descStyle.Render("↳ " + components.CategoryDescription(cat.Category)))
			b.WriteString("\n")
		}
	}

	if m.showInfo && m.cursor < len(m.categories) {
		cat := m.categories[m.cursor]
		panel := components.CategoryInfoPanel(cat.Category, cat.Count, cat.Size, cat.SafetyLevel.String(), m.width)
		panel.SetVisible(true)
		b.WriteString("\n")
		b.WriteString(panel.Render())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	selectedItems, selectedCats := 0, 0
	var selectedSize int64
	for _, cat := range m.categories {
		if cat.Selected {
			selectedCats++
			selectedItems += cat.Count
			selectedSize += cat.Size
		}
	}

	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Selected: %d items, %s",
		selectedItems, utils.FormatBytes(selectedSize))))
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render(m.trashLine()))
	b.WriteString("\n\n")

	statusBar := components.NewStatusBar("Category Selection", m.result.Settings.DryRun)
	statusBar.SetSelection(selectedCats, len(m.categories), selectedSize)
	statusBar.SetShortcuts(
		components.Shortcut{Key: "enter", Desc: "continue"},
		components.Shortcut{Key: "space", Desc: "toggle"},
		components.Shortcut{Key: "q", Desc: "quit"},
		components.Shortcut{Key: "ctrl+a", Desc: "select all"},
		components.Shortcut{Key: "ctrl+d", Desc: "deselect all"},
	)

	b.WriteString(statusBar.Render(m.width))

	return b.String()
}

func (m *CategoryViewModel) trashLine() string {
	if m.result == nil || m.result.Trash == nil {
		return ""
	}
	return fmt.Sprintf("Trash holds %d entries (%s); empty it with the empty-trash command.",
		m.result.Trash.Entries, utils.FormatBytes(m.result.Trash.Size))
}

func (m *CategoryViewModel) proceedToFileBrowser() tea.Cmd {
	var selected []config.Category
	for _, cat := range m.categories {
		if cat.Selected {
			selected = append(selected, cat.Category)
		}
	}
	if len(selected) == 0 {
		return nil
	}

	return func() tea.Msg {
		return CategoriesSelectedMsg{Categories: selected}
	}
}
