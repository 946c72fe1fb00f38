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

var sortCycle = []scanner.SortOrder{scanner.SortSize, scanner.SortAge, scanner.SortName, scanner.SortDiscovery}

// BrowserViewModel handles item browsing and selection. Selection is kept
// by path so it survives re-sorting.
type BrowserViewModel struct {
	result     *scanner.Result
	categories config.CategorySet
	items      []scanner.Item
	selected   map[string]bool
	sortIdx    int
	cursor     int
	offset     int
	pageSize   int
	infoPanel  *components.InfoPanel
	width      int
	height     int
}

// NewBrowserViewModel lists the items of the chosen categories, largest
// first. Nothing starts selected.
func NewBrowserViewModel(result *scanner.Result, categories []config.Category, width, height int) *BrowserViewModel {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	m := &BrowserViewModel{
		result:     result,
		categories: config.NewCategorySet(categories...),
		selected:   make(map[string]bool),
		pageSize:   uiutils.NewLayout(width, height).PageSize(),
		width:      width,
		height:     height,
	}
	m.resort()
	return m
}

func (m *BrowserViewModel) resort() {
	m.items = m.items[:0]
	for _, it := range m.result.Sorted(sortCycle[m.sortIdx]) {
		if m.categories.Has(it.Category) {
			m.items = append(m.items, it)
		}
	}
	m.cursor, m.offset = 0, 0
}

// Items returns the listed items in display order
func (m *BrowserViewModel) Items() []scanner.Item { return m.items }

// PanelOpen reports whether the item details panel is showing
func (m *BrowserViewModel) PanelOpen() bool {
	return m.infoPanel != nil && m.infoPanel.IsVisible()
}

// Init initializes the browser view
func (m *BrowserViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *BrowserViewModel) Update(msg tea.Msg) (*BrowserViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pageSize = uiutils.NewLayout(msg.Width, msg.Height).PageSize()

	case tea.KeyMsg:
		if m.PanelOpen() {
			switch msg.String() {
			case "i", "esc":
				m.infoPanel.SetVisible(false)
			}
			return m, nil
		}

		switch msg.String() {
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.pageSize)
		case "pgdown":
			m.move(m.pageSize)
		case "g":
			m.move(-len(m.items))
		case "G":
			m.move(len(m.items))
		case "space", " ":
			m.toggle()
		case "x":
			m.toggle()
			m.move(1)
		case "ctrl+a":
			for _, it := range m.items {
				m.selected[it.Path] = true
			}
		case "ctrl+d":
			m.selected = make(map[string]bool)
		case "s":
			m.sortIdx = (m.sortIdx + 1) % len(sortCycle)
			m.resort()
		case "i":
			if m.cursor < len(m.items) {
				m.infoPanel = components.ItemInfoPanel(m.items[m.cursor], m.width)
				m.infoPanel.SetVisible(true)
			}
		case "enter":
			return m, m.proceedToConfirmation()
		}
	}

	return m, nil
}

func (m *BrowserViewModel) move(delta int) {
	if len(m.items) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor > len(m.items)-1 {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.pageSize {
		m.offset = m.cursor - m.pageSize + 1
	}
}

func (m *BrowserViewModel) toggle() {
	if m.cursor >= len(m.items) {
		return
	}
	p := m.items[m.cursor].Path
	if m.selected[p] {
		delete(m.selected, p)
	} else {
		m.selected[p] = true
	}
}

// Selected returns the chosen items in display order
func (m *BrowserViewModel) Selected() []scanner.Item {
	var out []scanner.Item
	for _, it := range m.items {
		if m.selected[it.Path] {
			out = append(out, it)
		}
	}
	return out
}

// View renders the browser view
func (m *BrowserViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.NewLayout(m.width, m.height).Banner(); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("📁 Select Items to Move to Trash"))
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("Sorted by %s", sortCycle[m.sortIdx])))
	b.WriteString("\n\n")

	if m.PanelOpen() {
		b.WriteString(m.infoPanel.Render())
		return b.String()
	}

	pathWidth := uiutils.NewLayout(m.width, m.height).PathWidth(30, 30)

	end := m.offset + m.pageSize
	if end > len(m.items) {
		end = len(m.items)
	}

	for i := m.offset; i < end; i++ {
		it := m.items[i]

		cursor := "  "
		if i == m.cursor {
			cursor = styles.SelectedStyle.Render("→ ")
		}

		checkbox := styles.UncheckedBox()
		if m.selected[it.Path] {
			checkbox = styles.CheckedBox()
		}

		name := it.Path
		if it.IsDir {
			name += "/"
		}

		sizeStyle := lipgloss.NewStyle().Foreground(styles.GetFileSizeColor(it.Size))
		b.WriteString(fmt.Sprintf("%s%s %s %s %s\n",
			cursor,
			checkbox,
			styles.GetCategoryIcon(it.Category),
			styles.FilePathStyle.Render(utils.TruncatePath(name, pathWidth)),
			sizeStyle.Render(utils.FormatBytes(it.Size)),
		))
	}

	if len(m.items) > m.pageSize {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  %d-%d of %d", m.offset+1, end, len(m.items))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	var selectedSize int64
	selected := m.Selected()
	for _, it := range selected {
		selectedSize += it.Size
	}

	statusBar := components.NewStatusBar("File Browser", m.result.Settings.DryRun)
	statusBar.SetSelection(len(selected), len(m.items), selectedSize)
	statusBar.SetShortcuts(
		components.Shortcut{Key: "enter", Desc: "continue"},
		components.Shortcut{Key: "space", Desc: "toggle"},
		components.Shortcut{Key: "esc", Desc: "back"},
		components.Shortcut{Key: "s", Desc: "sort"},
		components.Shortcut{Key: "i", Desc: "details"},
	)
	b.WriteString(statusBar.Render(m.width))

	return b.String()
}

func (m *BrowserViewModel) proceedToConfirmation() tea.Cmd {
	selected := m.Selected()
	if len(selected) == 0 {
		return nil
	}
	return func() tea.Msg {
		return ItemsSelectedMsg{Items: selected}
	}
}
