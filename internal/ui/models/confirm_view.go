package models

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/safeclean/internal/cleaner"
	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/internal/ui/styles"
	uiutils "github.com/fenilsonani/safeclean/internal/ui/utils"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

// RiskLevel represents the risk level of a deletion request
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// ConfirmViewModel asks the user to type the confirmation token. Nothing
// else starts a deletion.
type ConfirmViewModel struct {
	items     []scanner.Item
	input     textinput.Model
	dryRun    bool
	riskLevel RiskLevel
	errMsg    string
	width     int
	height    int
}

// NewConfirmViewModel creates a new confirm view model
func NewConfirmViewModel(items []scanner.Item, dryRun bool, width, height int) *ConfirmViewModel {
	ti := textinput.New()
	ti.Placeholder = cleaner.ConfirmDelete
	ti.CharLimit = 32
	ti.Width = 20
	ti.Prompt = "> "
	ti.Focus()

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &ConfirmViewModel{
		items:     items,
		input:     ti,
		dryRun:    dryRun,
		riskLevel: calculateRiskLevel(items),
		width:     width,
		height:    height,
	}
}

// calculateRiskLevel grades a request by what it touches
func calculateRiskLevel(items []scanner.Item) RiskLevel {
	cats := make(map[config.Category]bool)
	for _, it := range items {
		cats[it.Category] = true
	}

	if len(items) > 500 || cats[config.CategoryLargeFiles] {
		return RiskHigh
	}
	if len(items) >= 50 || cats[config.CategoryOldDownloads] {
		return RiskMedium
	}
	return RiskLow
}

// Init starts the cursor blinking
func (m *ConfirmViewModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (*ConfirmViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			token := m.input.Value()
			if token != cleaner.ConfirmDelete {
				m.errMsg = fmt.Sprintf("Type %s exactly, in capitals, to continue.", cleaner.ConfirmDelete)
				m.input.SetValue("")
				return m, nil
			}
			return m, func() tea.Msg { return ConfirmedMsg{Token: token} }
		case "ctrl+e":
			return m, func() tea.Msg { return ReviewSelectionMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Err returns the message shown after a rejected token
func (m *ConfirmViewModel) Err() string { return m.errMsg }

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.NewLayout(m.width, m.height).Banner(); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("⚠️  Confirm Move to Trash"))
	b.WriteString("\n\n")

	var totalSize int64
	type tally struct {
		count int
		size  int64
	}
	breakdown := make(map[config.Category]tally)
	for _, it := range m.items {
		totalSize += it.Size
		t := breakdown[it.Category]
		t.count++
		t.size += it.Size
		breakdown[it.Category] = t
	}

	verb := "move"
	if m.dryRun {
		verb = "check"
	}
	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("You are about to %s %d items (%s) to the trash",
		verb, len(m.items), utils.FormatBytes(totalSize))))
	b.WriteString("\n\n")

	b.WriteString(styles.SubtitleStyle.Render("Breakdown:"))
	b.WriteString("\n")
	for _, c := range config.AllCategories {
		t, ok := breakdown[c]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("  %-16s %3d items (%s)\n",
			styles.CategoryStyle.Render(c.Label()+":"),
			t.count,
			styles.FileSizeStyle.Render(utils.FormatBytes(t.size))))
	}
	b.WriteString("\n")

	riskText, riskStyle, riskIcon := m.riskDisplay()
	b.WriteString(fmt.Sprintf("Risk Level: %s %s\n\n", riskIcon, riskStyle(riskText)))

	if m.dryRun {
		b.WriteString(styles.InfoStyle.Render("Dry run: nothing will be moved."))
	} else {
		b.WriteString(styles.WarningStyle.Render("Items go to the trash and can be restored from there."))
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Type %s to confirm:\n", styles.HighlightStyle.Render(cleaner.ConfirmDelete)))
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(styles.ErrorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	helpText := "enter:confirm  ctrl+e:edit selection  esc:back"
	if m.width < 60 {
		helpText = "enter  ctrl+e  esc"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))

	return b.String()
}

func (m *ConfirmViewModel) riskDisplay() (string, func(string) string, string) {
	switch m.riskLevel {
	case RiskHigh:
		return "HIGH (large files or many items)", func(s string) string { return styles.ErrorStyle.Render(s) }, "🔴"
	case RiskMedium:
		return "MEDIUM (includes downloads)", func(s string) string { return styles.WarningStyle.Render(s) }, "⚠️"
	default:
		return "LOW (caches and logs only)", func(s string) string { return styles.SuccessStyle.Render(s) }, "✓"
	}
}
