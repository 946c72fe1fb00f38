package models

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/safeclean/internal/cleaner"
	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/engine"
	"github.com/fenilsonani/safeclean/internal/platform"
	"github.com/fenilsonani/safeclean/internal/progress"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/internal/ui/styles"
)

// ViewState represents the current view in the app
type ViewState int

const (
	ViewScanning ViewState = iota
	ViewCategorySelection
	ViewFileBrowser
	ViewConfirmation
	ViewCleaning
	ViewSummary
	ViewHelp
)

// AppModel is the root model for the interactive TUI
type AppModel struct {
	state         ViewState
	previousState ViewState

	ctx      context.Context
	engine   *engine.Engine
	progress *progress.Reporter
	settings config.Settings
	result   *scanner.Result
	selected []scanner.Item

	scanView     *ScanViewModel
	categoryView *CategoryViewModel
	browserView  *BrowserViewModel
	confirmView  *ConfirmViewModel
	cleanupView  *CleanupViewModel
	summaryView  *SummaryViewModel

	width  int
	height int
	err    error
}

// NewAppModel creates the root model. pr must be the reporter the engine
// publishes deletion progress to.
func NewAppModel(ctx context.Context, eng *engine.Engine, pr *progress.Reporter, settings config.Settings) *AppModel {
	return &AppModel{
		state:    ViewScanning,
		ctx:      ctx,
		engine:   eng,
		progress: pr,
		settings: settings.Snapshot(),
	}
}

// Init starts scanning immediately
func (m *AppModel) Init() tea.Cmd {
	m.scanView = NewScanViewModel(m.ctx, m.engine, m.settings)
	return m.scanView.Init()
}

// Update handles messages
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == ViewHelp {
			m.state = m.previousState
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c":
			if m.state == ViewCleaning {
				// the cleaner skips whatever it has not reached yet
				if m.cleanupView != nil {
					m.cleanupView.Cancel()
				}
				return m, nil
			}
			m.engine.Cancel()
			return m, tea.Quit
		case "q":
			// typing into the confirmation prompt must not quit
			if m.state != ViewCleaning && m.state != ViewConfirmation {
				m.engine.Cancel()
				return m, tea.Quit
			}
		case "?":
			if m.state == ViewCategorySelection || m.state == ViewFileBrowser || m.state == ViewSummary {
				m.previousState = m.state
				m.state = ViewHelp
				return m, nil
			}
		case "esc":
			switch m.state {
			case ViewFileBrowser:
				if m.browserView == nil || !m.browserView.PanelOpen() {
					m.state = ViewCategorySelection
					return m, nil
				}
			case ViewConfirmation:
				m.state = ViewFileBrowser
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ScanStartedMsg, ScanEventMsg:
		// the scan must keep draining even if another view is showing
		var cmd tea.Cmd
		m.scanView, cmd = m.scanView.Update(msg)
		return m, cmd

	case CleanupProgressMsg:
		var cmd tea.Cmd
		if m.cleanupView != nil {
			m.cleanupView, cmd = m.cleanupView.Update(msg)
		}
		return m, cmd

	case ScanFailedMsg:
		m.err = msg.Err
		return m, nil

	case ScanCompleteMsg:
		m.result = msg.Result
		m.scanView.Update(msg)
		m.categoryView = NewCategoryViewModel(m.result, m.width, m.height)
		m.state = ViewCategorySelection
		return m, nil

	case CategoriesSelectedMsg:
		m.browserView = NewBrowserViewModel(m.result, msg.Categories, m.width, m.height)
		m.state = ViewFileBrowser
		return m, nil

	case ItemsSelectedMsg:
		if len(msg.Items) == 0 {
			return m, nil
		}
		m.selected = msg.Items
		m.confirmView = NewConfirmViewModel(msg.Items, m.settings.DryRun, m.width, m.height)
		m.state = ViewConfirmation
		return m, m.confirmView.Init()

	case ReviewSelectionMsg:
		m.state = ViewFileBrowser
		return m, nil

	case ConfirmedMsg:
		req := cleaner.Request{
			Result:       m.result,
			Paths:        pathsOf(m.selected),
			Settings:     m.settings,
			Confirmation: msg.Token,
		}
		m.cleanupView = NewCleanupViewModel(m.ctx, m.engine, m.progress, req, m.width, m.height)
		m.state = ViewCleaning
		return m, m.cleanupView.Init()

	case CleanupCompleteMsg:
		m.cleanupView.Update(msg)
		m.summaryView = NewSummaryViewModel(msg.Report, msg.Err, m.cleanupView.DiskBefore(), msg.After, m.width, m.height)
		m.state = ViewSummary
		return m, m.summaryView.Init()
	}

	return m.delegateUpdate(msg)
}

// delegateUpdate delegates the update to the current view
func (m *AppModel) delegateUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			m.scanView, cmd = m.scanView.Update(msg)
		}
	case ViewCategorySelection:
		if m.categoryView != nil {
			m.categoryView, cmd = m.categoryView.Update(msg)
		}
	case ViewFileBrowser:
		if m.browserView != nil {
			m.browserView, cmd = m.browserView.Update(msg)
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			m.confirmView, cmd = m.confirmView.Update(msg)
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			m.cleanupView, cmd = m.cleanupView.Update(msg)
		}
	case ViewSummary:
		if m.summaryView != nil {
			m.summaryView, cmd = m.summaryView.Update(msg)
		}
	}

	return m, cmd
}

// State returns the active view
func (m *AppModel) State() ViewState { return m.state }

// View renders the current view
func (m *AppModel) View() string {
	if m.err != nil {
		return styles.ErrorStyle.Render("Error: "+m.err.Error()) + "\n\nPress q to quit."
	}

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			return m.scanView.View()
		}
	case ViewCategorySelection:
		if m.categoryView != nil {
			return m.categoryView.View()
		}
	case ViewFileBrowser:
		if m.browserView != nil {
			return m.browserView.View()
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			return m.confirmView.View()
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			return m.cleanupView.View()
		}
	case ViewSummary:
		if m.summaryView != nil {
			return m.summaryView.View()
		}
	case ViewHelp:
		return m.renderHelp()
	}

	return "Loading..."
}

// renderHelp renders the help view with context-aware content
func (m *AppModel) renderHelp() string {
	var b strings.Builder

	viewName, content := "General", helpGeneral
	switch m.previousState {
	case ViewCategorySelection:
		viewName, content = "Category Selection", helpCategory
	case ViewFileBrowser:
		viewName, content = "File Browser", helpBrowser
	case ViewSummary:
		viewName, content = "Summary", helpSummary
	}

	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("Help - %s", viewName)))
	b.WriteString("\n\n")
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press any key to close"))

	return b.String()
}

const helpCategory = `Select which categories you want to review.

Navigation:
  ↑/k     - Move up
  ↓/j     - Move down
  g / G   - Top / bottom

Selection:
  space   - Toggle category
  ctrl+a  - Select all
  ctrl+d  - Deselect all

Actions:
  i       - Category details
  enter   - Proceed to file browser
  q       - Quit`

const helpBrowser = `Pick the individual items to move to the trash.

Navigation               Selection
  ↑/k     Move up          space    Toggle item
  ↓/j     Move down        x        Toggle + down
  g / G   Top / bottom     ctrl+a   Select all
  pgdn    Page down        ctrl+d   Deselect all
  pgup    Page up

Actions
  enter   Proceed          s        Change sort order
  i       Item details     esc      Back`

const helpSummary = `Cleanup finished. Items were moved to the trash, not erased.

Actions:
  enter / q - Exit`

const helpGeneral = `Interactive cleanup

Global Shortcuts:
  ?       - Toggle this help
  esc     - Go back / Close help
  q       - Quit (from most views)
  ctrl+c  - Quit, or stop a running cleanup

Steps:
  1. Scan
  2. Choose categories
  3. Choose items
  4. Type DELETE to confirm
  5. Items go to the trash
  6. Summary`

// Custom messages

// ScanStartedMsg carries the running scan task
type ScanStartedMsg struct {
	Task *scanner.Task
}

// ScanFailedMsg reports a scan that could not start
type ScanFailedMsg struct {
	Err error
}

// ScanEventMsg carries one item or progress event
type ScanEventMsg struct {
	Event scanner.Event
}

// ScanCompleteMsg carries the sealed scan result
type ScanCompleteMsg struct {
	Result *scanner.Result
}

// CategoriesSelectedMsg lists the categories chosen for review
type CategoriesSelectedMsg struct {
	Categories []config.Category
}

// ItemsSelectedMsg lists the items chosen for removal
type ItemsSelectedMsg struct {
	Items []scanner.Item
}

// ConfirmedMsg carries the token the user typed
type ConfirmedMsg struct {
	Token string
}

// ReviewSelectionMsg returns to the file browser
type ReviewSelectionMsg struct{}

// CleanupProgressMsg carries one deletion progress update
type CleanupProgressMsg struct {
	Progress *progress.CleanProgress
}

// CleanupCompleteMsg carries the deletion report
type CleanupCompleteMsg struct {
	Report *cleaner.Report
	Err    error
	After  *platform.DiskUsage
}

func pathsOf(items []scanner.Item) []string {
	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.Path
	}
	return paths
}
