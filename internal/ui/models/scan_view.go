package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/engine"
	"github.com/fenilsonani/safeclean/internal/progress"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/internal/ui/styles"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

// ScanViewModel handles the scanning progress view
type ScanViewModel struct {
	ctx        context.Context
	engine     *engine.Engine
	settings   config.Settings
	spinner    spinner.Model
	task       *scanner.Task
	scanning   bool
	stopping   bool
	result     *scanner.Result
	startTime  time.Time
	currentDir string
	scanned    int
	progress   map[config.Category]*CategoryProgress
}

// CategoryProgress tracks progress for each category
type CategoryProgress struct {
	Count int
	Size  int64
}

// NewScanViewModel creates a new scan view model
func NewScanViewModel(ctx context.Context, eng *engine.Engine, settings config.Settings) *ScanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return &ScanViewModel{
		ctx:       ctx,
		engine:    eng,
		settings:  settings,
		spinner:   s,
		scanning:  true,
		startTime: time.Now(),
		progress:  make(map[config.Category]*CategoryProgress),
	}
}

// Init starts the scan and the spinner
func (m *ScanViewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startScan)
}

func (m *ScanViewModel) startScan() tea.Msg {
	task, err := m.engine.StartScan(m.ctx, m.settings)
	if err != nil {
		return ScanFailedMsg{Err: err}
	}
	return ScanStartedMsg{Task: task}
}

// waitForEvent reads the next scan event. The task's channel is the only
// thing shared with the scan goroutine.
func waitForEvent(task *scanner.Task) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-task.Events()
		if !ok {
			return ScanCompleteMsg{Result: task.Result()}
		}
		if ev.Kind == scanner.EventComplete {
			return ScanCompleteMsg{Result: ev.Result}
		}
		return ScanEventMsg{Event: ev}
	}
}

// Update handles messages
func (m *ScanViewModel) Update(msg tea.Msg) (*ScanViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ScanStartedMsg:
		m.task = msg.Task
		return m, waitForEvent(msg.Task)

	case ScanEventMsg:
		m.handleEvent(msg.Event)
		if m.task == nil {
			return m, nil
		}
		return m, waitForEvent(m.task)

	case ScanCompleteMsg:
		m.scanning = false
		m.result = msg.Result
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "c" && m.task != nil && !m.stopping {
			m.stopping = true
			m.task.Cancel()
		}
	}

	return m, nil
}

func (m *ScanViewModel) handleEvent(ev scanner.Event) {
	switch ev.Kind {
	case scanner.EventItem:
		p, ok := m.progress[ev.Item.Category]
		if !ok {
			p = &CategoryProgress{}
			m.progress[ev.Item.Category] = p
		}
		p.Count++
		p.Size += ev.Item.Size
	case scanner.EventProgress:
		m.currentDir = ev.Path
		m.scanned = ev.Scanned
	}
}

// Progress returns the running tally for a category
func (m *ScanViewModel) Progress(c config.Category) CategoryProgress {
	if p, ok := m.progress[c]; ok {
		return *p
	}
	return CategoryProgress{}
}

func (m *ScanViewModel) snapshot() *progress.ScanProgress {
	p := &progress.ScanProgress{
		Phase:       progress.PhaseScanning,
		CurrentPath: m.currentDir,
		Scanned:     m.scanned,
		StartTime:   m.startTime,
	}
	for _, c := range m.progress {
		p.ItemsFound += c.Count
		p.TotalSize += c.Size
	}
	return p
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🔍 Scanning"))
	b.WriteString("\n\n")

	if !m.scanning {
		b.WriteString(styles.SuccessStyle.Render("✓ Scan Complete!"))
		b.WriteString("\n\n")
		if m.result != nil {
			b.WriteString(fmt.Sprintf("Found %s items totaling %s\n",
				styles.BoldStyle.Render(fmt.Sprintf("%d", len(m.result.Items))),
				styles.FileSizeStyle.Render(utils.FormatBytes(m.result.TotalSize)),
			))
		}
		return b.String()
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	if m.stopping {
		b.WriteString("Stopping... ")
	}
	b.WriteString(styles.DimStyle.Render(progress.FormatScanProgress(m.snapshot())))
	b.WriteString("\n\n")

	if m.currentDir != "" {
		b.WriteString(styles.DimStyle.Render("Current: "))
		b.WriteString(styles.FilePathStyle.Render(utils.TruncatePath(m.currentDir, 60)))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.SubtitleStyle.Render("Progress by Category:"))
	b.WriteString("\n")

	totalItems := 0
	var totalSize int64
	for _, c := range config.AllCategories {
		p, ok := m.progress[c]
		if !ok || p.Count == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s %s: %s items, %s\n",
			styles.GetCategoryIcon(c),
			styles.CategoryStyle.Render(c.Label()),
			styles.BoldStyle.Render(fmt.Sprintf("%d", p.Count)),
			styles.FileSizeStyle.Render(utils.FormatBytes(p.Size)),
		))
		totalItems += p.Count
		totalSize += p.Size
	}

	b.WriteString("\n")
	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("Total: %d items, %s",
		totalItems, utils.FormatBytes(totalSize))))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("c: stop and review • q: quit • ?: help"))

	return b.String()
}
