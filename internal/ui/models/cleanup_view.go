package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/safeclean/internal/cleaner"
	"github.com/fenilsonani/safeclean/internal/engine"
	"github.com/fenilsonani/safeclean/internal/platform"
	"github.com/fenilsonani/safeclean/internal/progress"
	"github.com/fenilsonani/safeclean/internal/ui/styles"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

// CleanupViewModel runs the deletion and shows its progress
type CleanupViewModel struct {
	ctx        context.Context
	cancel     context.CancelFunc
	engine     *engine.Engine
	reporter   *progress.Reporter
	updates    <-chan *progress.CleanProgress
	req        cleaner.Request
	spinner    spinner.Model
	bar        bprogress.Model
	current    *progress.CleanProgress
	startTime  time.Time
	diskBefore *platform.DiskUsage
	report     *cleaner.Report
	done       bool
	width      int
	height     int
}

// NewCleanupViewModel prepares a deletion of req. It starts in Init.
func NewCleanupViewModel(ctx context.Context, eng *engine.Engine, pr *progress.Reporter, req cleaner.Request, width, height int) *CleanupViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	ctx, cancel := context.WithCancel(ctx)
	m := &CleanupViewModel{
		ctx:       ctx,
		cancel:    cancel,
		engine:    eng,
		reporter:  pr,
		req:       req,
		spinner:   s,
		bar:       bprogress.New(bprogress.WithDefaultGradient()),
		startTime: time.Now(),
		width:     width,
		height:    height,
	}
	if home := eng.Locations().Home; home != "" {
		m.diskBefore, _ = platform.GetDiskUsage(home)
	}
	if pr != nil {
		m.updates = pr.Subscribe()
	}
	return m
}

// Init starts the deletion
func (m *CleanupViewModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.performCleanup}
	if m.updates != nil {
		cmds = append(cmds, waitForProgress(m.updates))
	}
	return tea.Batch(cmds...)
}

// Cancel stops the deletion before its next item
func (m *CleanupViewModel) Cancel() { m.cancel() }

// DiskBefore is the disk usage measured before the deletion started
func (m *CleanupViewModel) DiskBefore() *platform.DiskUsage { return m.diskBefore }

func waitForProgress(ch <-chan *progress.CleanProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return CleanupProgressMsg{Progress: p}
	}
}

// performCleanup runs on a command goroutine, off the update loop
func (m *CleanupViewModel) performCleanup() tea.Msg {
	report, err := m.engine.Delete(m.ctx, m.req)
	var after *platform.DiskUsage
	if m.diskBefore != nil {
		after, _ = platform.GetDiskUsage(m.diskBefore.Path)
	}
	return CleanupCompleteMsg{Report: report, Err: err, After: after}
}

// Update handles messages
func (m *CleanupViewModel) Update(msg tea.Msg) (*CleanupViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case CleanupProgressMsg:
		m.current = msg.Progress
		if m.done || m.updates == nil {
			return m, nil
		}
		return m, waitForProgress(m.updates)

	case CleanupCompleteMsg:
		m.done = true
		m.report = msg.Report
		if m.updates != nil {
			m.reporter.Unsubscribe(m.updates)
			m.updates = nil
		}
		m.cancel()
	}

	return m, nil
}

// View renders the cleanup view
func (m *CleanupViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🗑️  Moving to Trash"))
	b.WriteString("\n\n")

	if m.done {
		b.WriteString(styles.SuccessStyle.Render("✓ Done"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(progress.FormatCleanProgress(m.current))
	b.WriteString("\n\n")

	total := len(m.req.Paths)
	processed := 0
	if m.current != nil {
		processed = m.current.Processed
		if m.current.Total > 0 {
			total = m.current.Total
		}
	}
	percent := 0.0
	if total > 0 {
		percent = float64(processed) / float64(total)
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString("\n\n")

	if m.current != nil && m.current.CurrentPath != "" {
		b.WriteString(styles.DimStyle.Render("Current: "))
		b.WriteString(styles.FilePathStyle.Render(utils.TruncatePath(m.current.CurrentPath, 60)))
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("%s so far", utils.FormatBytes(m.current.FreedSize))))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.HelpStyle.Render("ctrl+c: stop after the current item"))

	return b.String()
}
