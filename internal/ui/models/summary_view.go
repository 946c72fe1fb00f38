package models

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/safeclean/internal/cleaner"
	"github.com/fenilsonani/safeclean/internal/platform"
	"github.com/fenilsonani/safeclean/internal/reporter"
	"github.com/fenilsonani/safeclean/internal/ui/styles"
	uiutils "github.com/fenilsonani/safeclean/internal/ui/utils"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

const maxListedFailures = 10

// SummaryViewModel handles the summary/results view
type SummaryViewModel struct {
	report *cleaner.Report
	err    error
	before *platform.DiskUsage
	after  *platform.DiskUsage
	width  int
	height int
}

// NewSummaryViewModel creates a new summary view model. report may be nil
// when the deletion was refused outright.
func NewSummaryViewModel(report *cleaner.Report, err error, before, after *platform.DiskUsage, width, height int) *SummaryViewModel {
	return &SummaryViewModel{
		report: report,
		err:    err,
		before: before,
		after:  after,
		width:  width,
		height: height,
	}
}

// Init initializes the summary view
func (m *SummaryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *SummaryViewModel) Update(msg tea.Msg) (*SummaryViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "enter":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the summary view
func (m *SummaryViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("✨ Cleanup Summary"))
	b.WriteString("\n\n")

	if m.err != nil {
		msg := m.err.Error()
		if errors.Is(m.err, cleaner.ErrAllBlocked) {
			msg = "Nothing was moved: every selected item is now protected."
		}
		b.WriteString(styles.ErrorStyle.Render("✗ " + msg))
		b.WriteString("\n")
	}

	if r := m.report; r != nil {
		if r.DryRun {
			b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ %d items would be moved to trash", r.Succeeded)))
		} else {
			b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ Moved %d items to trash", r.Succeeded)))
		}
		b.WriteString("\n")
		b.WriteString(styles.BoldStyle.Render("Space: " + utils.FormatBytes(r.BytesFreed)))
		b.WriteString("\n\n")

		if r.Reclassified > 0 {
			b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("⚠ %d items are now protected and were left alone", r.Reclassified)))
			b.WriteString("\n")
		}
		if r.Skipped > 0 {
			b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("⚠ Skipped %d items", r.Skipped)))
			b.WriteString("\n")
		}
		if r.Failed > 0 {
			b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("✗ %d items failed", r.Failed)))
			b.WriteString("\n")
			m.writeFailures(&b)
		}

		if r.DryRun {
			b.WriteString("\n")
			b.WriteString(styles.InfoStyle.Render("Note: this was a dry run. Nothing was moved."))
			b.WriteString("\n")
		}
	}

	if freed := reporter.FormatFreed(m.before, m.after); freed != "" {
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render(freed))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("Press q or enter to exit"))

	return b.String()
}

func (m *SummaryViewModel) writeFailures(b *strings.Builder) {
	width := uiutils.NewLayout(m.width, m.height).PathWidth(20, 40)
	listed := 0
	for _, o := range m.report.Outcomes {
		if o.Status != cleaner.StatusFailed {
			continue
		}
		if listed == maxListedFailures {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  ... and %d more", m.report.Failed-listed)))
			b.WriteString("\n")
			return
		}
		reason := o.Reason
		if o.Err != nil {
			reason = o.Err.UserMessage()
		}
		b.WriteString(fmt.Sprintf("  %s %s\n",
			styles.FilePathStyle.Render(utils.TruncatePath(o.Path, width)),
			styles.DimStyle.Render(reason)))
		listed++
	}
}
