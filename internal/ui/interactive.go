package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/engine"
	"github.com/fenilsonani/safeclean/internal/progress"
	"github.com/fenilsonani/safeclean/internal/ui/models"
)

// RunInteractive starts the interactive TUI. pr must be the reporter eng
// was built with.
func RunInteractive(ctx context.Context, eng *engine.Engine, pr *progress.Reporter, settings config.Settings) error {
	m := models.NewAppModel(ctx, eng, pr, settings)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running interactive mode: %w", err)
	}

	return nil
}
