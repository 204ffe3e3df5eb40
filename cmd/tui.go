package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jbtracks/internal/shared"
	"github.com/desertthunder/jbtracks/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive track browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.validated(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Logging.File
	if logPath == "" {
		logPath = "./tmp/jbtracks-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(r.manager(), cmd.Bool("dry-run"))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
