package main

import (
	"context"
	"os"

	"github.com/desertthunder/jbtracks/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "jbtracks",
		Usage:    "Generate JBrowse track configs from spreadsheets",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.Load,
		After:    runner.Close,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
