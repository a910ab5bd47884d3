package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/roster/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	app := &cli.Command{
		Name:     "roster",
		Usage:    "Browse, search & export the student leaderboard",
		Version:  "0.1.0",
		Flags:    []cli.Flag{configFlag()},
		Before:   runner.Load,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
