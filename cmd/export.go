package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/roster/internal/formatter"
	"github.com/desertthunder/roster/internal/shared"
	"github.com/desertthunder/roster/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes the full result of a query, or one report per track, to disk.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	opts := tasks.ExportOpts{
		Format:    format,
		Output:    cmd.String("output"),
		RateLimit: r.config.Export.RateLimit,
		MaxPages:  int(cmd.Int("max-pages")),
		Workers:   int(cmd.Int("workers")),
	}

	_, router, err := r.open()
	if err != nil {
		return err
	}
	engine := tasks.NewExportEngine(router, r.logger)

	progress := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range progress {
			r.logger.Info(u.Message, "phase", u.Phase)
		}
	}()
	defer wg.Wait()
	defer close(progress)

	if cmd.Bool("all-tracks") {
		if cmd.String("search") != "" || cmd.String("track") != "" {
			return fmt.Errorf("%w: --all-tracks cannot be combined with --search or --track", shared.ErrInvalidArgument)
		}

		result, err := engine.BulkExport(ctx, progress, opts)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d/%d tracks to %s (manifest: %s)\n",
			result.Successful, result.TotalTracks, result.OutputDirectory, result.ManifestPath)
	}

	state, trackName, err := r.queryState(ctx, cmd)
	if err != nil {
		return err
	}

	result, err := engine.Export(ctx, progress, state, trackName, opts)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d students (%d pages) to %s\n", result.Students, result.Pages, result.Path)
}
