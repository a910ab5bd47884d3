package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roster/internal/formatter"
	"github.com/desertthunder/roster/internal/roster"
	"github.com/desertthunder/roster/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultRateLimit is the page request rate used when none is configured, in pages per second.
const DefaultRateLimit = 5.0

// ExportOpts contains configuration for exports.
type ExportOpts struct {
	Format    formatter.Format // Export format: text, json, csv, markdown
	Output    string           // File path for Export; directory for BulkExport
	RateLimit float64          // Page requests per second (default: 5)
	MaxPages  int              // Stop after this many pages; 0 walks every page
	Workers   int              // Concurrent track exports for BulkExport (default: 3)
}

func (o ExportOpts) withDefaults() ExportOpts {
	if o.Format == "" {
		o.Format = formatter.Text
	}
	if o.RateLimit <= 0 {
		o.RateLimit = DefaultRateLimit
	}
	if o.Workers <= 0 {
		o.Workers = 3
	}
	if o.Workers > 10 {
		o.Workers = 10
	}
	return o
}

// ExportResult describes a single written report.
type ExportResult struct {
	Path     string
	Pages    int
	Students int
	Report   *formatter.Report
}

// ExportEngine pages through the leaderboard for exports.
type ExportEngine struct {
	router *roster.Router
	logger *log.Logger
}

// NewExportEngine creates a new ExportEngine reading through router.
func NewExportEngine(router *roster.Router, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ExportEngine{router: router, logger: shared.WithLogger(logger, "component", "export")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Collect fetches every page of state's query, starting at page 1, and returns the ranked students.
//
// It stops after the first page shorter than the page size, or after opts.MaxPages pages.
// A store failure aborts the walk with an error wrapping [shared.ErrStoreUnavailable].
func (e *ExportEngine) Collect(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	state roster.State,
	opts ExportOpts,
) ([]roster.RankedStudent, int, error) {
	opts = opts.withDefaults()
	return e.collect(ctx, progress, rate.NewLimiter(rate.Limit(opts.RateLimit), 1), state, opts.MaxPages)
}

func (e *ExportEngine) collect(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	limiter *rate.Limiter,
	state roster.State,
	maxPages int,
) ([]roster.RankedStudent, int, error) {
	entries := []roster.RankedStudent{}
	state = roster.Reduce(state, roster.SetPage{Page: 1})

	pages := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			return entries, pages, err
		}

		res := e.router.Fetch(ctx, e.router.Dispatch(state))
		if res.Failed() {
			return entries, pages, res.Err
		}

		pages++
		entries = append(entries, res.Ranked()...)
		e.sendProgress(progress, fetchPageUpdate(res))

		if !res.HasNext() || (maxPages > 0 && pages >= maxPages) {
			return entries, pages, nil
		}
		state = roster.Reduce(state, roster.NextPage{})
	}
}

// Export collects state's query and writes it as a single report.
//
// trackName labels track-filtered reports and may be empty.
func (e *ExportEngine) Export(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	state roster.State,
	trackName string,
	opts ExportOpts,
) (*ExportResult, error) {
	opts = opts.withDefaults()

	entries, pages, err := e.Collect(ctx, progress, state, opts)
	if err != nil {
		return nil, fmt.Errorf("export aborted after %d pages: %w", pages, err)
	}

	report := formatter.NewReport(state, trackName, entries)
	path, err := formatter.WriteExport(report, opts.Output, opts.Format)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, writeReportUpdate(path, len(entries)))
	e.logger.Info("export written", "path", path, "pages", pages, "students", len(entries), "mode", state.Mode())

	return &ExportResult{Path: path, Pages: pages, Students: len(entries), Report: report}, nil
}
