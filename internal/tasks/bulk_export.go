package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/desertthunder/roster/internal/formatter"
	"github.com/desertthunder/roster/internal/models"
	"github.com/desertthunder/roster/internal/roster"
	"golang.org/x/time/rate"
)

// BulkExportResult contains the outcome of exporting every track's leaderboard.
type BulkExportResult struct {
	OutputDirectory string
	ManifestPath    string
	TotalTracks     int
	Successful      int
	Failed          int
	Results         []TrackExportResult
}

// TrackExportResult is the outcome for a single track.
type TrackExportResult struct {
	Track    models.Track
	File     string
	Students int
	Error    error
}

type trackExportJob struct {
	track models.Track
	path  string
}

// BulkExport writes one report per track into opts.Output using a pool of workers.
//
// Failures of individual tracks are recorded in the result and manifest; only catalog or directory
// failures return an error.
func (e *ExportEngine) BulkExport(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	opts ExportOpts,
) (*BulkExportResult, error) {
	opts = opts.withDefaults()
	if opts.Output == "" {
		opts.Output = fmt.Sprintf("roster_export_%d", time.Now().Unix())
	}

	tracks, err := e.router.Tracks(ctx)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, fetchTracksUpdate(len(tracks)))

	if err := os.MkdirAll(opts.Output, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		OutputDirectory: opts.Output,
		TotalTracks:     len(tracks),
		Results:         make([]TrackExportResult, 0, len(tracks)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan trackExportJob, len(tracks))
	results := make(chan TrackExportResult, len(tracks))

	used := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		name := trackFilename(t)
		if used[name] {
			name = name + "-" + t.ID
		}
		used[name] = true
		jobs <- trackExportJob{track: t, path: filepath.Join(opts.Output, name+opts.Format.Extension())}
	}
	close(jobs)

	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	manifest := &formatter.ExportManifest{
		ExportedAt: time.Now().UTC(),
		Format:     opts.Format,
		Total:      len(tracks),
		Entries:    make([]formatter.ManifestEntry, 0, len(tracks)),
	}

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		entry := formatter.ManifestEntry{Name: res.Track.Name, Students: res.Students}
		if res.Error != nil {
			result.Failed++
			entry.Error = res.Error.Error()
			e.logger.Warn("track export failed", "track", res.Track.Name, "error", res.Error)
			e.sendProgress(progress, exportFailedUpdate(completed, len(tracks), res.Track.Name, res.Error))
		} else {
			result.Successful++
			entry.File = filepath.Base(res.File)
			e.sendProgress(progress, exportCompletedUpdate(completed, len(tracks), res.Track.Name, res.Students))
		}
		manifest.Entries = append(manifest.Entries, entry)
	}

	manifest.Successful = result.Successful
	manifest.Failed = result.Failed

	manifestPath := filepath.Join(opts.Output, "export_manifest.json")
	if err := formatter.WriteExportManifest(manifest, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// exportWorker is a worker goroutine that exports tracks from the jobs channel.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan trackExportJob,
	results chan<- TrackExportResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		res := TrackExportResult{Track: job.track}
		if err := ctx.Err(); err != nil {
			res.Error = err
			results <- res
			continue
		}

		state := roster.Reduce(roster.NewState(), roster.SelectTrack{TrackID: job.track.ID})
		entries, _, err := e.collect(ctx, nil, limiter, state, opts.MaxPages)
		if err != nil {
			res.Error = err
			results <- res
			continue
		}

		report := formatter.NewReport(state, job.track.Name, entries)
		path, err := formatter.WriteExport(report, job.path, opts.Format)
		if err != nil {
			res.Error = err
			results <- res
			continue
		}

		res.File = path
		res.Students = len(entries)
		results <- res
	}
}

// trackFilename derives a filesystem-safe base name from a track's name.
func trackFilename(t models.Track) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(t.Name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		return t.ID
	}
	return name
}
