package tasks

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/roster/internal/formatter"
	"github.com/desertthunder/roster/internal/models"
	"github.com/desertthunder/roster/internal/roster"
	"github.com/desertthunder/roster/internal/shared"
	tu "github.com/desertthunder/roster/internal/testing"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	backend  = models.Track{ID: "t1", Name: "Backend"}
	frontend = models.Track{ID: "t2", Name: "Frontend"}
)

func setupEngine(store *tu.MemoryStore) *ExportEngine {
	logger := shared.NewLogger(io.Discard)
	router := roster.NewRouter(roster.RouterOpts{Store: store, PageSize: 10, Logger: logger})
	return NewExportEngine(router, logger)
}

func TestExportEngine_Collect(t *testing.T) {
	tests := []struct {
		name      string
		students  int
		maxPages  int
		wantPages int
		wantCount int
	}{
		{name: "two pages", students: 12, wantPages: 2, wantCount: 12},
		{name: "exact page boundary", students: 10, wantPages: 2, wantCount: 10},
		{name: "empty roster", students: 0, wantPages: 1, wantCount: 0},
		{name: "page cap", students: 35, maxPages: 2, wantPages: 2, wantCount: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := setupEngine(tu.NewMemoryStore(nil, tu.Students(tt.students)))

			entries, pages, err := engine.Collect(context.Background(), nil, roster.NewState(),
				ExportOpts{RateLimit: 1000, MaxPages: tt.maxPages})
			if err != nil {
				t.Fatalf("Collect() error = %v", err)
			}
			if pages != tt.wantPages {
				t.Errorf("pages = %d, want %d", pages, tt.wantPages)
			}
			if len(entries) != tt.wantCount {
				t.Fatalf("entries = %d, want %d", len(entries), tt.wantCount)
			}
			for i, e := range entries {
				if e.Rank != i+1 {
					t.Fatalf("entry %d has rank %d", i, e.Rank)
				}
			}
		})
	}

	t.Run("StartsAtFirstPage", func(t *testing.T) {
		engine := setupEngine(tu.NewMemoryStore(nil, tu.Students(12)))

		entries, _, err := engine.Collect(context.Background(), nil, roster.State{Page: 2}, ExportOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("Collect() error = %v", err)
		}
		if len(entries) != 12 || !entries[0].Podium {
			t.Errorf("expected the full leaderboard from rank 1, got %d entries", len(entries))
		}
	})

	t.Run("StoreFailure", func(t *testing.T) {
		store := tu.NewMemoryStore(nil, tu.Students(12))
		store.Fail = true
		engine := setupEngine(store)

		_, _, err := engine.Collect(context.Background(), nil, roster.NewState(), ExportOpts{RateLimit: 1000})
		if !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		engine := setupEngine(tu.NewMemoryStore(nil, tu.Students(50)))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, _, err := engine.Collect(ctx, nil, roster.NewState(), ExportOpts{RateLimit: 1}); err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}

func TestExportEngine_Export(t *testing.T) {
	t.Run("WritesReport", func(t *testing.T) {
		engine := setupEngine(tu.NewMemoryStore(nil, tu.Students(12, backend)))
		path := filepath.Join(t.TempDir(), "board.csv")
		progressCh := make(chan ProgressUpdate, 10)

		result, err := engine.Export(context.Background(), progressCh, roster.NewState(), "",
			ExportOpts{Format: formatter.CSV, Output: path, RateLimit: 1000})
		close(progressCh)
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}

		if result.Path != path || result.Students != 12 || result.Pages != 2 {
			t.Errorf("unexpected result %+v", result)
		}

		content := tu.MustReadFile(t, path)
		if lines := strings.Count(content, "\n"); lines != 13 {
			t.Errorf("expected header plus 12 rows, got %d lines", lines)
		}

		phases := map[Phase]int{}
		for u := range progressCh {
			phases[u.Phase]++
		}
		if phases[FetchPage] != 2 || phases[WriteReport] != 1 {
			t.Errorf("unexpected progress updates %v", phases)
		}
	})

	t.Run("TrackReport", func(t *testing.T) {
		students := tu.Students(4, backend)
		students[0].Tracks = []models.Track{frontend}
		engine := setupEngine(tu.NewMemoryStore([]models.Track{backend, frontend}, students))
		path := filepath.Join(t.TempDir(), "backend.md")

		state := roster.Reduce(roster.NewState(), roster.SelectTrack{TrackID: backend.ID})
		result, err := engine.Export(context.Background(), nil, state, backend.Name,
			ExportOpts{Format: formatter.Markdown, Output: path, RateLimit: 1000})
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if result.Students != 3 {
			t.Errorf("expected 3 Backend students, got %d", result.Students)
		}
		if !strings.HasPrefix(tu.MustReadFile(t, path), "# Track: Backend") {
			t.Error("expected track title in report")
		}
	})

	t.Run("StoreFailureWritesNothing", func(t *testing.T) {
		store := tu.NewMemoryStore(nil, tu.Students(3))
		store.Fail = true
		engine := setupEngine(store)
		path := filepath.Join(t.TempDir(), "out.txt")

		if _, err := engine.Export(context.Background(), nil, roster.NewState(), "",
			ExportOpts{Output: path, RateLimit: 1000}); !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected no file at %s after a failed export", path)
		}
	})
}

func TestExportEngine_BulkExport(t *testing.T) {
	t.Run("OneFilePerTrack", func(t *testing.T) {
		students := tu.Students(6, backend)
		for i := range 3 {
			students[i].Tracks = append(students[i].Tracks, frontend)
		}
		engine := setupEngine(tu.NewMemoryStore([]models.Track{backend, frontend}, students))
		dir := t.TempDir()

		result, err := engine.BulkExport(context.Background(), nil,
			ExportOpts{Format: formatter.JSON, Output: dir, RateLimit: 1000, Workers: 2})
		if err != nil {
			t.Fatalf("BulkExport() error = %v", err)
		}

		if result.TotalTracks != 2 || result.Successful != 2 || result.Failed != 0 {
			t.Errorf("unexpected counts %+v", result)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "backend.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "frontend.json"))
		tu.AssertFileExists(t, result.ManifestPath)

		manifest := tu.MustReadFile(t, result.ManifestPath)
		if !strings.Contains(manifest, `"successful": 2`) {
			t.Errorf("unexpected manifest: %s", manifest)
		}

		counts := map[string]int{}
		for _, r := range result.Results {
			counts[r.Track.Name] = r.Students
		}
		if counts["Backend"] != 6 || counts["Frontend"] != 3 {
			t.Errorf("unexpected per-track counts %v", counts)
		}
	})

	t.Run("CatalogFailure", func(t *testing.T) {
		store := tu.NewMemoryStore([]models.Track{backend}, nil)
		store.Fail = true
		engine := setupEngine(store)

		if _, err := engine.BulkExport(context.Background(), nil, ExportOpts{Output: t.TempDir()}); !errors.Is(err, shared.ErrStoreUnavailable) {
			t.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
	})

	t.Run("CancelledMidway", func(t *testing.T) {
		tracks := make([]models.Track, 8)
		for i := range tracks {
			tracks[i] = models.Track{ID: string(rune('a' + i)), Name: "Track " + string(rune('A'+i))}
		}
		engine := setupEngine(tu.NewMemoryStore(tracks, tu.Students(5, tracks...)))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		result, err := engine.BulkExport(ctx, nil, ExportOpts{Output: t.TempDir(), RateLimit: 10, Workers: 2})
		if result == nil {
			t.Fatalf("expected partial result, got error %v", err)
		}
		if result.Failed == 0 {
			t.Fatalf("expected failed tracks to be recorded, got %+v", result)
		}
		if result.Successful+result.Failed != len(tracks) {
			t.Errorf("every track should be accounted for, got %+v", result)
		}
	})
}

func TestTrackFilename(t *testing.T) {
	tests := map[string]string{
		"Backend":          "backend",
		"Data Engineering": "data-engineering",
		"C++ / Systems":    "c-systems",
		"  Mobile!  ":      "mobile",
		"???":              "id-1",
	}
	for name, want := range tests {
		if got := trackFilename(models.Track{ID: "id-1", Name: name}); got != want {
			t.Errorf("trackFilename(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	engine := setupEngine(tu.NewMemoryStore(nil, tu.Students(25)))
	progressCh := make(chan ProgressUpdate)

	done := make(chan error, 1)
	go func() {
		_, _, err := engine.Collect(context.Background(), progressCh, roster.NewState(), ExportOpts{RateLimit: 1000})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Collect() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Collect() should not block on progress sends")
	}
}
