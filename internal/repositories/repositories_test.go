package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/roster/internal/models"
	"github.com/desertthunder/roster/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// every pooled connection would otherwise open its own empty in-memory database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if _, err := shared.NewMigrator(db, shared.DriverSQLite).Up(context.Background()); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// seedStore creates n students s01..sNN with distinct descending scores.
// Even-numbered students are enrolled in "backend", every third one also in "frontend".
func seedStore(t *testing.T, store *Store, n int) {
	t.Helper()
	ctx := context.Background()

	for _, tr := range []models.Track{{ID: "backend", Name: "Backend"}, {ID: "frontend", Name: "Frontend"}} {
		if err := store.CreateTrack(ctx, tr); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
	}

	for i := 1; i <= n; i++ {
		s := models.Student{
			ID:         fmt.Sprintf("s%02d", i),
			Name:       fmt.Sprintf("Student %02d", i),
			Phone:      fmt.Sprintf("0100%04d", i),
			TotalScore: 1000 - i*10,
		}
		if err := store.CreateStudent(ctx, s); err != nil {
			t.Fatalf("failed to create student: %v", err)
		}
		if i%2 == 0 {
			if err := store.Enroll(ctx, s.ID, "backend"); err != nil {
				t.Fatalf("failed to enroll: %v", err)
			}
		}
		if i%3 == 0 {
			if err := store.Enroll(ctx, s.ID, "frontend"); err != nil {
				t.Fatalf("failed to enroll: %v", err)
			}
		}
	}
}

func TestStudentRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("ListStudents pages by score descending", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db, SQLite)
		seedStore(t, store, 12)

		page1, err := store.ListStudents(ctx, models.Range{From: 0, To: 9})
		if err != nil {
			t.Fatalf("failed to list students: %v", err)
		}
		if len(page1) != 10 {
			t.Fatalf("expected 10 students on page 1, got %d", len(page1))
		}
		for i := 1; i < len(page1); i++ {
			if page1[i].TotalScore >= page1[i-1].TotalScore {
				t.Errorf("page 1 not sorted descending at %d: %d after %d", i, page1[i].TotalScore, page1[i-1].TotalScore)
			}
		}

		page2, err := store.ListStudents(ctx, models.Range{From: 10, To: 19})
		if err != nil {
			t.Fatalf("failed to list students: %v", err)
		}
		if len(page2) != 2 {
			t.Fatalf("expected 2 students on page 2, got %d", len(page2))
		}
		if page2[0].ID != "s11" || page2[1].ID != "s12" {
			t.Errorf("expected s11, s12 on page 2, got %s, %s", page2[0].ID, page2[1].ID)
		}
	})

	t.Run("ListStudents returns canonical rows", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db, SQLite)
		seedStore(t, store, 6)

		rows, err := store.ListStudents(ctx, models.Range{From: 0, To: 9})
		if err != nil {
			t.Fatalf("failed to list students: %v", err)
		}

		for _, row := range rows {
			if row.Nested() {
				t.Errorf("flat query returned nested row for %s", row.ID)
			}
			if row.Tracks == nil {
				t.Errorf("expected non-nil tracks for %s", row.ID)
			}
		}

		// s06 is in both tracks, s01 in none
		byID := map[string]models.StudentRow{}
		for _, row := range rows {
			byID[row.ID] = row
		}
		if got := len(byID["s06"].Tracks); got != 2 {
			t.Errorf("expected 2 tracks for s06, got %d", got)
		}
		if got := len(byID["s01"].Tracks); got != 0 {
			t.Errorf("expected no tracks for s01, got %d", got)
		}
	})

	t.Run("Ties are broken by id", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db, SQLite)
		for _, id := range []string{"c", "a", "b"} {
			if err := store.CreateStudent(ctx, models.Student{ID: id, Name: id, TotalScore: 50}); err != nil {
				t.Fatalf("failed to create student: %v", err)
			}
		}

		for range 3 {
			rows, err := store.ListStudents(ctx, models.Range{From: 0, To: 9})
			if err != nil {
				t.Fatalf("failed to list students: %v", err)
			}
			if rows[0].ID != "a" || rows[1].ID != "b" || rows[2].ID != "c" {
				t.Errorf("expected a, b, c, got %s, %s, %s", rows[0].ID, rows[1].ID, rows[2].ID)
			}
		}
	})

	t.Run("SearchByName is case-insensitive substring", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db, SQLite)
		for _, s := range []models.Student{
			{ID: "1", Name: "Jane Doe", TotalScore: 10},
			{ID: "2", Name: "JANET", TotalScore: 30},
			{ID: "3", Name: "Bob", TotalScore: 20},
		} {
			if err := store.CreateStudent(ctx, s); err != nil {
				t.Fatalf("failed to create student: %v", err)
			}
		}

		rows, err := store.SearchByName(ctx, "jane", models.Range{From: 0, To: 9})
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(rows))
		}
		if rows[0].Name != "JANET" {
			t.Errorf("expected highest score first, got %s", rows[0].Name)
		}
	})

	t.Run("SearchByName treats wildcards literally", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db, SQLite)
		for _, s := range []models.Student{
			{ID: "1", Name: "100% Effort", TotalScore: 10},
			{ID: "2", Name: "Plain", TotalScore: 20},
		} {
			if err := store.CreateStudent(ctx, s); err != nil {
				t.Fatalf("failed to create student: %v", err)
			}
		}

		rows, err := store.SearchByName(ctx, "%", models.Range{From: 0, To: 9})
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(rows) != 1 || rows[0].ID != "1" {
			t.Errorf("expected only the literal %% match, got %+v", rows)
		}
	})

	t.Run("SearchByName folds non-ASCII letters", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db, SQLite)
		for _, s := range []models.Student{
			{ID: "1", Name: "Émile Zola", TotalScore: 30},
			{ID: "2", Name: "ÖZGE", TotalScore: 20},
			{ID: "3", Name: "Emile Plain", TotalScore: 10},
		} {
			if err := store.CreateStudent(ctx, s); err != nil {
				t.Fatalf("failed to create student: %v", err)
			}
		}

		tt := []struct {
			pattern string
			want    []string
		}{
			{pattern: "émile", want: []string{"1"}},
			{pattern: "ÉMILE", want: []string{"1"}},
			{pattern: "özge", want: []string{"2"}},
			{pattern: "emile", want: []string{"3"}},
		}

		for _, tc := range tt {
			rows, err := store.SearchByName(ctx, tc.pattern, models.Range{From: 0, To: 9})
			if err != nil {
				t.Fatalf("failed to search %q: %v", tc.pattern, err)
			}
			got := []string{}
			for _, r := range rows {
				got = append(got, r.ID)
			}
			if fmt.Sprint(got) != fmt.Sprint(tc.want) {
				t.Errorf("SearchByName(%q) = %v, want %v", tc.pattern, got, tc.want)
			}
		}
	})

	t.Run("SearchByPhone is case-sensitive substring", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db, SQLite)
		for _, s := range []models.Student{
			{ID: "1", Name: "A", Phone: "0100123", TotalScore: 10},
			{ID: "2", Name: "B", Phone: "0200123", TotalScore: 20},
			{ID: "3", Name: "C", Phone: "ext-X9", TotalScore: 30},
		} {
			if err := store.CreateStudent(ctx, s); err != nil {
				t.Fatalf("failed to create student: %v", err)
			}
		}

		rows, err := store.SearchByPhone(ctx, "123", models.Range{From: 0, To: 9})
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(rows))
		}

		rows, err = store.SearchByPhone(ctx, "x9", models.Range{From: 0, To: 9})
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("expected case-sensitive miss, got %d rows", len(rows))
		}
	})

	t.Run("ListByTrack returns nested rows", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db, SQLite)
		seedStore(t, store, 12)

		rows, err := store.ListByTrack(ctx, "backend", models.Range{From: 0, To: 4})
		if err != nil {
			t.Fatalf("failed to list by track: %v", err)
		}
		if len(rows) != 5 {
			t.Fatalf("expected 5 rows, got %d", len(rows))
		}

		wantIDs := []string{"s02", "s04", "s06", "s08", "s10"}
		for i, row := range rows {
			if row.ID != wantIDs[i] {
				t.Errorf("row %d: expected %s, got %s", i, wantIDs[i], row.ID)
			}
			if !row.Nested() {
				t.Errorf("expected nested row for %s", row.ID)
			}
		}

		// s06 is enrolled in backend and frontend
		if got := len(rows[2].Enrollments); got != 2 {
			t.Errorf("expected 2 enrollments for s06, got %d", got)
		}
		for _, e := range rows[2].Enrollments {
			if e.StudentID != "s06" || e.Track.ID != e.TrackID || e.Track.Name == "" {
				t.Errorf("malformed enrollment %+v", e)
			}
		}

		page2, err := store.ListByTrack(ctx, "backend", models.Range{From: 5, To: 9})
		if err != nil {
			t.Fatalf("failed to list by track: %v", err)
		}
		if len(page2) != 1 || page2[0].ID != "s12" {
			t.Errorf("expected only s12 on page 2, got %+v", page2)
		}
	})

	t.Run("ListByTrack with unknown track is empty", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db, SQLite)
		seedStore(t, store, 3)

		rows, err := store.ListByTrack(ctx, "nope", models.Range{From: 0, To: 9})
		if err != nil {
			t.Fatalf("failed to list by track: %v", err)
		}
		if rows == nil || len(rows) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", rows)
		}
	})
}

func TestTrackRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("ListTracks is ordered by name", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db, SQLite)
		for _, tr := range []models.Track{{ID: "z", Name: "Web"}, {ID: "y", Name: "Data"}, {ID: "x", Name: "Mobile"}} {
			if err := repo.CreateTrack(ctx, tr); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
		}

		tracks, err := repo.ListTracks(ctx)
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 3 {
			t.Fatalf("expected 3 tracks, got %d", len(tracks))
		}
		if tracks[0].Name != "Data" || tracks[1].Name != "Mobile" || tracks[2].Name != "Web" {
			t.Errorf("unexpected order: %+v", tracks)
		}
	})

	t.Run("GetTrack", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db, SQLite)
		if err := repo.CreateTrack(ctx, models.Track{ID: "t1", Name: "Backend"}); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		track, err := repo.GetTrack(ctx, "t1")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if track.Name != "Backend" {
			t.Errorf("expected Backend, got %s", track.Name)
		}
	})
}

func TestSeed(t *testing.T) {
	ctx := context.Background()

	fixtureTOML := `
[[tracks]]
id = "backend"
name = "Backend"

[[tracks]]
name = "Frontend"

[[students]]
name = "Ada"
phone = "0100111"
total_score = 95
tracks = ["backend", "Frontend"]

[[students]]
id = "bob"
name = "Bob"
phone = "0100222"
total_score = 80
`
	path := filepath.Join(t.TempDir(), "seed.toml")
	if err := os.WriteFile(path, []byte(fixtureTOML), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	fixture, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("failed to load fixture: %v", err)
	}

	db := setupTestDB(t)
	defer db.Close()
	store := NewStore(db, SQLite)

	result, err := Seed(ctx, store, fixture)
	if err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	if result.Tracks != 2 || result.Students != 2 || result.Enrollments != 2 {
		t.Errorf("unexpected seed result %+v", result)
	}

	rows, err := store.ListStudents(ctx, models.Range{From: 0, To: 9})
	if err != nil {
		t.Fatalf("failed to list students: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "Ada" || len(rows[0].Tracks) != 2 {
		t.Errorf("unexpected rows after seed: %+v", rows)
	}
	if rows[1].ID != "bob" {
		t.Errorf("expected explicit id to be kept, got %s", rows[1].ID)
	}
}
