package repositories

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/roster/internal/models"
	"github.com/desertthunder/roster/internal/shared"
)

// Fixture is a TOML seed file for a local development store.
//
// Students reference tracks by id or by name.
type Fixture struct {
	Tracks   []models.Track   `toml:"tracks"`
	Students []FixtureStudent `toml:"students"`
}

// FixtureStudent is one student entry in a [Fixture].
type FixtureStudent struct {
	ID         string   `toml:"id"`
	Name       string   `toml:"name"`
	Phone      string   `toml:"phone"`
	TotalScore int      `toml:"total_score"`
	Tracks     []string `toml:"tracks"`
}

// SeedResult counts the records written by [Seed].
type SeedResult struct {
	Tracks      int
	Students    int
	Enrollments int
}

// LoadFixture reads and parses a TOML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var fixture Fixture
	if err := toml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	return &fixture, nil
}

// Seed writes the fixture's tracks, students, and enrollments, generating ids where missing.
func Seed(ctx context.Context, store *Store, fixture *Fixture) (*SeedResult, error) {
	result := &SeedResult{}
	refs := make(map[string]string, len(fixture.Tracks)*2)

	for _, t := range fixture.Tracks {
		if t.ID == "" {
			t.ID = shared.GenerateID()
		}
		if err := store.CreateTrack(ctx, t); err != nil {
			return result, err
		}
		refs[t.ID] = t.ID
		refs[t.Name] = t.ID
		result.Tracks++
	}

	for _, fs := range fixture.Students {
		s := models.Student{ID: fs.ID, Name: fs.Name, Phone: fs.Phone, TotalScore: fs.TotalScore}
		if s.ID == "" {
			s.ID = shared.GenerateID()
		}
		if err := store.CreateStudent(ctx, s); err != nil {
			return result, err
		}
		result.Students++

		for _, ref := range fs.Tracks {
			trackID, ok := refs[ref]
			if !ok {
				return result, fmt.Errorf("%w: student %q references %q", shared.ErrTrackNotFound, s.Name, ref)
			}
			if err := store.Enroll(ctx, s.ID, trackID); err != nil {
				return result, err
			}
			result.Enrollments++
		}
	}

	return result, nil
}
