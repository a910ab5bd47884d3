package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/roster/internal/models"
	"github.com/desertthunder/roster/internal/shared"
)

// TrackRepository reads the track catalog.
type TrackRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB, dialect Dialect) *TrackRepository {
	return &TrackRepository{db: db, dialect: dialect}
}

// ListTracks returns every track, unfiltered and unpaginated, ordered by name.
func (r *TrackRepository) ListTracks(ctx context.Context) ([]models.Track, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM tracks ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// GetTrack retrieves a track by ID.
func (r *TrackRepository) GetTrack(ctx context.Context, id string) (*models.Track, error) {
	var t models.Track
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT id, name FROM tracks WHERE id = ?`), id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return &t, nil
}

// CreateTrack inserts a track.
func (r *TrackRepository) CreateTrack(ctx context.Context, t models.Track) error {
	if strings.TrimSpace(t.ID) == "" || strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("validation failed: track id and name are required")
	}

	query := `INSERT INTO tracks (id, name) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), t.ID, t.Name); err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}
	return nil
}
