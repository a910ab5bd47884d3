package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/roster/internal/models"
)

const orderByScore = " ORDER BY total_score DESC, id ASC LIMIT ? OFFSET ?"

// StudentRepository runs the paginated roster queries.
//
// Browse and search read the student_with_tracks view (canonical rows); track filtering reads the join table (nested rows).
type StudentRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewStudentRepository creates a new StudentRepository with the given database connection
func NewStudentRepository(db *sql.DB, dialect Dialect) *StudentRepository {
	return &StudentRepository{db: db, dialect: dialect}
}

// ListStudents returns one page of all students.
func (r *StudentRepository) ListStudents(ctx context.Context, rng models.Range) ([]models.StudentRow, error) {
	return r.queryFlat(ctx, "", nil, rng)
}

// SearchByName returns one page of students whose name contains pattern, ignoring case.
func (r *StudentRepository) SearchByName(ctx context.Context, pattern string, rng models.Range) ([]models.StudentRow, error) {
	where := r.dialect.Fold("name") + " LIKE " + r.dialect.Fold("?") + ` ESCAPE '\'`
	return r.queryFlat(ctx, where, []any{"%" + escapeLike(pattern) + "%"}, rng)
}

// SearchByPhone returns one page of students whose phone contains pattern, respecting case.
func (r *StudentRepository) SearchByPhone(ctx context.Context, pattern string, rng models.Range) ([]models.StudentRow, error) {
	return r.queryFlat(ctx, r.dialect.Contains("phone"), []any{pattern}, rng)
}

// ListByTrack returns one page of students enrolled in trackID as nested rows.
//
// Each row carries all of the student's enrollments, not only the filtered one.
func (r *StudentRepository) ListByTrack(ctx context.Context, trackID string, rng models.Range) ([]models.StudentRow, error) {
	query := `
		SELECT s.id, s.name, s.phone, s.total_score
		FROM students s
		JOIN student_tracks st ON st.student_id = s.id
		WHERE st.track_id = ?
		ORDER BY s.total_score DESC, s.id ASC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), trackID, rng.Limit(), rng.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to query students by track: %w", err)
	}
	defer rows.Close()

	students := []models.StudentRow{}
	for rows.Next() {
		var s models.StudentRow
		if err := rows.Scan(&s.ID, &s.Name, &s.Phone, &s.TotalScore); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		s.Enrollments = []models.Enrollment{}
		students = append(students, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(students) == 0 {
		return students, nil
	}

	if err := r.attachEnrollments(ctx, students); err != nil {
		return nil, err
	}

	return students, nil
}

// CreateStudent inserts a student. Tracks on the record are ignored; use [StudentRepository.Enroll].
func (r *StudentRepository) CreateStudent(ctx context.Context, s models.Student) error {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("validation failed: student id and name are required")
	}

	query := `INSERT INTO students (id, name, phone, total_score) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), s.ID, s.Name, s.Phone, s.TotalScore); err != nil {
		return fmt.Errorf("failed to insert student: %w", err)
	}

	return nil
}

// Enroll adds a join row between a student and a track.
func (r *StudentRepository) Enroll(ctx context.Context, studentID, trackID string) error {
	query := `INSERT INTO student_tracks (student_id, track_id, enrolled_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), studentID, trackID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to enroll student %s in track %s: %w", studentID, trackID, err)
	}
	return nil
}

// queryFlat runs a paginated query against the student_with_tracks view.
func (r *StudentRepository) queryFlat(ctx context.Context, where string, args []any, rng models.Range) ([]models.StudentRow, error) {
	query := `SELECT id, name, phone, total_score, tracks FROM student_with_tracks`
	if where != "" {
		query += " WHERE " + where
	}
	query += orderByScore

	args = append(args, rng.Limit(), rng.Offset())

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := []models.StudentRow{}
	for rows.Next() {
		s, err := r.scanFlat(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return students, nil
}

// scanFlat scans a view row from [sql.Rows] into a canonical [models.StudentRow]
func (r *StudentRepository) scanFlat(rows *sql.Rows) (models.StudentRow, error) {
	var (
		s          models.StudentRow
		tracksJSON []byte
	)

	if err := rows.Scan(&s.ID, &s.Name, &s.Phone, &s.TotalScore, &tracksJSON); err != nil {
		return s, fmt.Errorf("failed to scan student: %w", err)
	}

	s.Tracks = []models.Track{}
	if len(tracksJSON) > 0 {
		if err := json.Unmarshal(tracksJSON, &s.Tracks); err != nil {
			return s, fmt.Errorf("failed to decode tracks for student %s: %w", s.ID, err)
		}
	}

	return s, nil
}

// attachEnrollments loads every join row for the given students and wraps each track.
func (r *StudentRepository) attachEnrollments(ctx context.Context, students []models.StudentRow) error {
	index := make(map[string]int, len(students))
	placeholders := make([]string, len(students))
	args := make([]any, len(students))
	for i, s := range students {
		index[s.ID] = i
		placeholders[i] = "?"
		args[i] = s.ID
	}

	query := `
		SELECT st.student_id, st.track_id, st.enrolled_at, t.id, t.name
		FROM student_tracks st
		JOIN tracks t ON t.id = st.track_id
		WHERE st.student_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY st.student_id ASC, st.track_id ASC
	`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.StudentID, &e.TrackID, &e.EnrolledAt, &e.Track.ID, &e.Track.Name); err != nil {
			return fmt.Errorf("failed to scan enrollment: %w", err)
		}
		i, ok := index[e.StudentID]
		if !ok {
			continue
		}
		students[i].Enrollments = append(students[i].Enrollments, e)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	return nil
}
