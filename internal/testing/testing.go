// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/roster/internal/models"
)

// ErrStoreDown is returned by a [MemoryStore] with Fail set.
var ErrStoreDown = errors.New("connection refused")

// MemoryStore is an in-memory roster store for tests.
//
// It sorts by total score descending with id as tie-break, serves browse and search as canonical rows, and
// serves track filtering as nested rows. Calls are recorded by operation name.
type MemoryStore struct {
	mu       sync.Mutex
	students []models.Student
	tracks   []models.Track
	calls    []string
	args     []string
	Fail     bool
}

// NewMemoryStore creates a store holding the given tracks and students.
func NewMemoryStore(tracks []models.Track, students []models.Student) *MemoryStore {
	return &MemoryStore{tracks: tracks, students: students}
}

// Students builds n students with strictly descending scores, each enrolled in tracks.
//
// IDs are s01, s02, ... and phones are 555000 followed by the index.
func Students(n int, tracks ...models.Track) []models.Student {
	students := make([]models.Student, n)
	for i := range n {
		students[i] = models.Student{
			ID:         fmt.Sprintf("s%02d", i+1),
			Name:       fmt.Sprintf("Student %02d", i+1),
			Phone:      fmt.Sprintf("555000%d", i+1),
			TotalScore: 1000 - i*10,
			Tracks:     append([]models.Track{}, tracks...),
		}
	}
	return students
}

// Calls returns the recorded operation names in call order.
func (m *MemoryStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.calls...)
}

// LastCall returns the most recent operation name and its pattern or track argument.
func (m *MemoryStore) LastCall() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return "", ""
	}
	return m.calls[len(m.calls)-1], m.args[len(m.args)-1]
}

func (m *MemoryStore) record(op, arg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
	m.args = append(m.args, arg)
	if m.Fail {
		return fmt.Errorf("%s: %w", op, ErrStoreDown)
	}
	return nil
}

func (m *MemoryStore) ListStudents(ctx context.Context, rng models.Range) ([]models.StudentRow, error) {
	if err := m.record("ListStudents", ""); err != nil {
		return nil, err
	}
	return flatRows(window(m.filter(func(models.Student) bool { return true }), rng)), nil
}

func (m *MemoryStore) SearchByName(ctx context.Context, pattern string, rng models.Range) ([]models.StudentRow, error) {
	if err := m.record("SearchByName", pattern); err != nil {
		return nil, err
	}
	match := func(s models.Student) bool {
		return strings.Contains(strings.ToLower(s.Name), strings.ToLower(pattern))
	}
	return flatRows(window(m.filter(match), rng)), nil
}

func (m *MemoryStore) SearchByPhone(ctx context.Context, pattern string, rng models.Range) ([]models.StudentRow, error) {
	if err := m.record("SearchByPhone", pattern); err != nil {
		return nil, err
	}
	match := func(s models.Student) bool { return strings.Contains(s.Phone, pattern) }
	return flatRows(window(m.filter(match), rng)), nil
}

func (m *MemoryStore) ListByTrack(ctx context.Context, trackID string, rng models.Range) ([]models.StudentRow, error) {
	if err := m.record("ListByTrack", trackID); err != nil {
		return nil, err
	}
	match := func(s models.Student) bool {
		for _, t := range s.Tracks {
			if t.ID == trackID {
				return true
			}
		}
		return false
	}
	return nestedRows(window(m.filter(match), rng)), nil
}

func (m *MemoryStore) ListTracks(ctx context.Context) ([]models.Track, error) {
	if err := m.record("ListTracks", ""); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Track{}, m.tracks...), nil
}

func (m *MemoryStore) filter(match func(models.Student) bool) []models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := []models.Student{}
	for _, s := range m.students {
		if match(s) {
			matched = append(matched, s)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].TotalScore != matched[j].TotalScore {
			return matched[i].TotalScore > matched[j].TotalScore
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}

func window(students []models.Student, rng models.Range) []models.Student {
	if rng.From >= len(students) {
		return []models.Student{}
	}
	end := min(rng.To+1, len(students))
	return students[rng.From:end]
}

func flatRows(students []models.Student) []models.StudentRow {
	rows := make([]models.StudentRow, len(students))
	for i, s := range students {
		rows[i] = models.StudentRow{
			ID: s.ID, Name: s.Name, Phone: s.Phone, TotalScore: s.TotalScore,
			Tracks: append([]models.Track{}, s.Tracks...),
		}
	}
	return rows
}

func nestedRows(students []models.Student) []models.StudentRow {
	rows := make([]models.StudentRow, len(students))
	for i, s := range students {
		enrollments := make([]models.Enrollment, len(s.Tracks))
		for j, t := range s.Tracks {
			enrollments[j] = models.Enrollment{StudentID: s.ID, TrackID: t.ID, EnrolledAt: time.Unix(0, 0).UTC(), Track: t}
		}
		rows[i] = models.StudentRow{
			ID: s.ID, Name: s.Name, Phone: s.Phone, TotalScore: s.TotalScore, Enrollments: enrollments,
		}
	}
	return rows
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
