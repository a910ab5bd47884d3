// package models defines the data model for the student roster
package models

import (
	"fmt"
	"time"
)

// Track is a learning track students can be enrolled in.
type Track struct {
	ID   string `json:"id" toml:"id"`
	Name string `json:"name" toml:"name"`
}

// Student is the canonical, normalized roster record.
type Student struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Phone      string  `json:"-"` // used for matching only
	TotalScore int     `json:"total_score"`
	Tracks     []Track `json:"tracks"`
}

// Enrollment is a join row between a student and a track.
type Enrollment struct {
	StudentID  string    `json:"student_id"`
	TrackID    string    `json:"track_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
	Track      Track     `json:"track"`
}

// StudentRow is a raw row as returned by the store.
//
// Canonical rows carry Tracks directly. Nested rows carry one Enrollment per join row and leave Tracks nil.
// A non-nil Enrollments slice marks the nested shape, even when it is empty.
type StudentRow struct {
	ID          string
	Name        string
	Phone       string
	TotalScore  int
	Tracks      []Track
	Enrollments []Enrollment
}

// Nested reports whether the row uses the nested join shape.
func (r StudentRow) Nested() bool {
	return r.Enrollments != nil
}

// Range is an inclusive, zero-based offset window [From, To].
type Range struct {
	From int
	To   int
}

// Limit returns the number of rows the range covers.
func (r Range) Limit() int {
	return r.To - r.From + 1
}

// Offset returns the number of rows skipped before the range starts.
func (r Range) Offset() int {
	return r.From
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.From, r.To)
}
