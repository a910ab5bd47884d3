package roster

import "github.com/desertthunder/roster/internal/models"

// Normalize maps one page of raw rows into canonical students, preserving order.
//
// Nested rows have their enrollments replaced by the tracks they wrap; canonical rows pass through.
func Normalize(rows []models.StudentRow) []models.Student {
	students := make([]models.Student, len(rows))
	for i, row := range rows {
		students[i] = normalizeRow(row)
	}
	return students
}

func normalizeRow(row models.StudentRow) models.Student {
	s := models.Student{
		ID:         row.ID,
		Name:       row.Name,
		Phone:      row.Phone,
		TotalScore: row.TotalScore,
		Tracks:     row.Tracks,
	}

	if row.Nested() {
		s.Tracks = make([]models.Track, len(row.Enrollments))
		for i, e := range row.Enrollments {
			s.Tracks[i] = e.Track
		}
	}

	return s
}
