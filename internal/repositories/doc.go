// Package repositories implements read access to the student roster over database/sql.
//
// Every paginated query sorts by total_score descending with the student id as a stable tie-break,
// then applies the inclusive [models.Range] as LIMIT/OFFSET.
//
// Key Implementations:
//   - [StudentRepository] : Browse, name search, phone search, and track filter queries
//   - [TrackRepository] : The unpaginated track catalog
//   - [Store] : Both repositories behind one value, as consumed by the roster router
//
// Flat queries read the student_with_tracks view and return canonical rows.
// Track filtering reads the join table directly and returns nested rows carrying one [models.Enrollment] per join.
//
// Queries are written once with "?" placeholders; [Dialect] rebinds them for PostgreSQL.
package repositories
