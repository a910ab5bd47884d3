// package repositories provides persistence layer implementations for the roster store.
package repositories

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/desertthunder/roster/internal/shared"
)

// Dialect captures the SQL differences between the supported drivers.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// DialectFor maps a configured driver name to its [Dialect].
func DialectFor(driver string) Dialect {
	if driver == shared.DriverPostgres {
		return Postgres
	}
	return SQLite
}

// Rebind rewrites "?" placeholders into the dialect's positional form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, c := range query {
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteRune(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Contains returns a case-sensitive substring predicate on column for one bound argument.
func (d Dialect) Contains(column string) string {
	if d == Postgres {
		return "strpos(" + column + ", ?) > 0"
	}
	return "instr(" + column + ", ?) > 0"
}

// Fold returns a case-folding expression over expr for case-insensitive matching.
//
// SQLite uses the fold function registered by [shared.OpenDatabase].
func (d Dialect) Fold(expr string) string {
	if d == Postgres {
		return "LOWER(" + expr + ")"
	}
	return "fold(" + expr + ")"
}

// Store bundles the student and track repositories behind one value.
type Store struct {
	*StudentRepository
	*TrackRepository
}

// NewStore creates a [Store] over db using dialect.
func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		StudentRepository: NewStudentRepository(db, dialect),
		TrackRepository:   NewTrackRepository(db, dialect),
	}
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
