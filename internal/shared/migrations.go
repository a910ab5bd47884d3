package shared

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Each driver has its own directory of NNNN_name_up.sql / NNNN_name_down.sql pairs.
//
//go:embed migrations
var migrationFiles embed.FS

var migrationName = regexp.MustCompile(`^(\d+)_(\w+)_(up|down)\.sql$`)

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Migrator applies the embedded roster schema for one database driver and
// records applied versions in schema_migrations.
type Migrator struct {
	db     *sql.DB
	driver string
}

// NewMigrator creates a [Migrator] for db opened with driver ([DriverSQLite] or [DriverPostgres]).
func NewMigrator(db *sql.DB, driver string) *Migrator {
	return &Migrator{db: db, driver: driver}
}

func (m *Migrator) dir() string {
	if m.driver == DriverPostgres {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

// bind rewrites the single "?" placeholder used by the bookkeeping queries.
func (m *Migrator) bind(query string) string {
	if m.driver == DriverPostgres {
		return strings.Replace(query, "?", "$1", 1)
	}
	return query
}

// Migrations returns the driver's migration set ordered by version.
func (m *Migrator) Migrations() ([]Migration, error) {
	names, err := fs.Glob(migrationFiles, path.Join(m.dir(), "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, name := range names {
		match := migrationName.FindStringSubmatch(path.Base(name))
		if match == nil {
			return nil, fmt.Errorf("unexpected migration file %s", name)
		}

		version, _ := strconv.Atoi(match[1])
		content, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Name: match[2]}
			byVersion[version] = mig
		}
		if match[3] == "up" {
			mig.Up = string(content)
		} else {
			mig.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.Up == "" || mig.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", mig.Version)
		}
		migrations = append(migrations, *mig)
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })

	return migrations, nil
}

// Up applies every pending migration and returns the versions it applied.
func (m *Migrator) Up(ctx context.Context) ([]int, error) {
	migrations, err := m.Migrations()
	if err != nil {
		return nil, err
	}

	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}

	ran := []int{}
	for _, mig := range migrations {
		if slices.Contains(applied, mig.Version) {
			continue
		}
		record := m.bind("INSERT INTO schema_migrations (version) VALUES (?)")
		if err := m.run(ctx, mig.Up, record, mig.Version); err != nil {
			return ran, fmt.Errorf("failed to apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		ran = append(ran, mig.Version)
	}

	return ran, nil
}

// Down reverts the newest applied migration and returns its version.
//
// It returns [ErrNoMigrations] when nothing is applied.
func (m *Migrator) Down(ctx context.Context) (int, error) {
	migrations, err := m.Migrations()
	if err != nil {
		return 0, err
	}

	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return 0, err
	}
	if len(applied) == 0 {
		return 0, ErrNoMigrations
	}

	current := applied[len(applied)-1]
	i := slices.IndexFunc(migrations, func(mig Migration) bool { return mig.Version == current })
	if i < 0 {
		return 0, fmt.Errorf("migration version %d not found for %s", current, m.driver)
	}

	record := m.bind("DELETE FROM schema_migrations WHERE version = ?")
	if err := m.run(ctx, migrations[i].Down, record, current); err != nil {
		return 0, fmt.Errorf("failed to roll back migration %d (%s): %w", current, migrations[i].Name, err)
	}

	return current, nil
}

// Applied returns the versions recorded in schema_migrations in ascending order.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	versions := []int{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		versions = append(versions, v)
	}

	return versions, rows.Err()
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// run executes script and the bookkeeping statement in one transaction.
func (m *Migrator) run(ctx context.Context, script, record string, version int) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w\nStatement: %s", err, stmt)
		}
	}

	if _, err := tx.ExecContext(ctx, record, version); err != nil {
		return err
	}

	return tx.Commit()
}

// statements drops "--" comments from script and splits it on semicolons.
func statements(script string) []string {
	var b strings.Builder
	for line := range strings.Lines(script) {
		if i := strings.Index(line, "--"); i >= 0 {
			line = line[:i] + "\n"
		}
		b.WriteString(line)
	}

	stmts := []string{}
	for stmt := range strings.SplitSeq(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
