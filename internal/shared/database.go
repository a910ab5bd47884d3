package shared

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

// sqliteFoldDriver is the sqlite3 driver with a Unicode-aware fold(text) function.
// SQLite's built-in LOWER only folds ASCII letters.
const sqliteFoldDriver = "sqlite3_fold"

func init() {
	sql.Register(sqliteFoldDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	return openDatabase(DriverSQLite, path)
}

// OpenDatabase opens the database described by cfg using its configured driver
// and applies the pool settings.
func OpenDatabase(cfg DatabaseConfig) (*sql.DB, error) {
	var source string
	switch cfg.Driver {
	case DriverSQLite:
		source = cfg.Path
	case DriverPostgres:
		source = cfg.DSN
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, cfg.Driver)
	}

	db, err := openDatabase(cfg.Driver, source)
	if err != nil {
		return nil, err
	}

	ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	return db, nil
}

func openDatabase(driver, source string) (*sql.DB, error) {
	if driver == DriverSQLite {
		driver = sqliteFoldDriver
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Recommended for production use to limit connections and improve performance.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}
