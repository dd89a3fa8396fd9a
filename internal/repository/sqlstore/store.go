// Package sqlstore implements the repository interfaces on top of sqlx.
//
// Two backends are supported:
//   - "sqlite"   → modernc.org/sqlite, a pure-Go driver (no CGo, no C compiler)
//   - "postgres" → lib/pq
//
// Queries are written once with "?" placeholders and passed through
// sqlx's Rebind, which rewrites them to "$1, $2..." for postgres.
//
// Usage:
//
//	db, err := sqlstore.Open("sqlite", "data/bookmarks.db")
//	if err != nil { ... }
//	defer db.Close()
//	if err := sqlstore.Migrate(db, "sqlite"); err != nil { ... }
package sqlstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open opens a connection pool for the given driver and verifies it with a
// ping. For file-backed sqlite the parent directory is created first.
func Open(driver, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, errors.New("sqlstore: empty DSN")
	}

	switch driver {
	case DriverSQLite:
		return openSQLite(dsn)
	case DriverPostgres:
		db, err := sqlx.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: opening postgres: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlstore: pinging postgres: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q: must be sqlite or postgres", driver)
	}
}

func openSQLite(dsn string) (*sqlx.DB, error) {
	if isSQLiteFilePath(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("sqlstore: creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening sqlite: %w", err)
	}

	// PRAGMAs are per connection and ":memory:" databases are per connection
	// too, so the pool is pinned to a single connection. SQLite serialises
	// writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: pinging sqlite: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: enabling WAL: %w", err)
	}
	// Foreign keys are off by default in SQLite.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: enabling foreign keys: %w", err)
	}

	return db, nil
}

func isSQLiteFilePath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// isUniqueConstraintError matches unique violations across drivers by message,
// so the store does not depend on driver-specific error types.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") // PostgreSQL
}
