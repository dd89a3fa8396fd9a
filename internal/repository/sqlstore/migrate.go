package sqlstore

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

// Migrations holds one directory of goose SQL files per dialect.
//
//go:embed migrations
var Migrations embed.FS

// Migrate applies all pending migrations for driver. It must run before the
// HTTP server starts accepting requests.
//
// goose keeps its dialect and base FS in package state, so concurrent
// Migrate calls are not supported.
func Migrate(db *sqlx.DB, driver string) error {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return err
	}

	goose.SetLogger(gooseLogger{logger: slog.Default().With(slog.String("component", "goose"))})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("sqlstore: setting goose dialect: %w", err)
	}

	goose.SetBaseFS(Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.Up(db.DB, "migrations/"+dialect); err != nil {
		return fmt.Errorf("sqlstore: running migrations: %w", err)
	}
	return nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return "sqlite3", nil
	case DriverPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("sqlstore: no goose dialect for driver %q", driver)
	}
}

// gooseLogger routes goose's printf-style output through slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}
