// Package migrations embeds the schema and applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// Source returns the embedded migration files as a golang-migrate source.
func Source() (source.Driver, error) {
	d, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return d, nil
}

// Runner applies the embedded migrations to a database.
type Runner struct {
	m      *migrate.Migrate
	logger *slog.Logger
}

// New binds the embedded migrations to db. Close releases db along with the
// migration source, so callers pass a dedicated handle.
func New(db *sql.DB, logger *slog.Logger) (*Runner, error) {
	src, err := Source()
	if err != nil {
		return nil, err
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance: %w", err)
	}

	logger = logger.With("system", "migrations")
	m.Log = &logAdapter{logger: logger}

	return &Runner{m: m, logger: logger}, nil
}

// Up applies all pending migrations. An up-to-date schema is not an error.
func (r *Runner) Up() error {
	err := r.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		r.logger.Info("schema up to date")
		return nil
	}
	return err
}

// Down rolls back the given number of migrations.
func (r *Runner) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	err := r.m.Steps(-steps)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Version reports the applied version. A fresh database reports 0.
func (r *Runner) Version() (uint, bool, error) {
	v, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}

type logAdapter struct {
	logger *slog.Logger
}

func (l *logAdapter) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *logAdapter) Verbose() bool {
	return false
}
