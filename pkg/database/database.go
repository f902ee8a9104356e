// Package database opens and supervises the PostgreSQL connection pool.
// Connections go through the pgx stdlib driver so repositories can stay on
// database/sql.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/speakeval/pkg/lifecycle"
)

// ErrNotReady is returned by Ping before the pool has been verified.
var ErrNotReady = errors.New("database not ready")

// System exposes the connection pool to domain systems.
type System interface {
	Connection() *sql.DB
	Start(lc *lifecycle.Coordinator) error
	Ping(ctx context.Context) error
}

type database struct {
	conn   *sql.DB
	cfg    *Config
	logger *slog.Logger
	ready  bool
}

// New opens the pool without connecting; the first round trip happens in Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	conn, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With("system", "database"),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

// Start verifies connectivity during startup and closes the pool on shutdown.
func (d *database) Start(lc *lifecycle.Coordinator) error {
	d.logger.Info("starting database connection", "host", d.cfg.Host, "name", d.cfg.Name)

	ctx, cancel := context.WithTimeout(lc.Context(), d.cfg.ConnTimeoutDuration())
	defer cancel()

	if err := d.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	d.ready = true

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.logger.Info("closing database connection")
		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
		}
	})

	return nil
}

func (d *database) Ping(ctx context.Context) error {
	if !d.ready {
		return ErrNotReady
	}
	return d.conn.PingContext(ctx)
}
