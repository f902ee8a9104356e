// Package repository provides generic helpers for database/sql access:
// single and multi-row queries with scanner callbacks, transactional
// execution, and translation of driver errors into domain errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Unique constraint violation.
const pgUniqueViolation = "23505"

// Foreign key violation.
const pgForeignKeyViolation = "23503"

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ScanFunc reads a single record from a Scanner.
type ScanFunc[T any] func(Scanner) (T, error)

// QueryOne executes q and scans exactly one row.
func QueryOne[T any](ctx context.Context, db Querier, q string, args []any, scan ScanFunc[T]) (T, error) {
	return scan(db.QueryRowContext(ctx, q, args...))
}

// QueryMany executes q and scans every returned row.
func QueryMany[T any](ctx context.Context, db Querier, q string, args []any, scan ScanFunc[T]) ([]T, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// WithTx runs fn inside a transaction, committing on success.
func WithTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}

// ExecExpectOne executes q and returns sql.ErrNoRows unless exactly one row
// was affected.
func ExecExpectOne(ctx context.Context, db Querier, q string, args ...any) error {
	result, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return sql.ErrNoRows
	}
	return nil
}

// MapError translates sql.ErrNoRows and pg unique violations into the
// given domain errors. Foreign key violations map to notFound. Other
// errors are returned unchanged.
func MapError(err error, notFound, duplicate error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return duplicate
		case pgForeignKeyViolation:
			return notFound
		}
	}

	return err
}
