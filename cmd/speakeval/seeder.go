package main

import (
	"context"
	"database/sql"
	"fmt"
)

// Seeder populates one domain's data.
type Seeder interface {
	Name() string
	Description() string

	// Seed runs inside tx so that a run across several seeders is
	// all-or-nothing.
	Seed(ctx context.Context, tx *sql.Tx) error
}

// seeders run in registration order; later seeders may depend on rows
// written by earlier ones.
var seeders []Seeder

func registerSeeder(s Seeder) {
	seeders = append(seeders, s)
}

func getSeeder(name string) (Seeder, bool) {
	for _, s := range seeders {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

func listSeeders() []Seeder {
	return append([]Seeder(nil), seeders...)
}

// runSeeders executes the named seeders, or all of them when names is
// empty, in a single transaction.
func runSeeders(ctx context.Context, db *sql.DB, names []string) error {
	selected := listSeeders()
	if len(names) > 0 {
		selected = selected[:0:0]
		for _, name := range names {
			s, ok := getSeeder(name)
			if !ok {
				return fmt.Errorf("seeder not found: %s", name)
			}
			selected = append(selected, s)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	for _, s := range selected {
		if err := s.Seed(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
