package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func seedCmd(load configLoader) *cobra.Command {
	var (
		file string
		list bool
	)

	cmd := &cobra.Command{
		Use:   "seed [seeder...]",
		Short: "Populate the database with sample accounts and exams",
		Long: `Seed runs the named seeders, or all of them, in one transaction.
Seeding is idempotent: existing accounts and exams are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if list {
				fmt.Fprintln(out, "Available seeders:")
				for _, s := range listSeeders() {
					fmt.Fprintf(out, "  - %s: %s\n", s.Name(), s.Description())
				}
				return nil
			}

			for _, name := range args {
				if _, ok := getSeeder(name); !ok {
					return fmt.Errorf("seeder not found: %s", name)
				}
			}

			source.file = file
			if _, err := source.load(); err != nil {
				return err
			}

			cfg, err := load()
			if err != nil {
				return err
			}

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := runSeeders(cmd.Context(), db, args); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}

			fmt.Fprintln(out, "seeding completed successfully")
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "external YAML seed file (overrides embedded)")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list available seeders")

	return cmd
}
