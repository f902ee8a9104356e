package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/speakeval/internal/migrations"
	"github.com/JaimeStill/speakeval/pkg/logging"
)

func migrateCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withRunner := func(fn func(r *migrations.Runner, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			runner, err := migrations.New(db, logging.New(&cfg.Logging, os.Stderr))
			if err != nil {
				db.Close()
				return err
			}
			defer runner.Close()

			return fn(runner, cmd)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withRunner(func(r *migrations.Runner, cmd *cobra.Command) error {
			if err := r.Up(); err != nil {
				return err
			}
			return printVersion(r, cmd)
		}),
	}

	var steps int
	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Revert applied migrations (one by default)",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			steps = 1
			if len(args) == 1 {
				n, err := parseSteps(args[0])
				if err != nil {
					return err
				}
				steps = n
			}
			return nil
		},
		RunE: withRunner(func(r *migrations.Runner, cmd *cobra.Command) error {
			if err := r.Down(steps); err != nil {
				return err
			}
			return printVersion(r, cmd)
		}),
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE:  withRunner(printVersion),
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func parseSteps(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("steps must be a positive integer, got %q", arg)
	}
	return n, nil
}

func printVersion(r *migrations.Runner, cmd *cobra.Command) error {
	v, dirty, err := r.Version()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case v == 0:
		fmt.Fprintln(out, "schema version: none")
	case dirty:
		fmt.Fprintf(out, "schema version: %d (dirty)\n", v)
	default:
		fmt.Fprintf(out, "schema version: %d\n", v)
	}
	return nil
}
