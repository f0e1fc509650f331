package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Strob0t/crmlite/internal/adapter/postgres"
	"github.com/Strob0t/crmlite/internal/config"
)

var errPostgresOnly = errors.New("only supported with store.driver postgres")

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sd, err := openStore(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer sd.close()
			if err := sd.store.EnsureSchema(cmd.Context()); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			slog.Info("migrations applied", "store", c.cfg.Store.Driver)
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Store.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate down: %w", errPostgresOnly)
			}
			pool, err := postgres.NewPool(cmd.Context(), c.cfg.Postgres)
			if err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			defer pool.Close()
			if err := postgres.RollbackMigrations(cmd.Context(), pool, steps); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			slog.Info("migrations rolled back", "steps", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Store.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate version: %w", errPostgresOnly)
			}
			pool, err := postgres.NewPool(cmd.Context(), c.cfg.Postgres)
			if err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			defer pool.Close()
			v, err := postgres.MigrationVersion(cmd.Context(), pool)
			if err != nil {
				return fmt.Errorf("migrate version: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
