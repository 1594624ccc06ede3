package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"grace/internal/platform/database"
)

// NewMigrateCmd creates the migrate subcommand and its directions.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL migrations.`,
	}
	for _, dir := range []struct {
		direction database.Direction
		short     string
	}{
		{database.Up, "Apply all pending migrations"},
		{database.Down, "Roll back the most recent migration"},
		{database.Status, "Print the status of every migration"},
	} {
		direction := dir.direction
		cmd.AddCommand(&cobra.Command{
			Use:   string(direction),
			Short: dir.short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd, direction)
			},
		})
	}
	return cmd
}

func runMigrate(cmd *cobra.Command, direction database.Direction) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.Println("Connecting to database...")
	pool, err := database.New(ctx, database.DefaultConfig(databaseURL), slog.Default())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close() //nolint:errcheck // process is exiting

	if err := database.Migrate(ctx, pool.DB(), direction); err != nil {
		return err
	}
	cmd.Printf("migrate %s completed\n", direction)
	return nil
}
