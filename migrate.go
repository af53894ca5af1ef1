package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"secret-notes/db"
)

var (
	migrateTo    string
	migrateToDSN string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy users and notes from the configured store into another backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch migrateTo {
		case db.BackendSQLite, db.BackendMySQL:
		default:
			return fmt.Errorf("--to must be sqlite or mysql, got %q", migrateTo)
		}
		if migrateToDSN == "" {
			return fmt.Errorf("--to-dsn is required")
		}

		src, err := db.Open(cfg.StoreOptions())
		if err != nil {
			return fmt.Errorf("failed to open %s store: %w", cfg.Storage, err)
		}
		defer src.Close()

		dst, err := db.Open(db.Options{Backend: migrateTo, DSN: migrateToDSN})
		if err != nil {
			return fmt.Errorf("failed to open %s store: %w", migrateTo, err)
		}
		defer dst.Close()

		users, notes, err := migrate(cmd.Context(), src, dst)
		if err != nil {
			return err
		}
		slog.Info("migration complete", "to", migrateTo, "users", users, "notes", notes)
		return nil
	},
}

// migrate copies every record from src to dst, ids included.
func migrate(ctx context.Context, src, dst db.Store) (int, int, error) {
	users, notes, err := src.Dump(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read source store: %w", err)
	}
	if err := dst.Restore(ctx, users, notes); err != nil {
		return 0, 0, fmt.Errorf("failed to write target store: %w", err)
	}
	return len(users), len(notes), nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "Target backend: sqlite or mysql")
	migrateCmd.Flags().StringVar(&migrateToDSN, "to-dsn", "", "Target data source name")
}
