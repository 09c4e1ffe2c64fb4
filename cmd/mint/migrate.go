package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mint-balance/internal/cli"
	"github.com/Veraticus/mint-balance/internal/config"
	"github.com/Veraticus/mint-balance/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates automatically; this one reports what happened.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "show the current schema version without applying changes")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if !status {
		slog.Info("running database migrations", "database", cfg.DatabasePath)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	version, dirty, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case dirty:
		fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("Schema version %d is dirty, a migration failed halfway", version)))
	case status:
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Database %s at schema version %d", cfg.DatabasePath, version)))
	default:
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database migrations completed, schema version %d", version)))
	}
	return nil
}
