package cli

import (
	"fmt"

	"github.com/felixgeelhaar/jobtrack/internal/app"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Apply pending migrations to DATABASE_URL.

Postgres migrations also install the row-level security policies that scope
every table to app.user_id. SQLite databases are migrated on every start as
well, so this is only required for Postgres.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		ctx := cmd.Context()

		conn, err := database.NewConnection(ctx, database.Config{
			URL:        cfg.DatabaseURL,
			Key:        cfg.DatabaseKey,
			SQLitePath: cfg.SQLitePath,
		})
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer conn.Close()

		if err := app.NewRepositoryFactory(conn).Migrate(ctx, logger); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", conn.Driver())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
