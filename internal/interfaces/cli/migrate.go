package cli

import (
	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/infrastructure/database/postgres"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var migrationsDir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			conn, err := postgres.NewConnection(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			dir := migrationsDir
			if dir == "" {
				dir = cfg.Database.MigrationPath
			}
			if dir == "" {
				dir = "migrations"
			}
			return conn.RunMigrations(dir)
		},
	}

	cmd.Flags().StringVar(&migrationsDir, "dir", "", "migrations directory (defaults to database.migration_path)")
	return cmd
}
