package commands

import (
	"fmt"
	"timetable/internal/config"
	"timetable/internal/migrations"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var databaseURL string

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back postgres schema migrations",
	}
	migrateCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "postgres connection string (overrides database.url)")

	resolveURL := func() (string, error) {
		if databaseURL != "" {
			return databaseURL, nil
		}
		cfg, err := opts.load()
		if err != nil {
			return "", err
		}
		if cfg.Repository.Type != config.RepositoryPostgres && cfg.Database.URL == "" {
			return "", fmt.Errorf("миграции нужны только для postgres: задайте database.url или --database-url")
		}
		return cfg.Database.URL, nil
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL()
			if err != nil {
				return err
			}
			if err := migrations.Up(url); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Миграции применены")
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveURL()
			if err != nil {
				return err
			}
			if err := migrations.Down(url); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Миграции откачены")
			return nil
		},
	})

	return migrateCmd
}
