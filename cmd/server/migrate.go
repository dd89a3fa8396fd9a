package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/bookmark-api/internal/config"
	"github.com/sakif/bookmark-api/internal/repository/sqlstore"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			slog.SetDefault(cfg.NewLogger(os.Stdout))

			db, err := sqlstore.Open(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := sqlstore.Migrate(db, cfg.DB.Driver); err != nil {
				return err
			}

			slog.Info("migrations complete", slog.String("driver", cfg.DB.Driver))
			return nil
		},
	}
}
