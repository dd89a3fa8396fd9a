package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/bookmark-api/internal/config"
	"github.com/sakif/bookmark-api/internal/repository/sqlstore"
	"github.com/sakif/bookmark-api/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := cfg.NewLogger(os.Stdout)
			slog.SetDefault(logger)

			db, err := sqlstore.Open(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			// Closed after Start returns so in-flight requests finish first.
			defer func() { _ = db.Close() }()

			if err := sqlstore.Migrate(db, cfg.DB.Driver); err != nil {
				return err
			}

			srv, err := server.New(cfg, db, logger)
			if err != nil {
				return err
			}
			return srv.Start(cmd.Context())
		},
	}
}
