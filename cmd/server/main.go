// Package main is the entry point for the bookmark API.
//
// The main package stays minimal: it parses the command line and hands off
// to a subcommand. All actual logic lives in internal/.
//
//	bookmark-api serve     run migrations, then serve HTTP until SIGINT/SIGTERM
//	bookmark-api migrate   apply pending migrations and exit
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bookmark-api",
		Short:         "Authenticated bookmark REST API",
		Long:          "bookmark-api stores per-user bookmarks behind email/password and GitHub login.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
