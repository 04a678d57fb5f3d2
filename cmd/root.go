package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/naxos-reconcile/internal/config"
	"github.com/lehigh-university-libraries/naxos-reconcile/internal/reconcilecmd"
)

func NewRootCmd() *cobra.Command {
	app := reconcilecmd.NewApp()
	var configPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "naxos-reconcile",
		Short: "Reconcile Sierra streaming-audio records with the Naxos feed",
		Long: `naxos-reconcile compares the library's Sierra export of Naxos Music Library
records with the vendor's MARC/XML feed.

It finds records to keep, delete and import, looks up OCLC numbers in WorldCat,
checks whether vendor links still play, and summarizes the results for review.
Each day's output goes to its own directory under the data root.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			app.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("NAXOS_RECONCILE_CONFIG"), "YAML config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	addPrepCmds(cmd, app)
	addLookupCmds(cmd, app)
	addReportCmds(cmd, app)

	return cmd
}
