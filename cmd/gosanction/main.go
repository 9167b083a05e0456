package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NicolasHaas/gosanction/pkg/config"
	"github.com/NicolasHaas/gosanction/pkg/logging"
)

const programName = "gosanction"

var globalFlags = struct {
	configFile string
	dbPath     string
	logLevel   string
	logFormat  string
}{}

// cfg is populated by the root command before any subcommand runs.
var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Sanction registry for moderated game servers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().
		StringVarP(&globalFlags.configFile, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.logLevel, "log-level", "", "log level: "+logging.LevelNames())
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.logFormat, "log-format", "", "log format: text or json")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(globalFlags.configFile)
		if err != nil {
			return err
		}
		if globalFlags.dbPath != "" {
			loaded.DatabasePath = globalFlags.dbPath
		}
		if globalFlags.logLevel != "" {
			loaded.LogLevel = globalFlags.logLevel
		}
		if globalFlags.logFormat != "" {
			loaded.LogFormat = globalFlags.logFormat
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		if _, err := logging.Setup(logging.Options{
			Level:  loaded.LogLevel,
			Format: loaded.LogFormat,
			Output: os.Stderr,
		}); err != nil {
			return err
		}
		cfg = loaded
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(importCommand())
	rootCmd.AddCommand(historyCommand())
	rootCmd.AddCommand(issuedCommand())
	rootCmd.AddCommand(wantedCommand())
	rootCmd.AddCommand(editCommand())
	rootCmd.AddCommand(deleteCommand())
	rootCmd.AddCommand(exportCommand())
	rootCmd.AddCommand(restoreCommand())
	rootCmd.AddCommand(versionCommand())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error(err.Error(), "component", programName)
		stop()
		os.Exit(1)
	}
}
