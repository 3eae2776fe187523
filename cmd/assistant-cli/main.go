// Package main provides the health assistant CLI entrypoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/healthdesk/assistant/internal/app"
	"github.com/healthdesk/assistant/internal/config"
	"github.com/healthdesk/assistant/internal/observability"
	"github.com/healthdesk/assistant/internal/storage"
)

const version = "0.3.0"

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "assistant",
		Short: "Health assistant CLI for asking questions and managing history",
		Long: `Health assistant CLI answers free-text health questions from the built-in
knowledge base and manages recorded conversations.

Use this tool to:
- Ask questions one at a time or interactively
- Replay a file of queries and review how each one resolves
- Inspect and validate the knowledge base
- Browse, export and delete conversation history

All commands support --json for automation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logFormat := "console"
			if outputJSON {
				logFormat = "json"
			}
			level := cfg.Observability.LogLevel
			if verbose {
				level = "debug"
			} else if level == "info" {
				level = "warn"
			}

			logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      logFormat,
				Output:      cmd.ErrOrStderr(),
				ServiceName: "assistant-cli",
			})

			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	root.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(newAskCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newKBCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newPharmaciesCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// openApp wires the assistant. With history the database is opened and migrated.
func openApp(ctx context.Context, history bool) (*app.App, error) {
	return app.New(ctx, cfg, logger, app.Options{History: history, Migrate: history})
}

func newUI(cmd *cobra.Command) *UI {
	return NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), outputJSON, noColor)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newMigrateCmd creates the migrate subcommand.
func newMigrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply pending conversation history migrations to the configured SQLite or
Postgres database. Use --status to list applied and pending migrations without
changing anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ui := newUI(cmd)

			db, err := app.OpenDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := storage.NewMigrator(db, cfg.Database.Driver)

			if status {
				st, err := migrator.Status(ctx)
				if err != nil {
					return fmt.Errorf("migration status: %w", err)
				}
				if outputJSON {
					return writeJSON(cmd.OutOrStdout(), st)
				}
				ui.KeyValue("Driver", cfg.Database.Driver)
				ui.KeyValue("Applied", len(st.Applied))
				ui.KeyValue("Pending", len(st.Pending))
				for _, name := range st.Pending {
					ui.Step("%s", name)
				}
				if st.UpToDate {
					ui.Success("Database is up to date")
				}
				return nil
			}

			logger.Info().Str("driver", cfg.Database.Driver).Msg("Running migrations")
			applied, err := migrator.Up(ctx)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"driver":  cfg.Database.Driver,
					"applied": applied,
				})
			}
			if len(applied) == 0 {
				ui.Success("Database is up to date on %s", cfg.Database.Driver)
				return nil
			}
			for _, name := range applied {
				ui.Step("%s", name)
			}
			ui.Success("Applied %d migration(s) on %s", len(applied), cfg.Database.Driver)
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show migration status only")

	return cmd
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"go":      runtime.Version(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assistant v%s\n", version)
			return nil
		},
	}
}
