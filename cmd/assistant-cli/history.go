package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/healthdesk/assistant/internal/app"
	"github.com/healthdesk/assistant/internal/storage"
)

// newHistoryCmd creates the history command group.
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse, export and delete recorded conversations",
	}
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryExportCmd())
	cmd.AddCommand(newHistoryDeleteCmd())
	return cmd
}

func openHistory(cmd *cobra.Command) (*app.App, error) {
	return openApp(cmd.Context(), true)
}

func parseSessionArg(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session id %q", arg)
	}
	return id, nil
}

func newHistoryListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.History.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), sessions)
			}

			ui := newUI(cmd)
			if len(sessions) == 0 {
				ui.Info("No recorded sessions")
				return nil
			}
			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				rows = append(rows, []string{
					s.ID.String(),
					strconv.Itoa(s.TurnCount),
					s.UpdatedAt.Local().Format(time.DateTime),
				})
			}
			ui.Table([]string{"SESSION", "TURNS", "LAST ACTIVE"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum sessions to list (0 for all)")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's turns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionArg(args[0])
			if err != nil {
				return err
			}

			a, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			turns, err := a.History.ListBySession(cmd.Context(), id)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), turns)
			}

			ui := newUI(cmd)
			ui.Section("Session " + id.String())
			for _, t := range turns {
				if t.Role == storage.RoleUser {
					ui.Step("%s", t.Text)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.Text)
				if t.Confidence != nil {
					ui.KeyValue("Confidence", fmt.Sprintf("%.0f%%", *t.Confidence*100))
				}
				ui.Newline()
			}
			return nil
		},
	}
}

func newHistoryExportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session transcript as JSON or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionArg(args[0])
			if err != nil {
				return err
			}
			f, err := storage.ParseExportFormat(format)
			if err != nil {
				return err
			}

			a, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer file.Close()
				w = file
			}

			if err := a.Exporter.Export(cmd.Context(), w, id, f); err != nil {
				return err
			}
			if output != "" {
				newUI(cmd).Success("Exported session %s to %s", id, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "export format (json or csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its turns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionArg(args[0])
			if err != nil {
				return err
			}

			a, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.History.DeleteSession(cmd.Context(), id); err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": id.String()})
			}
			newUI(cmd).Success("Deleted session %s", id)
			return nil
		},
	}
}
