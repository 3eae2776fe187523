package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/healthdesk/assistant/internal/app"
	"github.com/healthdesk/assistant/internal/knowledge"
	"github.com/healthdesk/assistant/internal/retrieval"
)

// newKBCmd creates the kb command group.
func newKBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Inspect and validate the knowledge base",
	}
	cmd.AddCommand(newKBListCmd())
	cmd.AddCommand(newKBCheckCmd())
	return cmd
}

func newKBListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List knowledge base entries in resolution order",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := app.LoadKnowledgeBase(cfg.Resolver.KnowledgeBasePath)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), base.Entries())
			}

			rows := make([][]string, 0, base.Len())
			for _, e := range base.Entries() {
				rows = append(rows, []string{
					e.Key,
					strings.Join(retrieval.AnchorsFor(e), " "),
					Truncate(e.Advice, 60),
				})
			}
			ui := newUI(cmd)
			ui.Table([]string{"KEY", "PAGES", "ADVICE"}, rows)
			ui.Newline()
			ui.Info("%d entries", base.Len())
			return nil
		},
	}
}

// CheckReport is the result of kb check.
type CheckReport struct {
	Path    string   `json:"path"`
	Entries int      `json:"entries"`
	Valid   bool     `json:"valid"`
	Error   string   `json:"error,omitempty"`
	Shadows []Shadow `json:"shadows"`
}

// Shadow records a key that contains an earlier key. Queries naming the longer key
// also contain the shorter one, so the earlier entry wins the substring pass.
type Shadow struct {
	Key      string `json:"key"`
	Earlier  string `json:"shadowedBy"`
	Resolves string `json:"resolvesTo"`
}

func newKBCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a knowledge base file",
		Long: `Check validates a knowledge base file (default: the configured one, or the
built-in base) and reports keys that can never be reached through the substring
pass because an earlier key is contained in them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.Resolver.KnowledgeBasePath
			if len(args) == 1 {
				path = args[0]
			}

			report := CheckReport{Path: path, Shadows: []Shadow{}}
			if report.Path == "" {
				report.Path = "(built-in)"
			}

			base, err := app.LoadKnowledgeBase(path)
			if err != nil {
				report.Error = err.Error()
			} else {
				report.Valid = true
				report.Entries = base.Len()
				report.Shadows = findShadows(base)
			}

			ui := newUI(cmd)
			if outputJSON {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else if report.Valid {
				ui.Success("%s: %d entries", report.Path, report.Entries)
				for _, s := range report.Shadows {
					ui.Warning("%q contains earlier key %q; queries for it resolve to %q", s.Key, s.Earlier, s.Resolves)
				}
			} else {
				ui.Error("%s: %s", report.Path, report.Error)
			}

			if !report.Valid {
				return fmt.Errorf("knowledge base is invalid")
			}
			return nil
		},
	}
}

// findShadows reports keys whose own text matches a different entry.
func findShadows(base *knowledge.Base) []Shadow {
	shadows := []Shadow{}
	keys := base.Keys()
	matcher := knowledge.NewMatcher(base)
	for i, key := range keys {
		for _, earlier := range keys[:i] {
			if !strings.Contains(key, earlier) {
				continue
			}
			// An exact query still reaches the key; a longer phrasing does not.
			m, ok := matcher.FindBestMatch(key + " now")
			resolves := earlier
			if ok {
				resolves = m.Key
			}
			shadows = append(shadows, Shadow{Key: key, Earlier: earlier, Resolves: resolves})
			break
		}
	}
	return shadows
}
