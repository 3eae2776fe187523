package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/healthdesk/assistant/internal/knowledge"
	"github.com/healthdesk/assistant/internal/retrieval"
)

// ReplayRow is one resolved query of a replay.
type ReplayRow struct {
	Line       int      `json:"line"`
	Query      string   `json:"query"`
	Stage      string   `json:"stage"`
	MatchedKey string   `json:"matchedKey,omitempty"`
	Distance   *int     `json:"editDistance,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Hedged     bool     `json:"hedged,omitempty"`
	Specialty  string   `json:"specialty,omitempty"`
	Anchors    []string `json:"anchors"`
	Text       string   `json:"text"`
}

// newReplayCmd creates the replay subcommand.
func newReplayCmd() *cobra.Command {
	var (
		workers int
		timeout time.Duration
		format  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Resolve every query in a file",
		Long: `Replay reads one query per line (blank lines and lines starting with # are
skipped), resolves them concurrently and writes one row per query in input order.
Rows carry the stage, matched key, edit distance and confidence so a query log can
be reviewed against the knowledge base.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ui := newUI(cmd)

			if outputJSON {
				format = "json"
			}
			if format != "csv" && format != "json" {
				return fmt.Errorf("unsupported format %q", format)
			}

			lines, queries, err := readQueries(args[0])
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				ui.Warning("No queries found in %s", args[0])
				return nil
			}

			a, err := openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			// Replay measures the resolver, not the cache.
			processor := retrieval.NewBatchProcessor(a.Resolver, workers, timeout)

			bar := ui.NewProgressBar(len(queries), "Resolving")
			start := time.Now()
			results, err := processor.Process(ctx, queries, func(retrieval.BatchResult) {
				_ = bar.Add(1)
			})
			_ = bar.Finish()
			if err != nil {
				return err
			}

			rows := make([]ReplayRow, len(results))
			for i, r := range results {
				rows[i] = toReplayRow(lines[i], r)
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			if format == "json" {
				err = writeJSON(w, rows)
			} else {
				err = writeReplayCSV(w, rows)
			}
			if err != nil {
				return fmt.Errorf("write results: %w", err)
			}

			logger.Info().
				Int("queries", len(rows)).
				Str("elapsed", FormatDuration(time.Since(start))).
				Msg("Replay finished")
			if output != "" {
				ui.Success("Wrote %d rows to %s", len(rows), output)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 5, "number of concurrent workers")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "maximum time for the whole replay")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format (csv or json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write results to a file instead of stdout")

	return cmd
}

// readQueries returns the non-blank, non-comment lines of path with their 1-based line
// numbers.
func readQueries(path string) ([]int, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open query file: %w", err)
	}
	defer f.Close()

	var (
		lines   []int
		queries []string
	)
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		lines = append(lines, n)
		queries = append(queries, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read query file: %w", err)
	}
	return lines, queries, nil
}

func toReplayRow(line int, r retrieval.BatchResult) ReplayRow {
	res := r.Resolution
	row := ReplayRow{
		Line:       line,
		Query:      r.Query,
		Stage:      string(res.Stage),
		Confidence: res.Response.Confidence,
		Hedged:     res.Hedged,
		Anchors:    res.Response.Anchors,
		Text:       res.Response.Text,
	}
	if res.Match != nil {
		row.MatchedKey = res.Match.Key
		d := res.Match.EditDistance
		row.Distance = &d
		if row.Confidence == nil {
			c := knowledge.Confidence(*res.Match)
			row.Confidence = &c
		}
	}
	if res.Suggestion != nil {
		row.Specialty = res.Suggestion.Specialty
	}
	if row.Anchors == nil {
		row.Anchors = []string{}
	}
	return row
}

func writeReplayCSV(w io.Writer, rows []ReplayRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"line", "query", "stage", "matched_key", "edit_distance", "confidence", "hedged", "specialty", "anchors", "text"}); err != nil {
		return err
	}
	for _, r := range rows {
		distance, confidence := "", ""
		if r.Distance != nil {
			distance = strconv.Itoa(*r.Distance)
		}
		if r.Confidence != nil {
			confidence = strconv.FormatFloat(*r.Confidence, 'f', 3, 64)
		}
		if err := cw.Write([]string{
			strconv.Itoa(r.Line),
			r.Query,
			r.Stage,
			r.MatchedKey,
			distance,
			confidence,
			strconv.FormatBool(r.Hedged),
			r.Specialty,
			strings.Join(r.Anchors, " "),
			r.Text,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
