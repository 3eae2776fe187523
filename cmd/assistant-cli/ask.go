package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/healthdesk/assistant/internal/chat"
	"github.com/healthdesk/assistant/internal/retrieval"
)

// AnswerJSON is the --json form of an answer.
type AnswerJSON struct {
	Query string `json:"query"`
	answerFields
}

type answerFields struct {
	Text       string   `json:"text"`
	Anchors    []string `json:"anchors"`
	Confidence *float64 `json:"confidence,omitempty"`
	Stage      string   `json:"stage"`
	MatchedKey string   `json:"matchedKey,omitempty"`
	Specialty  string   `json:"specialty,omitempty"`
	Hedged     bool     `json:"hedged,omitempty"`
	SessionID  string   `json:"sessionId,omitempty"`
}

func toAnswerJSON(query string, reply chat.Reply) AnswerJSON {
	return AnswerJSON{Query: query, answerFields: answerFields(reply.View())}
}

// newAskCmd creates the ask subcommand.
func newAskCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a health question",
		Long: `Ask answers a question from the knowledge base. Without a question it starts
an interactive session that reads one question per line until "exit" or EOF.

Pass --session new to start a recorded conversation, or --session <id> to continue
one. Without --session nothing is stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ui := newUI(cmd)

			var sessionID uuid.UUID
			record := session != ""
			if record && session != "new" {
				id, err := uuid.Parse(session)
				if err != nil {
					return fmt.Errorf("invalid session id: %w", err)
				}
				sessionID = id
			}

			a, err := openApp(ctx, record)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) > 0 {
				_, err := askOnce(ctx, cmd, ui, a.Chat, sessionID, strings.Join(args, " "))
				return err
			}

			return runREPL(ctx, cmd, ui, a.Chat, sessionID)
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", `record the conversation ("new" or an existing session id)`)

	return cmd
}

func askOnce(ctx context.Context, cmd *cobra.Command, ui *UI, svc *chat.Service, sessionID uuid.UUID, query string) (uuid.UUID, error) {
	spin := ui.NewSpinner("Looking that up...")
	spin.Start()
	reply, err := svc.Ask(ctx, sessionID, query)
	spin.Stop()
	if err != nil {
		return sessionID, err
	}

	if outputJSON {
		return reply.SessionID, writeJSON(cmd.OutOrStdout(), toAnswerJSON(query, reply))
	}

	ui.Answer(reply.Resolution)
	return reply.SessionID, nil
}

func runREPL(ctx context.Context, cmd *cobra.Command, ui *UI, svc *chat.Service, sessionID uuid.UUID) error {
	ui.Info("%s", retrieval.PromptText)
	ui.Info(`Type "exit" to quit.`)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if !outputJSON {
			fmt.Fprint(cmd.OutOrStdout(), "> ")
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "exit", "quit":
			return endREPL(ui, sessionID)
		case "":
			continue
		}

		id, err := askOnce(ctx, cmd, ui, svc, sessionID, line)
		if err != nil {
			ui.Error("%v", err)
			continue
		}
		sessionID = id
		ui.Newline()
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("read input: %w", err)
	}
	return endREPL(ui, sessionID)
}

func endREPL(ui *UI, sessionID uuid.UUID) error {
	if sessionID != uuid.Nil {
		ui.Success("Conversation saved as session %s", sessionID)
	}
	return nil
}
