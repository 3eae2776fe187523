// Package chat answers user messages and records them as conversation turns.
package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/healthdesk/assistant/internal/observability"
	"github.com/healthdesk/assistant/internal/retrieval"
	"github.com/healthdesk/assistant/internal/storage"
)

// Reply is the outcome of one user message.
type Reply struct {
	retrieval.Resolution
	// SessionID is set when history is enabled.
	SessionID uuid.UUID
}

// Service answers messages and, when a history repository is configured, appends the
// user turn and the assistant turn to the session.
type Service struct {
	answerer retrieval.Answerer
	history  *storage.HistoryRepository
	logger   *observability.Logger
}

// NewService creates a chat service. history may be nil to disable recording.
func NewService(answerer retrieval.Answerer, history *storage.HistoryRepository, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{answerer: answerer, history: history, logger: logger}
}

// HistoryEnabled reports whether replies are recorded.
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}

// History returns the underlying repository, or nil.
func (s *Service) History() *storage.HistoryRepository {
	return s.history
}

// Ask answers query. With history enabled a nil sessionID starts a new session.
func (s *Service) Ask(ctx context.Context, sessionID uuid.UUID, query string) (Reply, error) {
	res := s.answerer.Resolve(ctx, query)
	reply := Reply{Resolution: res}

	if s.history == nil {
		return reply, nil
	}

	if sessionID == uuid.Nil {
		sessionID = uuid.New()
	}
	reply.SessionID = sessionID

	if err := s.history.Append(ctx,
		storage.UserTurn(sessionID, query),
		storage.AssistantTurn(sessionID, res.Response.Text, res.Response.Anchors, res.Response.Confidence, string(res.Stage)),
	); err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Msg("Failed to record conversation turns")
		return reply, fmt.Errorf("record turns: %w", err)
	}

	return reply, nil
}
