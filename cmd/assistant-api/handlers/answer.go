package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/healthdesk/assistant/internal/chat"
	"github.com/healthdesk/assistant/internal/observability"
)

// AnswerHandler handles query resolution requests.
type AnswerHandler struct {
	logger *observability.Logger
	chat   *chat.Service
}

// NewAnswerHandler creates a new answer handler.
func NewAnswerHandler(logger *observability.Logger, chat *chat.Service) *AnswerHandler {
	return &AnswerHandler{logger: logger, chat: chat}
}

// AnswerRequestDTO represents the API request for an answer.
type AnswerRequestDTO struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId,omitempty"`
}

// Answer handles POST /answer. An empty query is answered with the prompt text.
func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequestDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var sessionID uuid.UUID
	if id := strings.TrimSpace(req.SessionID); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid sessionId format", "")
			return
		}
		sessionID = parsed
	}

	reply, err := h.chat.Ask(r.Context(), sessionID, req.Query)
	if err != nil {
		h.logger.Error().Err(err).Msg("Answer failed")
		writeError(w, http.StatusInternalServerError, "failed to record conversation", err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, toAnswerDTO(reply)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
