package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/healthdesk/assistant/internal/observability"
	"github.com/healthdesk/assistant/internal/storage"
)

// SessionHandler serves stored conversation history. With a nil repository every
// endpoint responds 503.
type SessionHandler struct {
	logger   *observability.Logger
	history  *storage.HistoryRepository
	exporter *storage.Exporter
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(logger *observability.Logger, history *storage.HistoryRepository) *SessionHandler {
	h := &SessionHandler{logger: logger, history: history}
	if history != nil {
		h.exporter = storage.NewExporter(history)
	}
	return h
}

// List handles GET /sessions?limit=N.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", "")
			return
		}
		limit = n
	}

	sessions, err := h.history.ListSessions(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("List sessions failed")
		writeError(w, http.StatusInternalServerError, "failed to list sessions", err.Error())
		return
	}

	_ = writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// Turns handles GET /sessions/{sessionId}/turns.
func (h *SessionHandler) Turns(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	turns, err := h.history.ListBySession(r.Context(), id)
	if err != nil {
		h.storageError(w, err, "failed to list turns")
		return
	}

	_ = writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": id,
		"turns":     turns,
	})
}

// Delete handles DELETE /sessions/{sessionId}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.history.DeleteSession(r.Context(), id); err != nil {
		h.storageError(w, err, "failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /sessions/{sessionId}/export?format=json|csv.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	format, err := storage.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	// Probe first so a missing session still gets a JSON error body.
	if _, err := h.history.ListBySession(r.Context(), id); err != nil {
		h.storageError(w, err, "failed to export session")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=\"session-"+id.String()+"."+string(format)+"\"")
	if err := h.exporter.Export(r.Context(), w, id, format); err != nil {
		h.logger.Error().Err(err).Str("session_id", id.String()).Msg("Export failed")
	}
}

func (h *SessionHandler) available(w http.ResponseWriter) bool {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "conversation history is disabled", "")
		return false
	}
	return true
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if !h.available(w) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id", "")
		return uuid.Nil, false
	}
	return id, true
}

func (h *SessionHandler) storageError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found", "")
		return
	}
	h.logger.Error().Err(err).Msg(message)
	writeError(w, http.StatusInternalServerError, message, err.Error())
}
