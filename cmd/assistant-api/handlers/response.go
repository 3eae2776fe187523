// Package handlers provides HTTP handlers for the assistant API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/healthdesk/assistant/internal/chat"
)

const maxBodyBytes = 64 << 10

// AnswerResponseDTO is the API form of an answer.
type AnswerResponseDTO struct {
	Text       string   `json:"text"`
	Anchors    []string `json:"anchors"`
	Confidence *float64 `json:"confidence,omitempty"`
	Stage      string   `json:"stage"`
	MatchedKey string   `json:"matchedKey,omitempty"`
	Specialty  string   `json:"specialty,omitempty"`
	Hedged     bool     `json:"hedged,omitempty"`
	SessionID  string   `json:"sessionId,omitempty"`
}

func toAnswerDTO(reply chat.Reply) AnswerResponseDTO {
	return AnswerResponseDTO(reply.View())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	_ = writeJSON(w, status, resp)
}
