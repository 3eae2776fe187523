package storage

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"sessionId"`
	Position   int       `json:"position"`
	Role       Role      `json:"role"`
	Text       string    `json:"text"`
	Anchors    []string  `json:"anchors"`
	Confidence *float64  `json:"confidence,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SessionSummary describes a stored conversation.
type SessionSummary struct {
	ID        uuid.UUID `json:"id"`
	TurnCount int       `json:"turnCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserTurn builds the turn recording a user's query.
func UserTurn(sessionID uuid.UUID, text string) *Turn {
	return &Turn{SessionID: sessionID, Role: RoleUser, Text: text, Anchors: []string{}}
}

// AssistantTurn builds the turn recording an answer.
func AssistantTurn(sessionID uuid.UUID, text string, anchors []string, confidence *float64, stage string) *Turn {
	if anchors == nil {
		anchors = []string{}
	}
	return &Turn{
		SessionID:  sessionID,
		Role:       RoleAssistant,
		Text:       text,
		Anchors:    anchors,
		Confidence: confidence,
		Stage:      stage,
	}
}
