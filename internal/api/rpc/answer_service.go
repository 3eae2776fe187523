// Package rpc provides Connect service implementations for the assistant.
package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/healthdesk/assistant/internal/chat"
	"github.com/healthdesk/assistant/internal/observability"
)

const (
	// AnswerServiceName is the fully-qualified name of the answer service.
	AnswerServiceName = "assistant.v1.AnswerService"
	// AnswerProcedure is the path of the Answer RPC.
	AnswerProcedure = "/" + AnswerServiceName + "/Answer"
)

// AnswerService implements the Connect answer service.
type AnswerService struct {
	logger *observability.Logger
	chat   *chat.Service
}

// NewAnswerService creates a new answer service.
func NewAnswerService(logger *observability.Logger, chat *chat.Service) *AnswerService {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &AnswerService{logger: logger, chat: chat}
}

// AnswerRequest is the Answer request message.
type AnswerRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// AnswerResponse is the Answer response message.
type AnswerResponse struct {
	Text       string   `json:"text"`
	Anchors    []string `json:"anchors"`
	Confidence *float64 `json:"confidence,omitempty"`
	Stage      string   `json:"stage"`
	MatchedKey string   `json:"matched_key,omitempty"`
	Specialty  string   `json:"specialty,omitempty"`
	Hedged     bool     `json:"hedged,omitempty"`
	SessionID  string   `json:"session_id,omitempty"`
}

// Answer resolves a query, recording it when history is enabled.
func (s *AnswerService) Answer(ctx context.Context, req *connect.Request[AnswerRequest]) (*connect.Response[AnswerResponse], error) {
	msg := req.Msg

	var sessionID uuid.UUID
	if id := strings.TrimSpace(msg.SessionID); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("invalid session_id format"))
		}
		sessionID = parsed
	}

	reply, err := s.chat.Ask(ctx, sessionID, msg.Query)
	if err != nil {
		s.logger.Error().Err(err).Msg("Answer failed")
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(toAnswerResponse(reply)), nil
}

func toAnswerResponse(reply chat.Reply) *AnswerResponse {
	resp := AnswerResponse(reply.View())
	return &resp
}

// NewAnswerServiceHandler returns the mount path and handler for svc.
func NewAnswerServiceHandler(svc *AnswerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(AnswerProcedure, connect.NewUnaryHandler(AnswerProcedure, svc.Answer, opts...))
	return "/" + AnswerServiceName + "/", mux
}

// NewAnswerClient returns a Connect client for the Answer RPC at baseURL.
func NewAnswerClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *connect.Client[AnswerRequest, AnswerResponse] {
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return connect.NewClient[AnswerRequest, AnswerResponse](
		httpClient,
		strings.TrimRight(baseURL, "/")+AnswerProcedure,
		opts...,
	)
}
