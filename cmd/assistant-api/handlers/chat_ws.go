package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/healthdesk/assistant/internal/chat"
	"github.com/healthdesk/assistant/internal/observability"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// ChatMessage is an inbound WebSocket frame.
type ChatMessage struct {
	Text string `json:"text"`
}

// ChatErrorFrame is sent when a frame cannot be answered.
type ChatErrorFrame struct {
	Error string `json:"error"`
}

// ChatHandler serves the WebSocket chat. Each text frame is answered with an answer frame
// in the same session.
type ChatHandler struct {
	logger   *observability.Logger
	chat     *chat.Service
	upgrader websocket.Upgrader
}

// NewChatHandler creates a chat handler accepting connections from allowedOrigins
// ("*" allows any).
func NewChatHandler(logger *observability.Logger, chat *chat.Service, allowedOrigins []string) *ChatHandler {
	return &ChatHandler{
		logger: logger,
		chat:   chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Serve handles GET /chat/ws?sessionId=.
func (h *ChatHandler) Serve(w http.ResponseWriter, r *http.Request) {
	var sessionID uuid.UUID
	if id := strings.TrimSpace(r.URL.Query().Get("sessionId")); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid sessionId format", "")
			return
		}
		sessionID = parsed
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done)

	logger := h.logger.WithOperation("chat_ws")
	logger.Debug().Msg("Chat connection opened")

	for {
		var msg ChatMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("Chat connection closed unexpectedly")
			}
			return
		}

		reply, err := h.chat.Ask(r.Context(), sessionID, msg.Text)
		if err != nil {
			if werr := h.write(conn, ChatErrorFrame{Error: "failed to record conversation"}); werr != nil {
				return
			}
			continue
		}
		sessionID = reply.SessionID

		if err := h.write(conn, toAnswerDTO(reply)); err != nil {
			logger.Warn().Err(err).Msg("Chat write failed")
			return
		}
	}
}

// keepAlive pings the client until done is closed. WriteControl may be called
// concurrently with WriteJSON.
func (h *ChatHandler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					h.logger.Debug().Err(err).Msg("Chat ping failed")
				}
				return
			}
		case <-done:
			return
		}
	}
}

func (h *ChatHandler) write(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
