package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/healthdesk/assistant/cmd/assistant-api/handlers"
	"github.com/healthdesk/assistant/cmd/assistant-api/middleware"
	"github.com/healthdesk/assistant/internal/api/rpc"
	"github.com/healthdesk/assistant/internal/chat"
	"github.com/healthdesk/assistant/internal/locator"
	"github.com/healthdesk/assistant/internal/observability"
	"github.com/healthdesk/assistant/internal/storage"
)

// Pinger reports dependency readiness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig holds the router's dependencies and settings.
type RouterConfig struct {
	Logger         *observability.Logger
	Chat           *chat.Service
	History        *storage.HistoryRepository
	Locator        *locator.Locator
	DB             Pinger
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// NewRouter creates the main API router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	answerHandler := handlers.NewAnswerHandler(logger, cfg.Chat)
	sessionHandler := handlers.NewSessionHandler(logger, cfg.History)
	pharmacyHandler := handlers.NewPharmacyHandler(logger, cfg.Locator)
	chatHandler := handlers.NewChatHandler(logger, cfg.Chat, cfg.AllowedOrigins)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "healthy", "service": "health-assistant"})
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if cfg.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.DB.PingContext(ctx); err != nil {
				logger.Warn().Err(err).Msg("Readiness check failed")
				writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
				return
			}
		}
		writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	// Long-lived connections stay outside the request timeout.
	r.Get("/api/v1/chat/ws", chatHandler.Serve)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/answer", answerHandler.Answer)

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", sessionHandler.List)
				r.Route("/{sessionId}", func(r chi.Router) {
					r.Get("/turns", sessionHandler.Turns)
					r.Get("/export", sessionHandler.Export)
					r.Delete("/", sessionHandler.Delete)
				})
			})

			r.Get("/pharmacies/nearby", pharmacyHandler.Nearby)
		})

		path, handler := rpc.NewAnswerServiceHandler(rpc.NewAnswerService(logger, cfg.Chat))
		r.Mount(path, handler)
	})

	return r
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
