// Package observability provides structured logging and metrics for the assistant.
package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const defaultService = "health-assistant"

// Field names shared by every component so log queries line up.
const (
	FieldService   = "service"
	FieldSession   = "session_id"
	FieldOperation = "operation"
	FieldTraceID   = "trace_id"
)

// LogConfig holds logger configuration.
type LogConfig struct {
	Level       string
	Format      string // json or console
	Output      io.Writer
	ServiceName string
}

// Logger is a zerolog logger bound to the assistant's common fields. Events are plain
// zerolog events; a disabled level yields a nil event, which zerolog treats as a no-op.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a new Logger with the given configuration.
func NewLogger(cfg LogConfig) *Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	service := cfg.ServiceName
	if service == "" {
		service = defaultService
	}

	zl := zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str(FieldService, service).
		Logger()

	return &Logger{zl: zl}
}

// NopLogger returns a logger that discards everything.
func NopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// Fatal starts a fatal event; Msg exits the process.
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

func (l *Logger) with(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// WithContext attaches the request trace ID carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := TraceIDFromContext(ctx); id != "" {
		return l.with(FieldTraceID, id)
	}
	return l
}

// WithSession attaches a conversation session ID.
func (l *Logger) WithSession(sessionID string) *Logger {
	return l.with(FieldSession, sessionID)
}

// WithOperation attaches the name of the running operation.
func (l *Logger) WithOperation(op string) *Logger {
	return l.with(FieldOperation, op)
}

// ParseLevel converts a level name to a zerolog.Level. Unknown or empty names give info.
func ParseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

type traceKey struct{}

// ContextWithTraceID returns a copy of ctx carrying traceID.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFromContext returns the trace ID stored by ContextWithTraceID, or "".
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
