package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxKeyTraceID ctxKey = "trace_id"
)

// basic global logger, JSON to stdout until Init is called.
var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

// Init replaces the global logger. The TUI owns the terminal, so it
// points this at a file.
func Init(w io.Writer, level string) {
	logger.Store(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
}

// ParseLevel maps a config string to a slog level, info by default.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Logger() *slog.Logger {
	return logger.Load()
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return Logger().With(kv...)
}

// WithTraceID stores a trace_id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKeyTraceID, traceID)
}

// NewTrace returns a context carrying a fresh trace_id.
func NewTrace(ctx context.Context) context.Context {
	return WithTraceID(ctx, uuid.NewString())
}

// TraceID returns the trace_id stored in ctx, if any.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyTraceID).(string)
	return id
}

// LoggerFromContext adds trace_id if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	traceID := TraceID(ctx)
	if traceID == "" {
		return Logger()
	}
	return Logger().With("trace_id", traceID)
}
