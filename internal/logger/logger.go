package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vexeviet/seat-hold/internal/model"
)

// Logger wraps slog.Logger with seat-hold specific helpers.
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout.  APP_ENV=prod selects the
// JSON handler; anything else gets the text handler.  LOG_LEVEL picks
// the minimum level.
func New() *Logger {
	return NewWithWriter(os.Stdout, os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
}

// NewWithWriter builds a logger for an explicit writer, environment and level.
func NewWithWriter(w io.Writer, env, level string) *Logger {
	lvl := getLogLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(env, "prod") || strings.EqualFold(env, "production") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything.  Handy in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
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

// WithHold tags every record with the hold's identity.
func (l *Logger) WithHold(h model.Hold) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			slog.String("hold_id", h.HoldID),
			slog.String("route_id", h.RouteID),
			slog.String("departure_date", h.DepartureDate),
			slog.Time("expires_at", h.ExpiresAt),
		),
	}
}

// WithError adds err to logger context.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{Logger: l.Logger.With(slog.String("error", err.Error()))}
}

// WithFields adds multiple fields to logger context.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// LogRequest logs one completed backend call.
func (l *Logger) LogRequest(method, path string, status int, took time.Duration) {
	l.Logger.Debug("api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("duration", took),
	)
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(New())
}

// GetDefault returns the process-wide logger.
func GetDefault() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}
