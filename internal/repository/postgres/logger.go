package postgres

import (
	"context"
	"log/slog"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v4"
)

// Logger adapts a *slog.Logger to pgx.Logger.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger.With("component", "pgx")}
}

func (pl *Logger) Log(ctx context.Context, level pgx.LogLevel, msg string, data map[string]interface{}) {
	attrs := make([]any, 0, len(data)+2)
	if id := chimw.GetReqID(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	for k, v := range data {
		attrs = append(attrs, k, v)
	}

	switch level {
	case pgx.LogLevelTrace:
		pl.logger.DebugContext(ctx, msg, append(attrs, "PGX_LOG_LEVEL", level.String())...)
	case pgx.LogLevelDebug:
		pl.logger.DebugContext(ctx, msg, attrs...)
	case pgx.LogLevelInfo:
		// pgx logs every query at info; that is debug noise for the board.
		pl.logger.DebugContext(ctx, msg, attrs...)
	case pgx.LogLevelWarn:
		pl.logger.WarnContext(ctx, msg, attrs...)
	case pgx.LogLevelError:
		pl.logger.ErrorContext(ctx, msg, attrs...)
	default:
		pl.logger.ErrorContext(ctx, msg, append(attrs, "PGX_LOG_LEVEL", level.String())...)
	}
}
