package environment

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"usta-bot/internal/config"
)

func initLogger(cfg config.Config) (*slog.Logger, error) {
	return newLogger(os.Stdout, cfg), nil
}

// newLogger пишет текстом локально и JSON в остальных окружениях.
func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level := parseLogLevel(cfg.Logger.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(slog.String("app", "usta-bot"), slog.String("env", cfg.Env))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
