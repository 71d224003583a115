package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// New builds the process logger.  Interactive terminals get colorized tint
// output, everything else gets JSON for log shippers.  The level is taken
// from the LOG_LEVEL environment variable and defaults to INFO.
func New() *slog.Logger {
	return NewWithLevel(LevelFromEnv())
}

func NewWithLevel(level slog.Level) *slog.Logger {
	w := os.Stderr

	var h slog.Handler
	if isatty.IsTerminal(w.Fd()) {
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(h)
}

func LevelFromEnv() slog.Level {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
