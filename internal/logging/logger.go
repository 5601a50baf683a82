package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// Setup installs JSON-to-stdout as the default logger, fanned out to any
// extra sinks.
func Setup(level slog.Level, sinks ...slog.Handler) {
	stdout := NewJSONHandler(os.Stdout, level)
	if len(sinks) == 0 {
		slog.SetDefault(slog.New(stdout))
		return
	}
	slog.SetDefault(slog.New(NewMultiHandler(append([]slog.Handler{stdout}, sinks...)...)))
}
