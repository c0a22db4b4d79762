package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pscheid92/suggestbox/internal/platform/correlation"
	"github.com/pscheid92/suggestbox/internal/platform/version"
)

// InitLogger installs the process-wide slog default and returns it.
// level: "debug", "info", "warn", "error" (anything else means info)
// format: "json" or "text" (anything else means text)
func InitLogger(level, format string) *slog.Logger {
	logger := New(os.Stdout, level, format)
	slog.SetDefault(logger)
	return logger
}

// New builds a correlation-aware logger writing to w, tagged with the build version.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(correlation.NewHandler(handler)).With("version", version.Version)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
