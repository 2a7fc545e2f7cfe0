package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type LoggerConfig struct {
	Level  string `yaml:"level"`
	IsJSON bool   `yaml:"is_json"`
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger installs the process-wide default logger.
func InitLogger(cfg *LoggerConfig, attrs ...slog.Attr) {
	InitLoggerTo(os.Stdout, cfg, attrs...)
}

// InitLoggerTo is InitLogger with an explicit destination, used by tests.
func InitLoggerTo(w io.Writer, cfg *LoggerConfig, attrs ...slog.Attr) {
	if cfg == nil {
		cfg = &LoggerConfig{}
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler
	if cfg.IsJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(h.WithAttrs(attrs)))
}
