package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB  = 10
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// Init installs the default slog logger. Logs go to stdout unless file is set,
// in which case they go to a rotated file.
func Init(level, format, file string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	var out io.Writer = os.Stdout
	var initErr error
	if path := strings.TrimSpace(file); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			initErr = err
		} else {
			out = &lumberjack.Logger{
				Filename:   path,
				MaxSize:    maxLogSizeMB,
				MaxBackups: maxLogBackups,
				MaxAge:     maxLogAgeDays,
				Compress:   true,
			}
		}
	}

	logger := slog.New(newHandler(format, out, opts))
	slog.SetDefault(logger)
	return logger, initErr
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

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}
