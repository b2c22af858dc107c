package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger. A configured log_file gets a rotating
// writer; otherwise SILLAGE_LOG=1 sends records to stderr, and logging is
// discarded when neither is set. The returned closer must be closed on exit.
func NewLogger(c Config) (*slog.Logger, io.Closer) {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if c.LogFile != "" {
		w := &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
			Compress:   true,
		}
		return slog.New(slog.NewJSONHandler(w, opts)), w
	}
	if on, _ := strconv.ParseBool(os.Getenv(EnvLogStderr)); on {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nopCloser{}
	}
	return slog.New(slog.NewTextHandler(io.Discard, opts)), nopCloser{}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
