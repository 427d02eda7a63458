package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls how Setup wires up the engine's logger. Unlike the
// package's default-path helpers in an ambient CLI, memoria always resolves
// FilePath explicitly from config.Config.LogFilePath before calling Setup,
// so there is no notion of a package-level default location here.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the log file to write to.
	FilePath string
	// MaxSizeMB is the maximum size in MB before rotation.
	MaxSizeMB int
	// MaxFiles is the maximum number of rotated files to keep.
	MaxFiles int
	// WriteToStderr additionally mirrors every log line to stderr.
	WriteToStderr bool
}

// Setup builds a JSON slog.Logger backed by a rotating file writer (and
// optionally stderr), per cfg. The returned cleanup function flushes and
// closes the log file; callers must invoke it exactly once when done.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = writer
	if cfg.WriteToStderr {
		output = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	logger := slog.New(handler)

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}

	return logger, cleanup, nil
}

// parseLevel converts a config string to a slog.Level, defaulting to info
// for anything unrecognized.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
