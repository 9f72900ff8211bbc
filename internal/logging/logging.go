package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the log file name inside the log directory.
const FileName = "ragindex.log"

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the log file. Empty disables file logging.
	FilePath string
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int
	// MaxFiles is how many rotated files are kept.
	MaxFiles int
	// WriteToStderr mirrors records to stderr.
	WriteToStderr bool
}

// DefaultConfig logs at info level into dataDir/logs, file only.
// Progress output owns the terminal during indexing.
func DefaultConfig(dataDir string) Config {
	return Config{
		Level:     "info",
		FilePath:  LogPath(dataDir),
		MaxSizeMB: 10,
		MaxFiles:  3,
	}
}

// DebugConfig returns configuration for --debug.
func DebugConfig(dataDir string) Config {
	cfg := DefaultConfig(dataDir)
	cfg.Level = "debug"
	cfg.WriteToStderr = true
	return cfg
}

// LogPath returns the log file location for a data directory.
func LogPath(dataDir string) string {
	return filepath.Join(dataDir, "logs", FileName)
}

// Setup builds a JSON slog.Logger from cfg. The returned cleanup closes the
// log file and must be called before exit.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	var writers []io.Writer
	cleanup := func() {}

	if cfg.FilePath != "" {
		rw, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, rw)
		cleanup = func() {
			_ = rw.Sync()
			_ = rw.Close()
		}
	}
	if cfg.WriteToStderr {
		writers = append(writers, os.Stderr)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: ParseLevel(cfg.Level)})
	return slog.New(handler), cleanup, nil
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
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
