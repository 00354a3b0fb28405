// Package log provides JSON-lines structured logging for the rfmseg pipeline.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelInfo,
		Debug:  false,
	}
}

// New creates a new JSON-lines structured logger.
// Log format is one JSON object per line:
//
//	{"ts":"2026-01-15T10:30:00Z","level":"info","msg":"run finished","customers":4821,"k":4}
//
// Log levels:
//   - debug: Verbose per-stage detail (enabled via RFMSEG_DEBUG=1)
//   - info: Stage boundaries, run start/finish
//   - warn: Non-fatal issues (non-converged restarts)
//   - error: Fatal issues aborting the run
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Rename "time" to "ts" to keep log lines compact
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}

	handler := slog.NewJSONHandler(output, opts)
	return slog.New(handler)
}

// NewFromEnv creates a logger configured from environment variables.
// RFMSEG_DEBUG=1 enables debug logging.
func NewFromEnv() *slog.Logger {
	cfg := DefaultConfig()
	if os.Getenv("RFMSEG_DEBUG") == "1" {
		cfg.Debug = true
	}
	return New(cfg)
}

// ParseLevel maps a config log level string to a slog.Level.
// Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RunInfo holds information to log when an analysis run starts.
type RunInfo struct {
	RunID        string
	StatusFilter string
	K            int
	Restarts     int
	Seed         int64
	StorePath    string
}

// LogRunStart logs the parameters of an analysis run.
func LogRunStart(logger *slog.Logger, info RunInfo) {
	logger.Info("analysis run started",
		"run_id", info.RunID,
		"status_filter", info.StatusFilter,
		"k", info.K,
		"restarts", info.Restarts,
		"seed", info.Seed,
		"store_path", info.StorePath,
	)
}
