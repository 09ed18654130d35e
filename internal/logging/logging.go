// Package logging builds mercury's root slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"github.com/flemzord/mercury/internal/config"
	"github.com/flemzord/mercury/internal/security"
)

// Environment overrides, applied on top of the config file.
const (
	EnvFormat = "MERCURY_LOG_FORMAT"
	EnvLevel  = "MERCURY_LOG_LEVEL"
)

const (
	defaultFormat = "text"
	defaultLevel  = "info"
)

// New returns a logger writing to stderr. A non-nil redactor masks secrets
// before they reach the output.
func New(cfg config.LoggingConfig, redactor *security.Redactor) (*slog.Logger, error) {
	return NewWithWriter(cfg, redactor, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LoggingConfig, redactor *security.Redactor, w io.Writer) (*slog.Logger, error) {
	format := envOr(EnvFormat, cfg.Format, defaultFormat)
	level, err := ParseLevel(envOr(EnvLevel, cfg.Level, defaultLevel))
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel(level),
			ReportTimestamp: true,
			ReportCaller:    cfg.AddSource,
			Formatter:       charmlog.TextFormatter,
		})
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: cfg.AddSource,
		})
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", format)
	}

	if redactor != nil {
		handler = security.NewRedactingHandler(handler, redactor)
	}
	return slog.New(handler), nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unsupported level %q", s)
	}
}

func charmLevel(level slog.Level) charmlog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmlog.DebugLevel
	case level <= slog.LevelInfo:
		return charmlog.InfoLevel
	case level <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}

func envOr(key, configured, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return strings.ToLower(v)
	}
	if v := strings.TrimSpace(configured); v != "" {
		return strings.ToLower(v)
	}
	return fallback
}
