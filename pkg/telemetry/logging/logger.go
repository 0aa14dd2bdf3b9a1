package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"bastion-hq/bastion/pkg/config"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs one JSON object per line.
	FormatJSON LogFormat = "json"
	// FormatText outputs logfmt-style key=value lines.
	FormatText LogFormat = "text"
	// FormatConsole is text without timestamps, for interactive use.
	FormatConsole LogFormat = "console"
)

// New builds a logger from configuration. Output goes to w, or os.Stderr
// when w is nil, so that command output on stdout stays clean.
//
// Attributes whose key names a secret are always masked. With
// cfg.RedactPayloads, payload-derived attributes (value, payload, message)
// are also passed through the redactor, since rule violation messages quote
// the offending value.
func New(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}

	redactor := NewRedactor(cfg.RedactPayloads)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if format == FormatConsole && len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return redactor.ReplaceAttr(groups, a)
		},
	}

	var handler slog.Handler
	switch format {
	case FormatText, FormatConsole:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(NewContextHandler(handler)), nil
}

// ParseLevel parses a log level name. The empty string means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

// ParseFormat parses a log format name. The empty string means JSON.
func ParseFormat(format string) (LogFormat, error) {
	switch strings.ToLower(format) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "console":
		return FormatConsole, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", format)
	}
}
