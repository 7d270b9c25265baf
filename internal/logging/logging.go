// Package logging builds the structured loggers handed to consoles and the
// executor.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Formats understood by New.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Options configures a logger.
type Options struct {
	// Level is debug, info, warn or error (default: info).
	Level string

	// Format is text, json or logfmt (default: text).
	Format string

	// Writer receives log records (default: os.Stderr).
	Writer io.Writer
}

// New creates a logger from opts.
func New(opts Options) (*log.Logger, error) {
	level := log.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		var err error
		if level, err = log.ParseLevel(strings.ToLower(s)); err != nil {
			return nil, fmt.Errorf("invalid log level %q", opts.Level)
		}
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", FormatText:
		logger.SetFormatter(log.TextFormatter)
	case FormatJSON:
		logger.SetFormatter(log.JSONFormatter)
	case FormatLogfmt:
		logger.SetFormatter(log.LogfmtFormatter)
	default:
		return nil, fmt.Errorf("invalid log format %q (must be text, json or logfmt)", opts.Format)
	}

	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
