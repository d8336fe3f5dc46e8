// Package logging builds the zerolog logger shared by the command and its
// components.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config level name to a zerolog level. Unknown names
// fall back to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(name) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "DISABLED", "OFF":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Options selects the logger output.
type Options struct {
	Level   string
	JSON    bool // raw JSON lines instead of console format
	NoColor bool
	File    io.Writer // optional second sink, written without colors
}

// New creates a logger writing to w. The level is applied to the logger
// rather than globally so tests can run loggers side by side.
func New(w io.Writer, opts Options) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var out io.Writer = w
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: opts.NoColor}
	}
	if opts.File != nil {
		out = zerolog.MultiLevelWriter(out, zerolog.ConsoleWriter{
			Out:        opts.File,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}
	return zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
}
