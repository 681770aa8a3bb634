// Package logging builds the zerolog logger regctl hands to its libraries.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Config controls logger construction.
type Config struct {
	Level  string    // "trace", "debug", "info", "warn", "error", "disabled"
	Format string    // "json", "console", or "auto"
	Writer io.Writer // defaults to os.Stderr
}

var isTerminalFn = term.IsTerminal

// New returns a logger writing to cfg.Writer. "auto" picks the console
// writer when the destination is a terminal and JSON otherwise.
func New(cfg Config) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	out := cfg.Writer
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "console":
		w = newConsoleWriter(out)
	case "json":
		w = out
	case "auto", "":
		if isTerminal(out) {
			w = newConsoleWriter(out)
		} else {
			w = out
		}
	default:
		return zerolog.Nop(), fmt.Errorf("logging: invalid format %q", cfg.Format)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// ParseLevel maps a level name onto zerolog's levels. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("logging: invalid level %q", level)
	}
}

func newConsoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isTerminalFn(int(f.Fd()))
}
