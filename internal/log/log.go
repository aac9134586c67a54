// Package log provides structured, colored logging for the wallet.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the root logger. Component loggers derive from it.
var Logger zerolog.Logger

// Component loggers.
var (
	Wallet  zerolog.Logger
	Chronik zerolog.Logger
	Storage zerolog.Logger
	CLI     zerolog.Logger
)

const consoleTimeFormat = "15:04:05"

func init() {
	// stderr keeps command output on stdout clean.
	Logger = newLogger(consoleWriter(os.Stderr, false), "info")
	initComponentLoggers()
}

// Init configures the root logger and rebuilds the component loggers.
// Console output goes to stderr, colored unless jsonOutput is set. A
// non-empty file additionally receives every line as JSON.
func Init(level string, jsonOutput bool, file string) error {
	out := consoleWriter(os.Stderr, jsonOutput)
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, f)
	}
	Logger = newLogger(out, level)
	initComponentLoggers()
	return nil
}

// SetOutput sends all loggers to w as JSON at level. Tests use it to
// capture or silence output.
func SetOutput(w io.Writer, level string) {
	Logger = newLogger(w, level)
	initComponentLoggers()
}

// WithComponent returns a child of Logger tagged with a component name.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func consoleWriter(w io.Writer, jsonOutput bool) io.Writer {
	if jsonOutput {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

// parseLevel maps a config level name to zerolog. Unknown names fall back
// to info; config validation rejects them earlier.
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func initComponentLoggers() {
	Wallet = WithComponent("wallet")
	Chronik = WithComponent("chronik")
	Storage = WithComponent("storage")
	CLI = WithComponent("cli")
}
