// Package logger is a small facade over zerolog shared by every package in
// the pipeline.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	log = newLogger(os.Stderr, false)
}

// Init configures the global logger. With debug enabled the level drops to
// Debug and output is human-readable console format.
func Init(debug bool) {
	log = newLogger(os.Stderr, debug)
}

// SetOutput redirects log output. Useful for tests.
func SetOutput(w io.Writer) {
	log = log.Output(w)
}

func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Debug logs a debug message.
func Debug(format string, v ...any) {
	log.Debug().Msg(fmt.Sprintf(format, v...))
}

// Info logs an info message.
func Info(format string, v ...any) {
	log.Info().Msg(fmt.Sprintf(format, v...))
}

// Warn logs a warning message.
func Warn(format string, v ...any) {
	log.Warn().Msg(fmt.Sprintf(format, v...))
}

// Error logs an error message.
func Error(format string, v ...any) {
	log.Error().Msg(fmt.Sprintf(format, v...))
}

// IsDebugEnabled reports whether debug logging is enabled.
func IsDebugEnabled() bool {
	return log.GetLevel() <= zerolog.DebugLevel
}
