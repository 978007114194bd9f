// Package logging provides a zerolog-backed implementation of harvest.Logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

// Logger is a thin wrapper around zerolog.Logger that satisfies harvest.Logger.
type Logger struct {
	zerolog.Logger
}

var _ harvest.Logger = (*Logger)(nil)

// New returns a JSON logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) *Logger {
	logger := zerolog.New(w).Level(level).With().
		Str("component", "harvest").
		Timestamp().
		Logger()

	return &Logger{logger}
}

// NewConsole returns a human-readable logger on stderr, used by the CLI.
// Debug output is enabled when verbose is set.
func NewConsole(verbose bool) *Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}, level)
}

// Nop returns a *Logger that discards all log output.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// Debug implements harvest.Logger.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.Logger.Debug().Fields(fields).Msg(msg)
}

// Info implements harvest.Logger.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.Logger.Info().Fields(fields).Msg(msg)
}

// Warn implements harvest.Logger.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.Logger.Warn().Fields(fields).Msg(msg)
}

// Error implements harvest.Logger.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.Logger.Error().Fields(fields).Msg(msg)
}
