package utils

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger provides leveled, printf-style logging throughout the application.
// Output goes to stderr so stdout stays free for the run's one-line result.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a Logger writing human readable lines to stderr.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stderr)
}

// NewLoggerTo creates a Logger writing to w at Info level.
func NewLoggerTo(w io.Writer) *Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    w != os.Stderr,
	}
	return &Logger{
		zl: zerolog.New(out).Level(zerolog.InfoLevel).With().Timestamp().Logger(),
	}
}

// NewDiscardLogger returns a Logger that drops everything.
func NewDiscardLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// SetVerbose raises the level to Debug for any verbosity above zero.
func (l *Logger) SetVerbose(level int) {
	if level > 0 {
		l.zl = l.zl.Level(zerolog.DebugLevel)
		l.Debug("Verbose logging enabled")
		return
	}
	l.zl = l.zl.Level(zerolog.InfoLevel)
}

func (l *Logger) Info(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}
