package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	JSONFormat = "json"

	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

type Logger struct {
	zerolog.Logger
}

func New(level, format string) Logger {
	return NewWithWriter(level, format, os.Stdout)
}

func NewWithWriter(level, format string, w io.Writer) Logger {
	var lvl zerolog.Level
	switch strings.ToLower(level) {
	case LevelDebug:
		lvl = zerolog.DebugLevel
	case LevelWarn, "warning":
		lvl = zerolog.WarnLevel
	case LevelError:
		lvl = zerolog.ErrorLevel
	default:
		lvl = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	if strings.ToLower(format) == JSONFormat {
		zl = zerolog.New(w)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}

	return Logger{Logger: zl.Level(lvl).With().Timestamp().Logger()}
}

// Named agrega el campo "component" a cada entrada.
func (l Logger) Named(component string) Logger {
	return Logger{Logger: l.With().Str("component", component).Logger()}
}

// NewTestLogger descarta toda la salida.
func NewTestLogger() Logger {
	return Logger{Logger: zerolog.Nop()}
}
