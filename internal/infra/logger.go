package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs the service logger: JSON at info level in production,
// a console writer at debug level in development.
func NewLogger(appEnv string) zerolog.Logger {
	return NewLoggerTo(os.Stdout, appEnv)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(w io.Writer, appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: w != os.Stdout}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "qrbatch").
		Logger()
}

// Logger aliases zerolog.Logger for packages that only pass it through.
type Logger = zerolog.Logger
