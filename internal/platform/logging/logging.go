package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process.
func Setup(environment string) zerolog.Logger {
	return SetupWithWriter(environment, nil)
}

// SetupWithWriter configures zerolog writing to w, or to stdout when w is nil.
// Development uses a console writer at debug level, everything else JSON at info.
func SetupWithWriter(environment string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if environment == "development" {
		level = zerolog.DebugLevel
	}

	if w == nil {
		w = os.Stdout
		if environment == "development" {
			w = zerolog.ConsoleWriter{Out: os.Stdout}
		}
	}

	logger := zerolog.New(w).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger
}
