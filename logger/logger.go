package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger in release mode and a console logger otherwise.
func New(level string, release bool) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, release)
}

func NewWithWriter(w io.Writer, level string, release bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if !release {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "chirp").Logger()
}
