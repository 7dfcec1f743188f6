package shared

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lox/fairdeal/internal/config"
)

// SetupLogger builds a logger from the log settings. Output goes to the
// configured file, or to fallback when no file is set. The returned closer
// releases the file and is never nil.
func SetupLogger(settings *config.LogSettings, debug bool, fallback io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(settings.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("log level: %w", err)
	}
	if debug {
		level = zerolog.DebugLevel
	}

	out := fallback
	var closer io.Closer = nopCloser{}
	if settings.File != "" {
		f, err := os.OpenFile(settings.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	if settings.Format == "json" {
		zerolog.TimeFieldFormat = time.RFC3339Nano
	} else {
		out = zerolog.ConsoleWriter{Out: out, NoColor: settings.File != ""}
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
