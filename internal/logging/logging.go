// Package logging builds the process logger from the server configuration.
package logging

import (
	"io"
	"os"
	"time"

	"passui/internal/config"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// New returns a logger writing to stdout and, when log_path is set, appending
// to that file. The returned writer is meant for gin.DefaultWriter and the
// closer releases the log file.
func New(cfg config.Server) (zerolog.Logger, io.Writer, io.Closer, error) {
	level := zerolog.InfoLevel
	if cfg.LogLevel != "" {
		l, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return zerolog.Nop(), nil, nil, errors.Wrap(err, "invalid log level")
		}
		level = l
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	var closer io.Closer = nopCloser{}

	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), nil, nil, errors.Wrap(err, "failed to open log file")
		}
		out = zerolog.MultiLevelWriter(out, f)
		closer = f
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "passui").
		Logger()

	return logger, out, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
