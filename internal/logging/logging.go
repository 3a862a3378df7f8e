// Package logging configures zerolog for the CLI.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/loopsim/internal/loop"
)

// Setup creates a logger writing to w. format "text" selects the console
// writer, anything else emits JSON lines.
func Setup(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
		}
		lvl = parsed
	}

	out := w
	if strings.EqualFold(format, "text") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(lvl), nil
}

// SampleLogger traces every n-th sample of a run at debug level.
func SampleLogger(logger zerolog.Logger, every int) loop.Observer {
	if every < 1 {
		every = 1
	}
	return loop.ObserverFunc(func(s loop.Sample) {
		if s.Index%every != 0 {
			return
		}
		logger.Debug().
			Int("index", s.Index).
			Float64("t", s.Time).
			Float64("reference", s.Reference).
			Float64("control", s.Control).
			Float64("response", s.Response).
			Bool("saturated", s.Raw != s.Control).
			Msg("sample")
	})
}
