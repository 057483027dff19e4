// Package logx owns the process-wide zerolog logger. Components log through
// the zerolog/log global; Init is called once at startup, normally via the
// autoload subpackage.
package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
}

// Init replaces the global logger: JSON to stdout at info level unless the
// config asks for console output or debug.
func Init(cfg Config) {
	var writer io.Writer = os.Stdout
	if cfg.PrettyFormat {
		writer = zerolog.NewConsoleWriter()
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Caller().
		Stack().
		Logger()
}
