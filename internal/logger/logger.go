// Package logger configures the global zerolog logger from command line options.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a go-flags option group shared by every command.
type Logger struct {
	Level   string `long:"log-level"    env:"LOG_LEVEL"    description:"Log level"                          choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	Format  string `long:"log-format"   env:"LOG_FORMAT"   description:"Log output format"                  choice:"console" choice:"json" default:"console"`
	NoColor bool   `long:"log-no-color" env:"LOG_NO_COLOR" description:"Disable colors in console output"`
	Verbose []bool `short:"v" long:"verbose" description:"Lower the log level by one step, may be repeated"`
	Quiet   []bool `short:"q" long:"quiet"   description:"Raise the log level by one step, may be repeated"`
}

// EffectiveLevel returns the configured level shifted by -v and -q flags,
// clamped to trace..error.
func (l Logger) EffectiveLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || l.Level == "" {
		level = zerolog.InfoLevel
	}

	level += zerolog.Level(len(l.Quiet) - len(l.Verbose))
	if level < zerolog.TraceLevel {
		level = zerolog.TraceLevel
	}
	if level > zerolog.ErrorLevel {
		level = zerolog.ErrorLevel
	}
	return level
}

// New builds a logger writing to w in the configured format.
func (l Logger) New(w io.Writer) zerolog.Logger {
	if l.Format == "json" {
		return zerolog.New(w).With().Timestamp().Logger()
	}

	cw := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.DateTime,
		NoColor:    l.NoColor || !isTerminal(w),
	}
	return zerolog.New(cw).With().Timestamp().Logger()
}

// Setup installs the logger globally on stderr.
func (l Logger) Setup() {
	level := l.EffectiveLevel()
	zerolog.SetGlobalLevel(level)
	log.Logger = l.New(os.Stderr)

	log.Debug().
		Str("level", level.String()).
		Str("format", l.Format).
		Msg("Logger initialized")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
