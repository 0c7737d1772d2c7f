package util

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// SetCliLoggerDefaults routes the global logger through a console writer on stderr.
// stdout is reserved for command output (tables, json, yaml).
func SetCliLoggerDefaults() {
	SetLoggerOutput(os.Stderr)
}

func SetLoggerOutput(w io.Writer) {
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.000Z"
	log.Logger = log.Logger.Output(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    false,
		TimeFormat: time.RFC3339,
	}).With().Logger()
}

func SetCliLogLevel(c *cli.Command) {
	zerolog.SetGlobalLevel(LogLevel(c.Bool("verbose"), c.Bool("very-verbose")))
}

// LogLevel maps the verbosity flags to a zerolog level.
func LogLevel(verbose, veryVerbose bool) zerolog.Level {
	if veryVerbose {
		return zerolog.TraceLevel
	} else if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
