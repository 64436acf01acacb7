// Package logging wires up the process-wide zerolog logger the same way
// the teacher's main.go does: a console writer when attached to a TTY,
// structured JSON otherwise, level taken from an environment variable or
// an explicit override.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. levelOverride wins over the
// LOG_LEVEL environment variable when non-empty.
func Init(levelOverride string) {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.FormatLevel = func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		}
		log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	level := levelOverride
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}

	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
