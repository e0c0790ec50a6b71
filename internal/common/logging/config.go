package logging

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// ConfigureLogging sends the standard logger to stderr. Terminals get bare command line messages; anything
// else (pipes, CI logs) gets timestamped text lines.
func ConfigureLogging() {
	log.SetOutput(os.Stderr)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetFormatter(new(CommandLineFormatter))
		return
	}
	log.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
}

// ConfigureLogLevel sets the level of the standard logger, e.g. "debug" or "warn".
// An empty level leaves the current level untouched.
func ConfigureLogLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.WithStack(err)
	}
	log.SetLevel(lvl)
	return nil
}
