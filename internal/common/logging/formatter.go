package logging

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// CommandLineFormatter writes bare messages for interactive use. Warnings and errors are prefixed with their
// level, and an attached error is appended to the message.
type CommandLineFormatter struct{}

func (f *CommandLineFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b strings.Builder
	if entry.Level <= log.WarnLevel {
		b.WriteString(strings.ToUpper(entry.Level.String()))
		b.WriteString(": ")
	}
	b.WriteString(entry.Message)
	if err, ok := entry.Data[log.ErrorKey].(error); ok {
		fmt.Fprintf(&b, ": %s", err)
	}
	b.WriteString("\n")
	return []byte(b.String()), nil
}

// Discard returns an entry whose output is thrown away.
func Discard() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(log.PanicLevel)
	return log.NewEntry(logger)
}
