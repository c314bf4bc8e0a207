// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// TimestampFormat adds millisecond precision to log timestamps
const TimestampFormat = "2006-01-02T15:04:05.999Z07:00"

// Setup sets the level and text formatter on the standard logger
func Setup(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	formatter := new(log.TextFormatter)
	formatter.TimestampFormat = TimestampFormat
	formatter.FullTimestamp = true
	log.SetFormatter(formatter)

	log.Debug("debug logging enabled")
	return nil
}

// SetOutput redirects the standard logger, for commands whose stdout carries data
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}
