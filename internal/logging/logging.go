// Package logging configures the process-wide logrus logger.
package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Setup sets the level and formatter. Unknown levels fall back to info.
func Setup(level string, json bool) {
	log.SetOutput(os.Stdout)
	if json {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info.", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
