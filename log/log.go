// Package log provides the logrus logger used by probeview components.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv is the environment variable that enables debug logging.
const DebugEnv = "PROBEVIEW_DEBUG"

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance. Debug level is set if
// PROBEVIEW_DEBUG environment variable is true.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// WithComponent returns an entry that tags every record with the component
// name and its id.
func WithComponent(l *logrus.Logger, component, id string) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"component": component,
		"id":        id,
	})
}
