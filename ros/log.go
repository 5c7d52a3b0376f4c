package ros

import (
	modular "github.com/edwinhayes/logrus-modular"
	"github.com/sirupsen/logrus"
)

// Logger is the module-tagged logger type every entity, node and
// executor logs through.
type Logger = modular.ModuleLogger

// defaultLogger backs DefaultLogger.
var defaultLogger *logrus.Logger

// DefaultLogger returns the process-wide default logger.
func DefaultLogger() *logrus.Logger {
	if defaultLogger == nil {
		defaultLogger = logrus.StandardLogger()
	}
	return defaultLogger
}

// NewLogger returns a new, independently configured logger.
func NewLogger() *logrus.Logger {
	return logrus.New()
}

// NewDefaultLogger returns a module-tagged logger rooted at the default
// logger, the way every node, publisher session and executor tags its
// log lines with which component emitted them.
func NewDefaultLogger() modular.ModuleLogger {
	return modular.NewRootLogger(DefaultLogger()).GetModuleLogger()
}

// newComponentLogger tags a module logger with the kind/name of the
// entity emitting through it (e.g. "subscription", "/scan").
func newComponentLogger(base modular.ModuleLogger, kind, name string) modular.ModuleLogger {
	return base.WithFields(logrus.Fields{"kind": kind, "name": name}).GetModuleLogger()
}
