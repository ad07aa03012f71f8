package bfs

import (
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured-logging type used for every boundary-event
// diagnostic this package emits (spec.md §7's non-panicking diagnostics:
// affinity widened on hotplug, schedule_bug).
// It is never called from the hot dispatch/selection paths.
//
// stumpy is logiface's own "model" JSON backend (see its doc comment).
// The alias is the real logiface.Logger type specialised to stumpy's event
// type, so any stumpy-backed logiface logger can be supplied; a backend
// with a different event type (zerolog, logrus, slog) does not fit it.
type Logger = logiface.Logger[*stumpy.Event]

var globalLogger struct {
	sync.RWMutex
	logger *Logger
}

// NewDefaultLogger builds a stumpy-backed JSON logger writing to os.Stderr
// at the given level.
func NewDefaultLogger(level logiface.Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(level),
	)
}

func init() {
	globalLogger.logger = NewDefaultLogger(logiface.LevelInformational)
}

// SetLogger installs the package-wide default logger used by [Scheduler]
// instances that weren't given one explicitly via [WithLogger].
func SetLogger(l *Logger) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	if l == nil {
		l = NewDefaultLogger(logiface.LevelInformational)
	}
	globalLogger.logger = l
}

func defaultLogger() *Logger {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}
