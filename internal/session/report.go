package session

import (
	"errors"

	"github.com/maloquacious/soltool/internal/logger"
	"github.com/maloquacious/soltool/internal/solution"
	"github.com/maloquacious/soltool/internal/store"
)

// LogReporter writes outcomes to a logger.
type LogReporter struct {
	log logger.Logger
}

// NewLogReporter creates a LogReporter.
func NewLogReporter(log logger.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) Written(path string, counts store.Counts) {
	r.log.Info("%03d records written to itemtype enumeration table...", counts.ItemTypes)
	r.log.Info("%03d records written to solution data table...", counts.Items)
	r.log.Info("saved %q", path)
}

func (r *LogReporter) Loaded(path string, counts store.Counts) {
	r.log.Info("loaded %q: %d item types, %d items", path, counts.ItemTypes, counts.Items)
}

func (r *LogReporter) Failed(op, path string, err error) {
	r.log.Error("%s %q: %s", op, path, Message(err))
}

// Message returns a human readable description of err.
func Message(err error) string {
	var e *solution.Error
	if !errors.As(err, &e) {
		return "an error occurred: " + err.Error()
	}
	switch e.Kind {
	case solution.ConnectionFailure:
		return "cannot open database connection: " + err.Error()
	case solution.IncompatibleSchema:
		return "cannot open file: itemtype enumeration is not consistent: " + err.Error()
	case solution.UnknownItemType:
		return "solution contains an unknown item type: " + err.Error()
	}
	return "an error occurred: " + err.Error()
}
