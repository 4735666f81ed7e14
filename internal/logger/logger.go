package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kataras/golog"
)

// Logger defines the soltool logging contract.
// Implementations should support standard log levels and be safe for concurrent use.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// GologLogger implements Logger on top of kataras/golog.
type GologLogger struct {
	logger *golog.Logger
}

// New creates a GologLogger writing to out at the given level
// ("debug", "info", "warn", "error" or "disable").
func New(out io.Writer, level string) (*GologLogger, error) {
	l := golog.New()
	l.SetOutput(out)
	l.SetTimeFormat("2006/01/02 15:04:05")
	g := &GologLogger{logger: l}
	if err := g.SetLevel(level); err != nil {
		return nil, err
	}
	return g, nil
}

// NewStdLogger creates a GologLogger writing info and above to stdout.
func NewStdLogger() *GologLogger {
	g, _ := New(os.Stdout, "info")
	return g
}

// SetLevel changes the minimum level that is written.
func (l *GologLogger) SetLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error", "disable":
		l.logger.SetLevel(strings.ToLower(level))
		return nil
	case "":
		l.logger.SetLevel("info")
		return nil
	}
	return fmt.Errorf("unknown log level %q", level)
}

func (l *GologLogger) Info(msg string, args ...any) {
	l.logger.Infof(msg, args...)
}

func (l *GologLogger) Warn(msg string, args ...any) {
	l.logger.Warnf(msg, args...)
}

func (l *GologLogger) Error(msg string, args ...any) {
	l.logger.Errorf(msg, args...)
}

func (l *GologLogger) Debug(msg string, args ...any) {
	l.logger.Debugf(msg, args...)
}

// Discard drops every message.
type Discard struct{}

func (Discard) Info(string, ...any)  {}
func (Discard) Warn(string, ...any)  {}
func (Discard) Error(string, ...any) {}
func (Discard) Debug(string, ...any) {}

// Default provides a global default logger instance.
var Default Logger = NewStdLogger()
