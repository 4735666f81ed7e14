package solution

import (
	"errors"
	"fmt"
)

// Kind classifies persistence failures.
type Kind int

const (
	IOFailure          Kind = iota // generic read or write fault
	ConnectionFailure              // store cannot be opened or created
	IncompatibleSchema             // stored item type snapshot does not match the registry
	UnknownItemType                // an item carries an unregistered type code
)

func (k Kind) String() string {
	switch k {
	case IOFailure:
		return "io failure"
	case ConnectionFailure:
		return "connection failure"
	case IncompatibleSchema:
		return "incompatible schema"
	case UnknownItemType:
		return "unknown item type"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a classified persistence failure.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrIO              = &Error{Kind: IOFailure}
	ErrConnection      = &Error{Kind: ConnectionFailure}
	ErrIncompatible    = &Error{Kind: IncompatibleSchema}
	ErrUnknownItemType = &Error{Kind: UnknownItemType}
)

// Errorf returns an *Error wrapping a formatted cause.
func Errorf(kind Kind, op, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. An err that already carries a kind keeps it.
func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches sentinels of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Op == "" && t.Path == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of err, or IOFailure for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return IOFailure
}
