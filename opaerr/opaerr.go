// Package opaerr defines the error taxonomy shared by every Opatomic
// package: a Code enum naming each failure class, plus a typed *Error
// that carries one of them alongside a message and an optional wrapped
// cause.
package opaerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code names one of the failure classes from the taxonomy. Every error
// returned by this module's packages is, or wraps, one of these.
type Code int

const (
	// OutOfMemory means an allocation failed. Go code rarely constructs
	// this itself (the runtime would have already panicked), but it is
	// kept for parity with server-reported error codes and for capability
	// backends that may run against a bounded arena.
	OutOfMemory Code = iota
	// InvalidArg means a caller passed a value outside the function's
	// documented domain.
	InvalidArg
	// InvalidState means a call was made when the receiver's internal
	// state machine was not in a state that permits it.
	InvalidState
	// Overflow means a numeric or length bound was exceeded.
	Overflow
	// Parse means wire or text input was malformed.
	Parse
	// WouldBlock is reserved; the client's callback contract uses a
	// 0-byte return instead, but the code exists for completeness.
	WouldBlock
	// Eof means input ended before a value could be completed.
	Eof
	// Unsupported means a feature or wire form is recognized but not
	// implemented by this build.
	Unsupported
	// Internal means an invariant this package maintains was violated;
	// seeing this indicates a bug in this module, not the caller.
	Internal
)

func (c Code) String() string {
	switch c {
	case OutOfMemory:
		return "OutOfMemory"
	case InvalidArg:
		return "InvalidArg"
	case InvalidState:
		return "InvalidState"
	case Overflow:
		return "Overflow"
	case Parse:
		return "Parse"
	case WouldBlock:
		return "WouldBlock"
	case Eof:
		return "Eof"
	case Unsupported:
		return "Unsupported"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error is the concrete error type every package here returns. It pairs a
// taxonomy Code with a message and, optionally, a wrapped cause.
type Error struct {
	Code  Code
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no wrapped cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Newf builds an *Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches context to an existing error and tags it with code. If err
// is nil, Wrap returns nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Msg: msg, Cause: errors.Wrap(err, msg)}
}

// Is reports whether err is an *Error carrying the given code (searching
// the wrap chain).
func Is(err error, code Code) bool {
	for err != nil {
		if oe, ok := err.(*Error); ok {
			if oe.Code == code {
				return true
			}
			err = oe.Cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
