// Package errors implements an error type that defines standard
// interpretable error codes for the persistent array and its collaborators.
// Errors also carry interpretable severities and can be chained, so that one
// error can be attributed to another without losing the original cause.
package errors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/colinmarc/parray/log"
)

// Separator defines the separation string inserted between chained errors in
// error messages.
var Separator = ":\n\t"

// Kind defines the type of error. Kinds are semantically meaningful and may
// be interpreted by the receiver of an error, e.g. to decide whether an
// operation is safe to retry.
type Kind int

const (
	// Other indicates an unknown error.
	Other Kind = iota
	// Invalid indicates that the caller supplied invalid parameters.
	Invalid
	// IndexOutOfRange indicates a precondition 0 <= i < length was violated.
	IndexOutOfRange
	// IncompatibleVersion indicates that an on-disk header's version is not
	// readable by this implementation.
	IncompatibleVersion
	// BadHeader indicates a missing magic, or a truncated header.
	BadHeader
	// BadRecord indicates a decode saw an unrecognized null-marker byte.
	BadRecord
	// ReadChunkLimitExceeded indicates memory.size < read.size.
	ReadChunkLimitExceeded
	// WriteChunkLimitExceeded indicates memory.size < write.size.
	WriteChunkLimitExceeded
	// MemoryLimitExceeded indicates a memory.size configuration error not
	// attributable specifically to the read or write chunk size.
	MemoryLimitExceeded
	// UnsupportedLayout indicates layout_flags.DD is not a recognized value.
	UnsupportedLayout
	// IOFailure wraps an underlying filesystem error.
	IOFailure

	maxKind
)

var kinds = map[Kind]string{
	Other:                   "unknown error",
	Invalid:                 "invalid argument",
	IndexOutOfRange:         "index out of range",
	IncompatibleVersion:     "incompatible file version",
	BadHeader:               "bad header",
	BadRecord:               "bad record",
	ReadChunkLimitExceeded:  "read chunk limit exceeded",
	WriteChunkLimitExceeded: "write chunk limit exceeded",
	MemoryLimitExceeded:     "memory limit exceeded",
	UnsupportedLayout:       "unsupported layout",
	IOFailure:               "I/O failure",
}

var errOutOfRange = errors.New("index out of range")

// kindStdErrs maps some Kinds to a standard-library-ish equivalent, enabling
// interoperability with errors.Is.
var kindStdErrs = map[Kind]error{
	IndexOutOfRange: errOutOfRange,
}

// String returns a human-readable explanation of the error kind k.
func (k Kind) String() string {
	return kinds[k]
}

// Severity defines an Error's severity. The persistent array never retries
// internally (spec.md §7); Severity exists so a caller wrapping the array in
// its own retry policy has something to key off of.
type Severity int

const (
	// Retriable indicates that the failing operation can be safely retried.
	Retriable Severity = -2
	// Temporary indicates the underlying condition is likely transient.
	Temporary Severity = -1
	// Unknown is the default severity.
	Unknown Severity = 0
	// Fatal indicates that retrying is unlikely to help.
	Fatal Severity = 1
)

var severities = map[Severity]string{
	Retriable: "retriable",
	Temporary: "temporary",
	Unknown:   "unknown",
	Fatal:     "fatal",
}

// String returns a human-readable explanation of the severity s.
func (s Severity) String() string {
	return severities[s]
}

// Error is the standard error type, carrying a kind (error code), an
// optional message, and potentially an underlying cause. Errors should be
// constructed with E, which interprets its arguments according to a set of
// rules.
type Error struct {
	Kind     Kind
	Severity Severity
	Message  string
	Err      error
}

// E constructs a new error from the provided arguments. Arguments are
// interpreted according to their types:
//
//   - Kind: sets the Error's kind
//   - Severity: sets the Error's severity
//   - string: appended to the Error's message, space separated
//   - *Error: copied and set as the cause
//   - error: set as the cause
//
// If no Kind is given but a cause is, E classifies some well-known standard
// library error conditions (os.IsNotExist, context.Canceled, ...) into an
// appropriate Kind.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("errors.E: no args")
	}
	e := new(Error)
	var msg strings.Builder
	for _, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case Severity:
			e.Severity = arg
		case string:
			if msg.Len() > 0 {
				msg.WriteString(" ")
			}
			msg.WriteString(arg)
		case *Error:
			cp := *arg
			if len(args) == 1 {
				return &cp
			}
			e.Err = &cp
		case error:
			e.Err = arg
		default:
			_, file, line, _ := runtime.Caller(1)
			log.Error.Printf("errors.E: bad call (type %T) from %s:%d: %v", arg, file, line, arg)
			return &Error{Kind: Invalid, Message: fmt.Sprintf("unknown type %T in error call", arg)}
		}
	}
	e.Message = msg.String()
	if e.Err == nil {
		return e
	}
	switch prev := e.Err.(type) {
	case *Error:
		if prev.Kind == e.Kind || e.Kind == Other {
			e.Kind = prev.Kind
			prev.Kind = Other
		}
		if prev.Severity == e.Severity || e.Severity == Unknown {
			e.Severity = prev.Severity
			prev.Severity = Unknown
		}
	default:
		if e.Kind != Other {
			break
		}
		switch {
		case errors.Is(e.Err, context.Canceled):
			e.Kind = Invalid
		case os.IsNotExist(e.Err), os.IsPermission(e.Err):
			e.Kind = IOFailure
		default:
			e.Kind = IOFailure
		}
	}
	return e
}

// Recover wraps err in an *Error if it isn't already one.
func Recover(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return E(err).(*Error)
}

// Error returns a human readable string describing this error, chaining
// causes with Separator.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b bytes.Buffer
	e.writeError(&b)
	return b.String()
}

func (e *Error) writeError(b *bytes.Buffer) {
	if e.Message != "" {
		pad(b, ": ")
		b.WriteString(e.Message)
	}
	if e.Kind != Other {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Severity != Unknown {
		pad(b, " ")
		b.WriteByte('(')
		b.WriteString(e.Severity.String())
		b.WriteByte(')')
	}
	if e.Err == nil {
		return
	}
	pad(b, Separator)
	b.WriteString(e.Err.Error())
}

// Unwrap returns e's cause, if any, letting the standard errors.Unwrap work.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether e's kind is equivalent to err, enabling interop with
// the standard library's errors.Is.
func (e *Error) Is(err error) bool {
	if err == nil {
		return false
	}
	return err == kindStdErrs[e.Kind]
}

// Is tells whether err, or any error in its chain, has the given kind. Kind
// Other never matches (it's the "no opinion" kind); the chain is traversed
// until a non-Other kind is found.
func Is(kind Kind, err error) bool {
	if err == nil {
		return false
	}
	return is(kind, Recover(err))
}

func is(kind Kind, e *Error) bool {
	if e.Kind != Other {
		return e.Kind == kind
	}
	if e2, ok := e.Err.(*Error); ok {
		return is(kind, e2)
	}
	return false
}

// New is synonymous with the standard library's errors.New, provided so
// callers need import only one errors package.
func New(msg string) error { return errors.New(msg) }

// NewF is synonymous with fmt.Errorf, without the %w verb, provided so
// callers need import only one errors package.
func NewF(format string, args ...interface{}) error { return errors.New(fmt.Sprintf(format, args...)) }

func pad(b *bytes.Buffer, s string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(s)
}
