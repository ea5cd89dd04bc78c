// Package xerrors defines the error taxonomy shared by every layer of the
// file-sharing service: the registry, the wire codec, the pipeline and the
// session handler all classify their failures into one of a small set of
// Kinds instead of returning bare errors.
package xerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure the way the server's error handling design
// groups failures: by where they originated and how the session handler
// must react, not by which call site produced them.
type Kind int

const (
	// InvalidName marks an empty or oversized filename.
	InvalidName Kind = iota
	// ProtocolFraming marks an out-of-range length field or a truncated
	// header/frame.
	ProtocolFraming
	// ProtocolCommand marks an unrecognized command string.
	ProtocolCommand
	// Io marks a filesystem open/read/write failure.
	Io
	// Network marks a socket send/recv failure, peer reset, or unexpected
	// close.
	Network
	// ResourceExhausted marks a memory or primitive initialization
	// failure.
	ResourceExhausted
)

func (k Kind) String() string {
	switch k {
	case InvalidName:
		return "InvalidName"
	case ProtocolFraming:
		return "ProtocolFraming"
	case ProtocolCommand:
		return "ProtocolCommand"
	case Io:
		return "Io"
	case Network:
		return "Network"
	case ResourceExhausted:
		return "ResourceExhausted"
	default:
		return "Unknown"
	}
}

// Error is a Kind-tagged error. The cause chain is preserved so that
// %+v prints the original stack the way github.com/pkg/errors does.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.cause)
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// New wraps cause with kind, attaching a stack trace via pkg/errors so
// the server's diagnostic log can print the originating call site.
func New(kind Kind, cause error) *Error {
	if cause == nil {
		return &Error{Kind: kind}
	}
	return &Error{Kind: kind, cause: errors.WithStack(cause)}
}

// Newf builds a Kind error from a formatted message, no underlying cause.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap attaches additional context to cause while preserving kind, the
// way pkg/errors.Wrap layers a message onto an existing error.
func Wrap(kind Kind, cause error, message string) *Error {
	if cause == nil {
		return &Error{Kind: kind}
	}
	return &Error{Kind: kind, cause: errors.Wrap(cause, message)}
}

// As reports whether err is (or wraps) an *Error of the given kind.
func As(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
