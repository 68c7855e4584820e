// Package objerr defines the closed error taxonomy shared by every codec
// boundary in this module (ELF parse/write, x86 decode/encode, Intel-syntax
// parse). Modeled on the teacher's CompilerError/ErrorLevel/ErrorCategory
// shape in errors.go, collapsed to the eight kinds spec.md §7 names.
package objerr

import "fmt"

// Kind is one of the eight error kinds named in spec.md §7.
type Kind int

const (
	// OutOfBounds means a buffer cursor moved past either end.
	OutOfBounds Kind = iota
	// MalformedELF means an ELF magic/class/structural check failed.
	MalformedELF
	// UnknownOpcode means the decoder saw a primary opcode with no table entry.
	UnknownOpcode
	// ReservedOpcode means the decoder hit a reserved entry in a known map.
	ReservedOpcode
	// InvalidInstruction means the validator rejected a decoded instruction.
	InvalidInstruction
	// InvalidEncoding means the encoder could not serialize an instruction.
	InvalidEncoding
	// ParseError means the Intel-syntax parser rejected its input.
	ParseError
	// InvalidArgument means a caller passed a malformed argument to an API.
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case OutOfBounds:
		return "OutOfBounds"
	case MalformedELF:
		return "MalformedELF"
	case UnknownOpcode:
		return "UnknownOpcode"
	case ReservedOpcode:
		return "ReservedOpcode"
	case InvalidInstruction:
		return "InvalidInstruction"
	case InvalidEncoding:
		return "InvalidEncoding"
	case ParseError:
		return "ParseError"
	case InvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Error is the single error type every package boundary returns. Offset is
// the byte offset within the buffer being processed when known, or -1.
type Error struct {
	Kind    Kind
	Message string
	Offset  int64
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %#x: %s", e.Kind, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an Error with no known offset.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: -1}
}

// NewAt builds an Error anchored to a byte offset.
func NewAt(kind Kind, offset int64, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: offset}
}

// Is reports whether err is an *Error of the given kind, so callers can
// branch on error taxonomy with errors.Is-style matching.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
