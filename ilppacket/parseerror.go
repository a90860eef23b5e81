package ilppacket

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// ErrorKind enumerates the ways a wire packet can fail to parse. It never
// panics: every malformed-input path in this package returns one of these.
type ErrorKind int

const (
	// InvalidType means the leading type tag did not match any known
	// packet.
	InvalidType ErrorKind = iota

	// InvalidLength means a var-octet-string length prefix was malformed
	// or claimed more bytes than remained in the input.
	InvalidLength

	// Truncated means the input ended before a fixed-width field could
	// be read in full.
	Truncated

	// InvalidUTF8 means a field required to be UTF-8 (e.g. a Reject
	// message) was not.
	InvalidUTF8

	// InvalidAddress means an address field failed Address validation.
	InvalidAddress
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case InvalidType:
		return "invalid type"
	case InvalidLength:
		return "invalid length"
	case Truncated:
		return "truncated"
	case InvalidUTF8:
		return "invalid utf8"
	case InvalidAddress:
		return "invalid address"
	default:
		return "unknown"
	}
}

// ParseError is returned whenever a packet fails to decode or a builder's
// invariants are violated. The underlying cause, when there is one, carries
// a stack trace courtesy of go-errors/errors so that malformed input
// crossing a trust boundary (the wire) is easy to trace back to the byte
// offset that triggered it.
type ParseError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// wrapParseError attaches a stack trace to cause via go-errors/errors and
// packages it as a ParseError of the given kind.
func wrapParseError(kind ErrorKind, message string, cause error) *ParseError {
	return &ParseError{
		Kind:    kind,
		Message: message,
		Cause:   goerrors.Wrap(cause, 1),
	}
}
