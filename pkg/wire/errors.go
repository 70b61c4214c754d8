package wire

import (
	"errors"
	"fmt"
)

// Decode errors. A *DecodeError matches exactly one of these with errors.Is.
var (
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrMissingField      = errors.New("missing required field")
	ErrUnknownCommand    = errors.New("unknown command")
)

// DecodeErrorKind classifies a decode failure.
type DecodeErrorKind uint8

const (
	// KindMalformedEnvelope means the payload is not a JSON object with a numeric cmdType.
	KindMalformedEnvelope DecodeErrorKind = iota

	// KindMissingField means a field required by the command is absent, empty or not a string.
	KindMissingField

	// KindUnknownCommand means cmdType is numeric but not an inbound command.
	KindUnknownCommand
)

// String returns the kind name.
func (k DecodeErrorKind) String() string {
	switch k {
	case KindMalformedEnvelope:
		return "MALFORMED_ENVELOPE"
	case KindMissingField:
		return "MISSING_FIELD"
	case KindUnknownCommand:
		return "UNKNOWN_COMMAND"
	default:
		return "UNKNOWN"
	}
}

// DecodeError describes why a payload could not be decoded.
type DecodeError struct {
	Kind DecodeErrorKind

	// Field names the missing field for KindMissingField.
	Field string

	// Value is the rejected cmdType for KindUnknownCommand.
	Value int64

	// Err is the underlying parse error, if any.
	Err error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("wire: %v %q", ErrMissingField, e.Field)
	case KindUnknownCommand:
		return fmt.Sprintf("wire: %v %d", ErrUnknownCommand, e.Value)
	default:
		if e.Err != nil {
			return fmt.Sprintf("wire: %v: %v", ErrMalformedEnvelope, e.Err)
		}
		return fmt.Sprintf("wire: %v", ErrMalformedEnvelope)
	}
}

// Is reports whether target is the sentinel for this error's kind.
func (e *DecodeError) Is(target error) bool {
	switch e.Kind {
	case KindMalformedEnvelope:
		return target == ErrMalformedEnvelope
	case KindMissingField:
		return target == ErrMissingField
	case KindUnknownCommand:
		return target == ErrUnknownCommand
	}
	return false
}

// Unwrap returns the underlying parse error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func malformed(err error) *DecodeError {
	return &DecodeError{Kind: KindMalformedEnvelope, Err: err}
}

func missingField(name string) *DecodeError {
	return &DecodeError{Kind: KindMissingField, Field: name}
}
