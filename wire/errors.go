package wire

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrUnsupportedValueKind is returned when the encoder is handed a value
	// that is neither a primitive, a container, nor a registered record.
	ErrUnsupportedValueKind = errors.New("wire: unsupported value kind")

	// ErrUnexpectedEndOfBuffer is returned when the input ends before the
	// value being decoded is complete.
	ErrUnexpectedEndOfBuffer = errors.New("wire: unexpected end of buffer")

	// ErrUnknownTag is returned when a tag byte is not part of the
	// vocabulary, or is not allowed where it appears.
	ErrUnknownTag = errors.New("wire: unknown tag")

	// ErrMalformedVarint is returned for varints longer than ten bytes.
	ErrMalformedVarint = errors.New("wire: malformed varint")

	// ErrMaxDepth is returned when containers nest deeper than MaxDepth.
	ErrMaxDepth = errors.New("wire: maximum nesting depth exceeded")

	// ErrIntOverflow is returned for unsigned integers above math.MaxInt64.
	ErrIntOverflow = errors.New("wire: unsigned integer overflows int64")

	// ErrTrailingBytes is returned by Unmarshal when input remains after the
	// top-level value.
	ErrTrailingBytes = errors.New("wire: trailing bytes after value")

	// ErrFieldNotFound is returned by projections when a field or key is
	// absent.
	ErrFieldNotFound = errors.New("wire: field not found")

	// ErrTypeMismatch is returned by projections when a value has a
	// different kind than requested.
	ErrTypeMismatch = errors.New("wire: type mismatch")
)

// UnsupportedValueKindError names the run-time type the encoder refused.
type UnsupportedValueKindError struct {
	Type reflect.Type
}

func (e *UnsupportedValueKindError) Error() string {
	if e.Type == nil {
		return ErrUnsupportedValueKind.Error()
	}
	return fmt.Sprintf("%s: %s", ErrUnsupportedValueKind, e.Type)
}

func (e *UnsupportedValueKindError) Unwrap() error {
	return ErrUnsupportedValueKind
}

// FieldKindError is returned when a descriptor field produces a value of a
// different kind than the descriptor declares.
type FieldKindError struct {
	TypeID string
	Field  string
	Want   Kind
	Got    Kind
}

func (e *FieldKindError) Error() string {
	return fmt.Sprintf("wire: record %s field %s: declared %s, got %s", e.TypeID, e.Field, e.Want, e.Got)
}

func (e *FieldKindError) Unwrap() error {
	return ErrTypeMismatch
}

// DecodeError records where in the input decoding stopped.
type DecodeError struct {
	Offset int
	Tag    Tag
	Err    error
}

func (e *DecodeError) Error() string {
	if errors.Is(e.Err, ErrUnknownTag) {
		return fmt.Sprintf("%s 0x%02x at offset %d", e.Err, byte(e.Tag), e.Offset)
	}
	return fmt.Sprintf("%s at offset %d", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ProjectionError describes a failed access on a decoded value.
type ProjectionError struct {
	Path []string
	Want Kind
	Got  Kind
	Err  error
}

func (e *ProjectionError) Error() string {
	path := strings.Join(e.Path, ".")
	if path == "" {
		path = "<root>"
	}
	if errors.Is(e.Err, ErrTypeMismatch) {
		return fmt.Sprintf("%s at %s: want %s, got %s", e.Err, path, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: %s", e.Err, path)
}

func (e *ProjectionError) Unwrap() error {
	return e.Err
}

func mismatch(want, got Kind) error {
	return &ProjectionError{Want: want, Got: got, Err: ErrTypeMismatch}
}
