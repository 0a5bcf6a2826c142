package tagwire

import (
	"errors"
	"fmt"
)

// Encode-side sentinels. All encode failures surface as *EncodeError
// wrapping one of these (or a detail error) so callers can errors.Is.
var (
	ErrUnsupportedType = errors.New("tagwire: unsupported type")
	ErrSetDuplicate    = errors.New("tagwire: duplicate set element")
	ErrUnionEmpty      = errors.New("tagwire: union has no field set")
	ErrUnionConflict   = errors.New("tagwire: union has multiple fields set")
)

// Decode-side sentinels.
var (
	// ErrTruncated covers short buffers, length prefixes announcing more
	// bytes than remain, and malformed varints.
	ErrTruncated = errors.New("tagwire: truncated buffer")
	// ErrTypeMismatch means the observed wire type disagrees with the
	// declared field or element type, or a decoded value cannot fit it.
	ErrTypeMismatch = errors.New("tagwire: wire-type mismatch")
	// ErrUnionState means a union body decoded with no recognizable field.
	ErrUnionState = errors.New("tagwire: unknown union state")
	// ErrTrailingBytes means the buffer continued past the final stop marker.
	ErrTrailingBytes = errors.New("tagwire: trailing bytes after value")
)

// EncodeError reports a value that violates its declared shape at write
// time. Field is "Type.Field" of the offending field when known.
type EncodeError struct {
	Field string
	Err   error
}

func (e *EncodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("encode: %v", e.Err)
	}
	return fmt.Sprintf("encode %s: %v", e.Field, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError reports corrupt or incompatible input. Offset is the cursor
// position at the point of failure; decode aborts there and never returns a
// partial value.
type DecodeError struct {
	Offset int
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("decode %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
