// Package example holds the bindings for the Example schema: the record
// shapes, enums, union, and exception declared by the service IDL, plus
// the service contract built on package rpc. Field names A-R are opaque
// identifiers carried over from the IDL; the wire tags are the contract.
package example

import (
	"fmt"

	"github.com/undertide/tagwire"
)

func init() {
	tagwire.MustRegister(
		Small{}, Pair{}, ExampleUnion{}, ByteException{}, Example{},
		GetArgs{}, GetResult{}, PullArgs{}, PullResult{}, TestArgs{}, TestResult{},
	)
}

// ExampleEnum is a closed set of named constants on the producer side.
// Decoded values outside the set are preserved as-is: Known reports false
// and String falls back to the raw value, so newer producers and older
// consumers stay compatible.
type ExampleEnum int32

const (
	ExampleEnumA ExampleEnum = 0
	ExampleEnumB ExampleEnum = 1
	ExampleEnumC ExampleEnum = 2
)

var exampleEnumNames = map[ExampleEnum]string{
	ExampleEnumA: "A",
	ExampleEnumB: "B",
	ExampleEnumC: "C",
}

func (e ExampleEnum) Known() bool {
	_, ok := exampleEnumNames[e]
	return ok
}

func (e ExampleEnum) String() string {
	if n, ok := exampleEnumNames[e]; ok {
		return n
	}
	return fmt.Sprintf("ExampleEnum(%d)", int32(e))
}

// ErrCode identifies an application-level failure carried by ByteException.
type ErrCode int32

const (
	ErrCodeUnknown   ErrCode = 0
	ErrCodeShortRead ErrCode = 1
	ErrCodeBadByte   ErrCode = 2
)

var errCodeNames = map[ErrCode]string{
	ErrCodeUnknown:   "UNKNOWN",
	ErrCodeShortRead: "SHORT_READ",
	ErrCodeBadByte:   "BAD_BYTE",
}

func (e ErrCode) Known() bool {
	_, ok := errCodeNames[e]
	return ok
}

func (e ErrCode) String() string {
	if n, ok := errCodeNames[e]; ok {
		return n
	}
	return fmt.Sprintf("ErrCode(%d)", int32(e))
}

// Small is a scalar-only record. Its fields are always present, which keeps
// the type comparable so it can participate in composite map keys.
type Small struct {
	ID   int32 `wire:"1"`
	Code int64 `wire:"2"`
}

// Pair is the composite map-key record: two Smalls. On the wire it is a
// nested struct, never flattened.
type Pair struct {
	First  Small `wire:"1"`
	Second Small `wire:"2"`
}

// ExampleUnion holds exactly one active field when non-empty. The IDL
// declares a single arm; the invariant machinery is the same for wider
// unions.
type ExampleUnion struct {
	Value *string `wire:"1"`
}

func (*ExampleUnion) WireUnion() {}

// ByteException is the application-level error signal of the service
// contract. It travels the normal successful-decode path inside a result
// envelope, distinct from codec errors.
type ByteException struct {
	Code *ErrCode `wire:"1"`
}

func (e *ByteException) Error() string {
	if e.Code == nil {
		return "byte exception"
	}
	return fmt.Sprintf("byte exception: %s", *e.Code)
}

// Example is the 18-field record. Every field is independently optional:
// nil means unset, a non-nil pointer to the zero value means explicitly
// default-valued, and the two are distinct after a round trip.
type Example struct {
	A map[Pair]int64                `wire:"1"`
	B *int8                         `wire:"2"`
	C *int16                        `wire:"3"`
	D *int32                        `wire:"4"`
	E *bool                         `wire:"5"`
	F *int64                        `wire:"6"`
	G *float64                      `wire:"7"`
	H *string                       `wire:"8"`
	I []byte                        `wire:"9"`
	J []int32                       `wire:"10,set"`
	K map[string][]map[string]int64 `wire:"11"`
	L []*Small                      `wire:"12"`
	M *ExampleEnum                  `wire:"13"`
	N map[string]string             `wire:"14"`
	O []string                      `wire:"15"`
	P map[int32][]byte              `wire:"16"`
	Q *Small                        `wire:"17"`
	R *ExampleUnion                 `wire:"18"`
}

// Declared field defaults from the IDL.
const DefaultD int32 = 8

// NewExample applies the declared defaults. Container defaults are fresh
// per instance; callers never share a mutable default value.
func NewExample() *Example {
	d := DefaultD
	m := ExampleEnumA
	return &Example{
		D: &d,
		M: &m,
		N: map[string]string{},
	}
}
