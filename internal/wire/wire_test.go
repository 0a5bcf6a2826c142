package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestVarintRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 2, -2, 63, 64, -64, -65, 300, -300, math.MaxInt64, math.MinInt64}
	for _, want := range cases {
		w := &Writer{}
		w.Varint(want)
		r := NewReader(w.Bytes())
		got, err := r.Varint()
		if err != nil {
			t.Fatalf("Varint(%d): %v", want, err)
		}
		if got != want {
			t.Fatalf("varint mismatch: got %d want %d", got, want)
		}
		if r.Remaining() != 0 {
			t.Fatalf("varint %d: %d bytes left unread", want, r.Remaining())
		}
	}
}

func TestUvarintBounds(t *testing.T) {
	// empty input
	if _, err := NewReader(nil).Uvarint(); !errors.Is(err, ErrShort) {
		t.Fatalf("expected ErrShort on empty input, got %v", err)
	}
	// continuation bit set on every byte, no terminator
	if _, err := NewReader(bytes.Repeat([]byte{0x80}, 4)).Uvarint(); !errors.Is(err, ErrShort) {
		t.Fatalf("expected ErrShort on unterminated varint, got %v", err)
	}
	// 11-byte varint is overlong
	over := append(bytes.Repeat([]byte{0x80}, 10), 0x01)
	if _, err := NewReader(over).Uvarint(); !errors.Is(err, ErrOverlong) {
		t.Fatalf("expected ErrOverlong, got %v", err)
	}
}

func TestDoubleRoundTrip(t *testing.T) {
	cases := []float64{0, 0.1, -0.1, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(1)}
	for _, want := range cases {
		w := &Writer{}
		w.Double(want)
		if w.Len() != 8 {
			t.Fatalf("double must be 8 bytes, got %d", w.Len())
		}
		got, err := NewReader(w.Bytes()).Double()
		if err != nil {
			t.Fatalf("Double(%v): %v", want, err)
		}
		if got != want {
			t.Fatalf("double mismatch: got %v want %v", got, want)
		}
	}
	if _, err := NewReader([]byte{1, 2, 3}).Double(); !errors.Is(err, ErrShort) {
		t.Fatalf("expected ErrShort on 3-byte double, got %v", err)
	}
}

func TestBlobRoundTripAndBounds(t *testing.T) {
	for _, want := range [][]byte{{}, []byte("hello"), bytes.Repeat([]byte{0xAB}, 1000)} {
		w := &Writer{}
		w.Blob(want)
		got, err := NewReader(w.Bytes()).Blob()
		if err != nil {
			t.Fatalf("Blob: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("blob mismatch: got %x want %x", got, want)
		}
	}

	// length prefix announcing more than available
	w := &Writer{}
	w.Uvarint(5)
	w.Byte('x')
	if _, err := NewReader(w.Bytes()).Blob(); !errors.Is(err, ErrShort) {
		t.Fatalf("expected ErrShort on overlong length prefix, got %v", err)
	}
}

func TestBlobAliasesInput(t *testing.T) {
	w := &Writer{}
	w.Blob([]byte("Z"))
	buf := w.Bytes()
	p, err := NewReader(buf).Blob()
	if err != nil {
		t.Fatalf("Blob: %v", err)
	}
	p[0] = 'Q'
	p2, _ := NewReader(buf).Blob()
	if p2[0] != 'Q' {
		t.Fatalf("expected zero-copy slice into input buffer")
	}
}

// buildStructPayload writes a struct body with one field of each wire type,
// for exercising Skip.
func buildStructPayload() []byte {
	w := &Writer{}
	w.FieldHeader(TVarint, 1)
	w.Varint(-42)
	w.FieldHeader(TFixed8, 2)
	w.Double(0.5)
	w.FieldHeader(TBytes, 3)
	w.Blob([]byte("abc"))
	w.FieldHeader(TList, 4)
	w.Byte(TVarint)
	w.Uvarint(2)
	w.Varint(1)
	w.Varint(2)
	w.FieldHeader(TSet, 5)
	w.Byte(TBytes)
	w.Uvarint(1)
	w.Blob([]byte("s"))
	w.FieldHeader(TMap, 6)
	w.Byte(TBytes)
	w.Byte(TVarint)
	w.Uvarint(1)
	w.Blob([]byte("k"))
	w.Varint(7)
	w.FieldHeader(TStruct, 7)
	w.FieldHeader(TVarint, 1)
	w.Varint(9)
	w.Stop()
	w.Stop()
	return w.Bytes()
}

func TestSkipEveryWireType(t *testing.T) {
	buf := buildStructPayload()
	r := NewReader(buf)
	if err := r.Skip(TStruct); err != nil {
		t.Fatalf("Skip(TStruct): %v", err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("skip left %d bytes unread", r.Remaining())
	}
}

func TestSkipTruncated(t *testing.T) {
	buf := buildStructPayload()
	for i := 0; i < len(buf); i++ {
		r := NewReader(buf[:i])
		if err := r.Skip(TStruct); err == nil {
			t.Fatalf("Skip succeeded on %d-byte prefix of %d-byte payload", i, len(buf))
		}
	}
}

func TestSkipUnknownWireType(t *testing.T) {
	r := NewReader([]byte{0x01})
	if err := r.Skip(0x7F); !errors.Is(err, ErrBadType) {
		t.Fatalf("expected ErrBadType, got %v", err)
	}
}
