package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

// Wire types. Every type is self-describing for skipping: a decoder that
// does not recognize a field's tag can still skip its payload exactly.
const (
	TStop   byte = 0x00 // ends a struct's field list; no tag, no payload
	TVarint byte = 0x01 // bool (0/1), signed ints (zigzag), enums
	TFixed8 byte = 0x02 // float64, 8 bytes big-endian
	TBytes  byte = 0x03 // uvarint length + raw bytes
	TList   byte = 0x04 // elem type byte + uvarint count + elements
	TSet    byte = 0x05 // same framing as TList
	TMap    byte = 0x06 // key type + value type + uvarint count + pairs
	TStruct byte = 0x07 // nested field list terminated by TStop
)

// maxVarintLen bounds uvarint reads; a longer run is corrupt input.
const maxVarintLen = 10

var (
	ErrShort    = errors.New("wire: short buffer")
	ErrOverlong = errors.New("wire: overlong varint")
	ErrBadType  = errors.New("wire: unknown wire type")
)

// Writer accumulates an encoded buffer. The zero value is ready to use.
type Writer struct {
	buf []byte
}

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }

func (w *Writer) Byte(b byte) { w.buf = append(w.buf, b) }

func (w *Writer) Uvarint(u uint64) {
	w.buf = binary.AppendUvarint(w.buf, u)
}

// Varint writes a signed integer zigzag-encoded.
func (w *Writer) Varint(i int64) {
	w.Uvarint(uint64(i)<<1 ^ uint64(i>>63))
}

func (w *Writer) Bool(b bool) {
	if b {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

func (w *Writer) Double(f float64) {
	var u8 [8]byte
	binary.BigEndian.PutUint64(u8[:], math.Float64bits(f))
	w.buf = append(w.buf, u8[:]...)
}

// Blob writes a length-prefixed byte payload.
func (w *Writer) Blob(p []byte) {
	w.Uvarint(uint64(len(p)))
	w.buf = append(w.buf, p...)
}

// FieldHeader writes a field's wire type and tag.
func (w *Writer) FieldHeader(wt byte, tag uint64) {
	w.Byte(wt)
	w.Uvarint(tag)
}

// Stop terminates a struct's field list.
func (w *Writer) Stop() { w.Byte(TStop) }

// Reader is a bounds-checked cursor over an encoded buffer. The position
// advances monotonically; it never rewinds.
type Reader struct {
	b   []byte
	off int
}

func NewReader(b []byte) *Reader { return &Reader{b: b} }

// Offset reports the current read position, for error reporting.
func (r *Reader) Offset() int { return r.off }

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int { return len(r.b) - r.off }

func (r *Reader) Byte() (byte, error) {
	if r.off >= len(r.b) {
		return 0, ErrShort
	}
	b := r.b[r.off]
	r.off++
	return b, nil
}

func (r *Reader) Uvarint() (uint64, error) {
	u, n := binary.Uvarint(r.b[r.off:])
	switch {
	case n > 0 && n <= maxVarintLen:
		r.off += n
		return u, nil
	case n == 0:
		return 0, ErrShort
	default:
		return 0, ErrOverlong
	}
}

// Varint reads a zigzag-encoded signed integer.
func (r *Reader) Varint() (int64, error) {
	u, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	return int64(u>>1) ^ -int64(u&1), nil
}

func (r *Reader) Double() (float64, error) {
	if r.Remaining() < 8 {
		return 0, ErrShort
	}
	u := binary.BigEndian.Uint64(r.b[r.off : r.off+8])
	r.off += 8
	return math.Float64frombits(u), nil
}

// Blob reads a length-prefixed byte payload. The returned slice aliases the
// input buffer (zero-copy); callers that retain it must copy.
func (r *Reader) Blob() ([]byte, error) {
	n, err := r.Uvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) { // overflow-safe bound check
		return nil, ErrShort
	}
	p := r.b[r.off : r.off+int(n)]
	r.off += int(n)
	return p, nil
}

// Skip consumes exactly one payload of the given wire type, recursing into
// containers and nested structs. Unknown-field skipping on decode builds on
// this, so schema evolution never corrupts subsequent field parsing.
func (r *Reader) Skip(wt byte) error {
	switch wt {
	case TVarint:
		_, err := r.Uvarint()
		return err
	case TFixed8:
		if r.Remaining() < 8 {
			return ErrShort
		}
		r.off += 8
		return nil
	case TBytes:
		_, err := r.Blob()
		return err
	case TList, TSet:
		et, err := r.Byte()
		if err != nil {
			return err
		}
		n, err := r.Uvarint()
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := r.Skip(et); err != nil {
				return err
			}
		}
		return nil
	case TMap:
		kt, err := r.Byte()
		if err != nil {
			return err
		}
		vt, err := r.Byte()
		if err != nil {
			return err
		}
		n, err := r.Uvarint()
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := r.Skip(kt); err != nil {
				return err
			}
			if err := r.Skip(vt); err != nil {
				return err
			}
		}
		return nil
	case TStruct:
		for {
			ft, err := r.Byte()
			if err != nil {
				return err
			}
			if ft == TStop {
				return nil
			}
			if _, err := r.Uvarint(); err != nil { // tag
				return err
			}
			if err := r.Skip(ft); err != nil {
				return err
			}
		}
	default:
		return ErrBadType
	}
}
