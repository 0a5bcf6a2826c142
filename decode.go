package tagwire

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/undertide/tagwire/internal/wire"
)

// Unmarshal decodes a tagwire buffer into v, which must be a non-nil
// pointer to a struct. v is zeroed first; fields absent from the buffer are
// left unset, unknown tags are skipped, and any trailing bytes after the
// final stop marker are an error. Decode aborts at the first failure and
// never returns a partial value.
func Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("tagwire: Unmarshal target must be a non-nil pointer, got %T", v)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("tagwire: Unmarshal target must point at a struct, got %T", v)
	}
	d, err := descriptorOf(rv.Type())
	if err != nil {
		return err
	}
	rv.SetZero()
	r := wire.NewReader(data)
	if err := decodeStructBody(r, d, rv); err != nil {
		return err
	}
	if r.Remaining() != 0 {
		return &DecodeError{Offset: r.Offset(), Err: ErrTrailingBytes}
	}
	return nil
}

// decErr normalizes low-level wire errors into the decode taxonomy.
func decErr(r *wire.Reader, field string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	kind := err
	switch {
	case errors.Is(err, wire.ErrShort), errors.Is(err, wire.ErrOverlong):
		kind = ErrTruncated
	case errors.Is(err, wire.ErrBadType):
		kind = ErrTypeMismatch
	}
	return &DecodeError{Offset: r.Offset(), Field: field, Err: kind}
}

func decodeStructBody(r *wire.Reader, d *structDesc, rv reflect.Value) error {
	var lastUnion *fieldDesc
	for {
		wt, err := r.Byte()
		if err != nil {
			return decErr(r, d.name, err)
		}
		if wt == wire.TStop {
			break
		}
		tag, err := r.Uvarint()
		if err != nil {
			return decErr(r, d.name, err)
		}

		f, known := d.byTag[tag]
		if !known {
			// forward compatibility: skip exactly, keep parsing
			if err := r.Skip(wt); err != nil {
				return decErr(r, d.name, err)
			}
			continue
		}
		path := d.name + "." + f.name
		if wt != f.typ.wt {
			return &DecodeError{Offset: r.Offset(), Field: path, Err: ErrTypeMismatch}
		}

		target := rv.Field(f.index)
		if target.Kind() == reflect.Pointer {
			p := reflect.New(target.Type().Elem())
			target.Set(p)
			target = p.Elem()
		}
		if err := decodeValue(r, f.typ, target, path); err != nil {
			return err
		}
		if d.union {
			lastUnion = f
		}
	}

	if d.union {
		if lastUnion == nil {
			return &DecodeError{Offset: r.Offset(), Field: d.name, Err: ErrUnionState}
		}
		// lenient decode: the last field read wins
		for _, f := range d.fields {
			if f != lastUnion {
				rv.Field(f.index).SetZero()
			}
		}
	}
	return nil
}

func decodeValue(r *wire.Reader, td *typeDesc, rv reflect.Value, path string) error {
	switch td.kind {
	case kindBool:
		u, err := r.Uvarint()
		if err != nil {
			return decErr(r, path, err)
		}
		rv.SetBool(u != 0)
	case kindInt:
		n, err := r.Varint()
		if err != nil {
			return decErr(r, path, err)
		}
		if rv.OverflowInt(n) {
			return &DecodeError{Offset: r.Offset(), Field: path, Err: fmt.Errorf("%w: %d overflows %s", ErrTypeMismatch, n, rv.Type())}
		}
		rv.SetInt(n)
	case kindDouble:
		f, err := r.Double()
		if err != nil {
			return decErr(r, path, err)
		}
		rv.SetFloat(f)
	case kindString:
		b, err := r.Blob()
		if err != nil {
			return decErr(r, path, err)
		}
		rv.SetString(string(b))
	case kindBytes:
		b, err := r.Blob()
		if err != nil {
			return decErr(r, path, err)
		}
		cp := make([]byte, len(b)) // Blob aliases the input buffer
		copy(cp, b)
		rv.SetBytes(cp)
	case kindList, kindSet:
		et, err := r.Byte()
		if err != nil {
			return decErr(r, path, err)
		}
		if et != td.elem.wt {
			return &DecodeError{Offset: r.Offset(), Field: path, Err: ErrTypeMismatch}
		}
		n, err := r.Uvarint()
		if err != nil {
			return decErr(r, path, err)
		}
		// every element costs at least one byte, so a count beyond the
		// remaining input is corrupt, not just large
		if n > uint64(r.Remaining()) {
			return &DecodeError{Offset: r.Offset(), Field: path, Err: ErrTruncated}
		}
		out := reflect.MakeSlice(rv.Type(), 0, int(n))
		var seen map[any]struct{}
		if td.kind == kindSet {
			seen = make(map[any]struct{}, n)
		}
		for i := uint64(0); i < n; i++ {
			ev, err := decodeElem(r, td.elem, path)
			if err != nil {
				return err
			}
			if seen != nil {
				k := ev.Interface()
				if _, dup := seen[k]; dup {
					continue // sets dedupe silently on decode
				}
				seen[k] = struct{}{}
			}
			out = reflect.Append(out, ev)
		}
		rv.Set(out)
	case kindMap:
		kt, err := r.Byte()
		if err != nil {
			return decErr(r, path, err)
		}
		vt, err := r.Byte()
		if err != nil {
			return decErr(r, path, err)
		}
		if kt != td.key.wt || vt != td.elem.wt {
			return &DecodeError{Offset: r.Offset(), Field: path, Err: ErrTypeMismatch}
		}
		n, err := r.Uvarint()
		if err != nil {
			return decErr(r, path, err)
		}
		if n > uint64(r.Remaining()/2) { // each pair costs at least two bytes
			return &DecodeError{Offset: r.Offset(), Field: path, Err: ErrTruncated}
		}
		out := reflect.MakeMapWithSize(rv.Type(), int(n))
		for i := uint64(0); i < n; i++ {
			kv, err := decodeElem(r, td.key, path)
			if err != nil {
				return err
			}
			vv, err := decodeElem(r, td.elem, path)
			if err != nil {
				return err
			}
			out.SetMapIndex(kv, vv)
		}
		rv.Set(out)
	case kindStruct:
		return decodeStructBody(r, td.str, rv)
	default:
		return &DecodeError{Offset: r.Offset(), Field: path, Err: ErrTypeMismatch}
	}
	return nil
}

// decodeElem decodes one container element or map key into a fresh value,
// re-wrapping in a pointer when the declared element type is *struct.
func decodeElem(r *wire.Reader, td *typeDesc, path string) (reflect.Value, error) {
	p := reflect.New(td.rt)
	if err := decodeValue(r, td, p.Elem(), path); err != nil {
		return reflect.Value{}, err
	}
	if td.ptr {
		return p, nil
	}
	return p.Elem(), nil
}
