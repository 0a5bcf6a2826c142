package tagwire

import (
	"fmt"
	"reflect"

	"github.com/undertide/tagwire/internal/wire"
)

// Marshal encodes a struct (or pointer to struct) into the tagwire binary
// form: each present field as wiretype|tag|payload in ascending tag order,
// terminated by a stop marker. Unset optional fields (nil pointers, nil
// containers) are omitted entirely, so unset and present-with-default are
// distinct on the wire.
func Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, &EncodeError{Err: fmt.Errorf("%w: nil %s", ErrUnsupportedType, rv.Type())}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, &EncodeError{Err: fmt.Errorf("%w: %T", ErrUnsupportedType, v)}
	}
	d, err := descriptorOf(rv.Type())
	if err != nil {
		return nil, &EncodeError{Err: err}
	}
	w := &wire.Writer{}
	if err := encodeStructBody(w, d, rv); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func encodeStructBody(w *wire.Writer, d *structDesc, rv reflect.Value) error {
	if d.union {
		set := 0
		for _, f := range d.fields {
			if !rv.Field(f.index).IsNil() {
				set++
			}
		}
		switch {
		case set == 0:
			return &EncodeError{Field: d.name, Err: ErrUnionEmpty}
		case set > 1:
			return &EncodeError{Field: d.name, Err: ErrUnionConflict}
		}
	}

	for _, f := range d.fields {
		fv := rv.Field(f.index)
		if f.optional {
			if fv.IsNil() {
				continue
			}
			if fv.Kind() == reflect.Pointer {
				fv = fv.Elem()
			}
		}
		w.FieldHeader(f.typ.wt, f.tag)
		if err := encodeValue(w, f.typ, fv, d.name+"."+f.name); err != nil {
			return err
		}
	}
	w.Stop()
	return nil
}

func encodeValue(w *wire.Writer, td *typeDesc, rv reflect.Value, path string) error {
	switch td.kind {
	case kindBool:
		w.Bool(rv.Bool())
	case kindInt:
		w.Varint(rv.Int())
	case kindDouble:
		w.Double(rv.Float())
	case kindString:
		w.Blob([]byte(rv.String()))
	case kindBytes:
		w.Blob(rv.Bytes())
	case kindList:
		w.Byte(td.elem.wt)
		w.Uvarint(uint64(rv.Len()))
		for i := 0; i < rv.Len(); i++ {
			if err := encodeElem(w, td.elem, rv.Index(i), path); err != nil {
				return err
			}
		}
	case kindSet:
		w.Byte(td.elem.wt)
		w.Uvarint(uint64(rv.Len()))
		seen := make(map[any]struct{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev := rv.Index(i)
			k := ev.Interface()
			if _, dup := seen[k]; dup {
				return &EncodeError{Field: path, Err: ErrSetDuplicate}
			}
			seen[k] = struct{}{}
			if err := encodeElem(w, td.elem, ev, path); err != nil {
				return err
			}
		}
	case kindMap:
		w.Byte(td.key.wt)
		w.Byte(td.elem.wt)
		w.Uvarint(uint64(rv.Len()))
		iter := rv.MapRange()
		for iter.Next() {
			if err := encodeElem(w, td.key, iter.Key(), path); err != nil {
				return err
			}
			if err := encodeElem(w, td.elem, iter.Value(), path); err != nil {
				return err
			}
		}
	case kindStruct:
		return encodeStructBody(w, td.str, rv)
	default:
		return &EncodeError{Field: path, Err: ErrUnsupportedType}
	}
	return nil
}

// encodeElem encodes a container element or map key, dereferencing
// pointer-to-struct elements. nil elements have no wire representation.
func encodeElem(w *wire.Writer, td *typeDesc, rv reflect.Value, path string) error {
	if td.ptr {
		if rv.IsNil() {
			return &EncodeError{Field: path, Err: fmt.Errorf("%w: nil element", ErrUnsupportedType)}
		}
		rv = rv.Elem()
	}
	return encodeValue(w, td, rv, path)
}
