package tagwire

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/undertide/tagwire/internal/wire"
)

// Union marks a struct as a union shape: at most one of its fields may be
// set at a time. Encode enforces exactly-one-field strictly; decode is
// lenient and keeps the last field read.
type Union interface {
	WireUnion()
}

var unionType = reflect.TypeOf((*Union)(nil)).Elem()

type kind uint8

const (
	kindBool kind = iota
	kindInt
	kindDouble
	kindString
	kindBytes
	kindList
	kindSet
	kindMap
	kindStruct
)

// typeDesc is the static description of one value position: a field, a
// container element, or a map key.
type typeDesc struct {
	kind kind
	wt   byte
	ptr  bool      // Go representation is a pointer to rt (structs only)
	rt   reflect.Type
	key  *typeDesc // map key
	elem *typeDesc // list/set element, map value
	str  *structDesc
}

type fieldDesc struct {
	name     string
	tag      uint64
	index    int
	optional bool // pointer field or nil-able container; nil means unset
	typ      *typeDesc
}

// structDesc is the shape descriptor for a record: its fields in tag order,
// keyed both ways. Tags are the on-wire field identity; names never leave
// the process.
type structDesc struct {
	rt     reflect.Type
	name   string
	union  bool
	fields []*fieldDesc
	byTag  map[uint64]*fieldDesc
}

// descCache holds built descriptors keyed by reflect.Type. Read-mostly;
// concurrent builders of the same type converge on one entry.
var descCache sync.Map // reflect.Type -> *structDesc

// Register builds and caches the shape descriptor for v's type, which must
// be a struct or pointer to struct. Generated bindings call it from init so
// malformed tag metadata fails at startup rather than on first use.
func Register(v any) error {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return fmt.Errorf("tagwire: Register: %T is not a struct", v)
	}
	_, err := descriptorOf(rt)
	return err
}

// MustRegister is Register panicking on error, for package-level init use.
func MustRegister(vs ...any) {
	for _, v := range vs {
		if err := Register(v); err != nil {
			panic(err)
		}
	}
}

func descriptorOf(rt reflect.Type) (*structDesc, error) {
	if d, ok := descCache.Load(rt); ok {
		return d.(*structDesc), nil
	}
	b := &descBuilder{building: make(map[reflect.Type]*structDesc)}
	d, err := b.structOf(rt)
	if err != nil {
		return nil, err
	}
	actual, _ := descCache.LoadOrStore(rt, d)
	return actual.(*structDesc), nil
}

// descBuilder tracks in-progress struct descriptors so self-referential
// shapes terminate.
type descBuilder struct {
	building map[reflect.Type]*structDesc
}

func (b *descBuilder) structOf(rt reflect.Type) (*structDesc, error) {
	if d, ok := descCache.Load(rt); ok {
		return d.(*structDesc), nil
	}
	if d, ok := b.building[rt]; ok {
		return d, nil
	}

	d := &structDesc{
		rt:    rt,
		name:  rt.Name(),
		byTag: make(map[uint64]*fieldDesc),
	}
	d.union = rt.Implements(unionType) || reflect.PointerTo(rt).Implements(unionType)
	b.building[rt] = d

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tagStr, ok := sf.Tag.Lookup("wire")
		if !ok || tagStr == "-" {
			continue
		}
		parts := strings.Split(tagStr, ",")
		tag, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil || tag == 0 {
			return nil, fmt.Errorf("tagwire: %s.%s: bad wire tag %q", d.name, sf.Name, tagStr)
		}
		asSet := false
		for _, opt := range parts[1:] {
			switch opt {
			case "set":
				asSet = true
			default:
				return nil, fmt.Errorf("tagwire: %s.%s: unknown wire tag option %q", d.name, sf.Name, opt)
			}
		}

		ft := sf.Type
		optional := false
		switch ft.Kind() {
		case reflect.Pointer:
			optional = true
			ft = ft.Elem()
		case reflect.Map, reflect.Slice:
			optional = true
		}

		td, err := b.typeOf(ft, asSet)
		if err != nil {
			return nil, fmt.Errorf("tagwire: %s.%s: %w", d.name, sf.Name, err)
		}
		if sf.Type.Kind() == reflect.Pointer && td.kind != kindStruct && !isScalar(td.kind) {
			return nil, fmt.Errorf("tagwire: %s.%s: pointer to %s is not supported", d.name, sf.Name, ft.Kind())
		}

		fd := &fieldDesc{
			name:     sf.Name,
			tag:      tag,
			index:    i,
			optional: optional,
			typ:      td,
		}
		if prev, dup := d.byTag[tag]; dup {
			return nil, fmt.Errorf("tagwire: %s: fields %s and %s share wire tag %d", d.name, prev.name, sf.Name, tag)
		}
		d.byTag[tag] = fd
		d.fields = append(d.fields, fd)
	}

	if d.union {
		for _, f := range d.fields {
			if !f.optional {
				return nil, fmt.Errorf("tagwire: union %s: field %s must be optional", d.name, f.name)
			}
		}
	}

	// fields slice stays in tag order so encode output is deterministic
	for i := 1; i < len(d.fields); i++ {
		for j := i; j > 0 && d.fields[j-1].tag > d.fields[j].tag; j-- {
			d.fields[j-1], d.fields[j] = d.fields[j], d.fields[j-1]
		}
	}

	delete(b.building, rt)
	if cached, loaded := descCache.LoadOrStore(rt, d); loaded {
		return cached.(*structDesc), nil
	}
	return d, nil
}

func isScalar(k kind) bool {
	switch k {
	case kindBool, kindInt, kindDouble, kindString:
		return true
	}
	return false
}

func (b *descBuilder) typeOf(rt reflect.Type, asSet bool) (*typeDesc, error) {
	td := &typeDesc{rt: rt}
	switch rt.Kind() {
	case reflect.Bool:
		td.kind, td.wt = kindBool, wire.TVarint
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		td.kind, td.wt = kindInt, wire.TVarint
	case reflect.Float64:
		td.kind, td.wt = kindDouble, wire.TFixed8
	case reflect.String:
		td.kind, td.wt = kindString, wire.TBytes
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			if asSet {
				return nil, fmt.Errorf("byte slices cannot be sets")
			}
			td.kind, td.wt = kindBytes, wire.TBytes
			return td, nil
		}
		elem, err := b.elemOf(rt.Elem())
		if err != nil {
			return nil, err
		}
		if asSet {
			if !rt.Elem().Comparable() {
				return nil, fmt.Errorf("set element type %s is not comparable", rt.Elem())
			}
			td.kind, td.wt = kindSet, wire.TSet
		} else {
			td.kind, td.wt = kindList, wire.TList
		}
		td.elem = elem
	case reflect.Map:
		key, err := b.elemOf(rt.Key())
		if err != nil {
			return nil, err
		}
		switch key.kind {
		case kindBool, kindInt, kindString, kindStruct:
		default:
			return nil, fmt.Errorf("map key type %s is not supported", rt.Key())
		}
		if key.ptr {
			return nil, fmt.Errorf("map key type %s must not be a pointer", rt.Key())
		}
		elem, err := b.elemOf(rt.Elem())
		if err != nil {
			return nil, err
		}
		td.kind, td.wt = kindMap, wire.TMap
		td.key = key
		td.elem = elem
	case reflect.Struct:
		sd, err := b.structOf(rt)
		if err != nil {
			return nil, err
		}
		td.kind, td.wt = kindStruct, wire.TStruct
		td.str = sd
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, rt.Kind())
	}
	if asSet && td.kind != kindSet {
		return nil, fmt.Errorf("set option requires a slice field, got %s", rt.Kind())
	}
	return td, nil
}

// elemOf describes a container element or map key position. A pointer is
// only meaningful there when it points at a struct.
func (b *descBuilder) elemOf(rt reflect.Type) (*typeDesc, error) {
	if rt.Kind() == reflect.Pointer {
		if rt.Elem().Kind() != reflect.Struct {
			return nil, fmt.Errorf("pointer to %s is not supported inside containers", rt.Elem().Kind())
		}
		td, err := b.typeOf(rt.Elem(), false)
		if err != nil {
			return nil, err
		}
		td.ptr = true
		return td, nil
	}
	return b.typeOf(rt, false)
}
