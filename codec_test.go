package tagwire

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/undertide/tagwire/internal/wire"
)

func ptr[T any](v T) *T { return &v }

type inner struct {
	ID   int32 `wire:"1"`
	Code int64 `wire:"2"`
}

type record struct {
	Num   *int64            `wire:"1"`
	Txt   *string           `wire:"2"`
	Flag  *bool             `wire:"3"`
	Ratio *float64          `wire:"4"`
	Raw   []byte            `wire:"5"`
	Ints  []int32           `wire:"6,set"`
	Attrs map[string]string `wire:"7"`
	Items []*inner          `wire:"8"`
	Sub   *inner            `wire:"9"`
	ByKey map[inner]int64   `wire:"10"`
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	cases := []record{
		{}, // everything unset
		{
			Num:   ptr(int64(-77)),
			Txt:   ptr("hello"),
			Flag:  ptr(true),
			Ratio: ptr(0.1),
			Raw:   []byte{0, 1, 2},
			Ints:  []int32{3, 1, 2},
			Attrs: map[string]string{"a": "1", "b": "2"},
			Items: []*inner{{ID: 1, Code: 2}, {ID: 3, Code: -4}},
			Sub:   &inner{ID: 9, Code: 10},
			ByKey: map[inner]int64{{ID: 1, Code: 2}: 5, {ID: 3, Code: 4}: -6},
		},
		// explicit defaults are present, not unset
		{
			Num:   ptr(int64(0)),
			Txt:   ptr(""),
			Flag:  ptr(false),
			Ratio: ptr(0.0),
			Raw:   []byte{},
			Attrs: map[string]string{},
			Items: []*inner{},
		},
	}
	for i, want := range cases {
		buf := mustMarshal(t, &want)
		var got record
		if err := Unmarshal(buf, &got); err != nil {
			t.Fatalf("case %d: Unmarshal: %v", i, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("case %d: round trip mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestUnsetVersusExplicitDefault(t *testing.T) {
	buf := mustMarshal(t, &record{Num: ptr(int64(0))})
	var got record
	if err := Unmarshal(buf, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Num == nil || *got.Num != 0 {
		t.Fatalf("explicit zero must decode present, got %v", got.Num)
	}
	if got.Txt != nil || got.Flag != nil || got.Raw != nil || got.Attrs != nil {
		t.Fatalf("unset fields must stay unset: %+v", got)
	}

	// present-but-empty containers survive as non-nil
	buf = mustMarshal(t, &record{Attrs: map[string]string{}, Raw: []byte{}})
	got = record{}
	if err := Unmarshal(buf, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Attrs == nil || len(got.Attrs) != 0 {
		t.Fatalf("present empty map lost: %v", got.Attrs)
	}
	if got.Raw == nil || len(got.Raw) != 0 {
		t.Fatalf("present empty bytes lost: %v", got.Raw)
	}
}

// recordV2 shares recordV1's tags and adds fields of several wire types;
// decoding its output with the older shape must skip them cleanly.
type recordV1 struct {
	Txt *string `wire:"2"`
	Num *int64  `wire:"1"`
}

type recordV2 struct {
	Num    *int64           `wire:"1"`
	Txt    *string          `wire:"2"`
	Extra  *string          `wire:"20"`
	Ratio  *float64         `wire:"21"`
	More   map[string]int64 `wire:"22"`
	List   []*inner         `wire:"23"`
	Nested *inner           `wire:"24"`
	Tags   []int32          `wire:"25,set"`
}

func TestUnknownTagsAreSkipped(t *testing.T) {
	v2 := recordV2{
		Num:    ptr(int64(11)),
		Txt:    ptr("keep"),
		Extra:  ptr("drop"),
		Ratio:  ptr(2.5),
		More:   map[string]int64{"x": 1},
		List:   []*inner{{ID: 1, Code: 2}},
		Nested: &inner{ID: 5, Code: 6},
		Tags:   []int32{1, 2, 3},
	}
	buf := mustMarshal(t, &v2)
	var v1 recordV1
	if err := Unmarshal(buf, &v1); err != nil {
		t.Fatalf("Unmarshal with unknown tags: %v", err)
	}
	if v1.Num == nil || *v1.Num != 11 || v1.Txt == nil || *v1.Txt != "keep" {
		t.Fatalf("known fields corrupted by skip: %+v", v1)
	}
}

func TestTruncation(t *testing.T) {
	buf := mustMarshal(t, &record{
		Txt:   ptr("hello world"),
		Ratio: ptr(0.1),
		Attrs: map[string]string{"key": "value"},
		Items: []*inner{{ID: 1, Code: 2}},
	})
	for i := 0; i < len(buf); i++ {
		var got record
		err := Unmarshal(buf[:i], &got)
		if err == nil {
			t.Fatalf("decode of %d-byte prefix (of %d) succeeded", i, len(buf))
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("prefix %d: expected *DecodeError, got %T: %v", i, err, err)
		}
	}
}

func TestTrailingBytes(t *testing.T) {
	buf := mustMarshal(t, &record{Num: ptr(int64(1))})
	buf = append(buf, 0xDE, 0xAD)
	var got record
	if err := Unmarshal(buf, &got); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
}

type strField struct {
	X *string `wire:"1"`
}

type intField struct {
	X *int64 `wire:"1"`
}

func TestWireTypeMismatch(t *testing.T) {
	buf := mustMarshal(t, &intField{X: ptr(int64(5))})
	var got strField
	if err := Unmarshal(buf, &got); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

type narrow struct {
	X *int8 `wire:"1"`
}

func TestIntOverflowIsMismatch(t *testing.T) {
	buf := mustMarshal(t, &intField{X: ptr(int64(1000))})
	var got narrow
	if err := Unmarshal(buf, &got); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch on overflow, got %v", err)
	}
}

func TestSetPolicies(t *testing.T) {
	// encode rejects duplicates
	_, err := Marshal(&record{Ints: []int32{1, 2, 1}})
	if !errors.Is(err, ErrSetDuplicate) {
		t.Fatalf("expected ErrSetDuplicate, got %v", err)
	}
	var ee *EncodeError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EncodeError, got %T", err)
	}

	// decode dedupes silently: craft a set payload with a repeated element
	w := &wire.Writer{}
	w.FieldHeader(wire.TSet, 6)
	w.Byte(wire.TVarint)
	w.Uvarint(3)
	w.Varint(1)
	w.Varint(2)
	w.Varint(2)
	w.Stop()
	var got record
	if err := Unmarshal(w.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Ints) != 2 || got.Ints[0] != 1 || got.Ints[1] != 2 {
		t.Fatalf("set decode must dedupe: %v", got.Ints)
	}
}

type pick struct {
	A *int64  `wire:"1"`
	B *string `wire:"2"`
}

func (*pick) WireUnion() {}

// pickTwin shares pick's tags without the union marker, for crafting
// invariant-violating buffers.
type pickTwin struct {
	A *int64  `wire:"1"`
	B *string `wire:"2"`
}

func TestUnionEncodeStrict(t *testing.T) {
	if _, err := Marshal(&pick{}); !errors.Is(err, ErrUnionEmpty) {
		t.Fatalf("expected ErrUnionEmpty, got %v", err)
	}
	if _, err := Marshal(&pick{A: ptr(int64(1)), B: ptr("x")}); !errors.Is(err, ErrUnionConflict) {
		t.Fatalf("expected ErrUnionConflict, got %v", err)
	}
	buf := mustMarshal(t, &pick{B: ptr("ok")})
	var got pick
	if err := Unmarshal(buf, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.A != nil || got.B == nil || *got.B != "ok" {
		t.Fatalf("union round trip: %+v", got)
	}
}

func TestUnionDecodeLenient(t *testing.T) {
	// both arms on the wire: the last one read wins
	buf := mustMarshal(t, &pickTwin{A: ptr(int64(1)), B: ptr("win")})
	var got pick
	if err := Unmarshal(buf, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.A != nil {
		t.Fatalf("losing union arm still set: %+v", got)
	}
	if got.B == nil || *got.B != "win" {
		t.Fatalf("last union arm must win: %+v", got)
	}

	// empty union body is an unknown state
	var empty pick
	if err := Unmarshal([]byte{0x00}, &empty); !errors.Is(err, ErrUnionState) {
		t.Fatalf("expected ErrUnionState, got %v", err)
	}
}

func TestDescriptorValidation(t *testing.T) {
	type dupTags struct {
		A *int64 `wire:"1"`
		B *int64 `wire:"1"`
	}
	if err := Register(dupTags{}); err == nil {
		t.Fatalf("expected error on duplicate tags")
	}

	type badTag struct {
		A *int64 `wire:"zero"`
	}
	if err := Register(badTag{}); err == nil {
		t.Fatalf("expected error on unparsable tag")
	}

	type setScalar struct {
		A *int64 `wire:"1,set"`
	}
	if err := Register(setScalar{}); err == nil {
		t.Fatalf("expected error on set option for a scalar")
	}

	if err := Register(42); err == nil {
		t.Fatalf("expected error on non-struct")
	}
}

func TestMarshalRejectsNonStruct(t *testing.T) {
	if _, err := Marshal("nope"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	var nilRec *record
	if _, err := Marshal(nilRec); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType on nil pointer, got %v", err)
	}
}

func TestUnmarshalTargetValidation(t *testing.T) {
	if err := Unmarshal([]byte{0x00}, record{}); err == nil {
		t.Fatalf("expected error on non-pointer target")
	}
	var p *record
	if err := Unmarshal([]byte{0x00}, p); err == nil {
		t.Fatalf("expected error on nil pointer target")
	}
}

func BenchmarkMarshal(b *testing.B) {
	v := &record{
		Num:   ptr(int64(-77)),
		Txt:   ptr("hello"),
		Ratio: ptr(0.1),
		Ints:  []int32{1, 2, 3, 4},
		Attrs: map[string]string{"a": "1", "b": "2"},
		Items: []*inner{{ID: 1, Code: 2}, {ID: 3, Code: 4}},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	v := &record{
		Num:   ptr(int64(-77)),
		Txt:   ptr("hello"),
		Ratio: ptr(0.1),
		Ints:  []int32{1, 2, 3, 4},
		Attrs: map[string]string{"a": "1", "b": "2"},
		Items: []*inner{{ID: 1, Code: 2}, {ID: 3, Code: 4}},
	}
	buf, err := Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var got record
		if err := Unmarshal(buf, &got); err != nil {
			b.Fatal(err)
		}
	}
}
