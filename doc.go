// Package tagwire implements a compact, tag-based binary codec for schema
// shapes declared as plain Go structs: records with optional tagged fields,
// enums, sets, maps (including composite struct keys), unions, and exception
// records. Field identity on the wire is a small integer tag, never a name,
// so producers and consumers can evolve independently: unknown tags are
// skipped exactly, missing optional fields stay unset.
//
// Components:
//   - Marshal/Unmarshal: reflection-driven encode/decode over `wire` struct
//     tags, byte-for-byte round-trip safe including the unset vs.
//     present-with-default distinction (pointer fields).
//   - codec: pluggable Codec[V] implementations (Binary, CBOR, Msgpack,
//     JSON, Protobuf) plus a decode-size limiter.
//   - rpc: the service-contract surface — an Invoker transport collaborator,
//     a Client, and a method Registry. Transports themselves live elsewhere.
//
// Shape declaration:
//
//	type Profile struct {
//	    ID    *int64            `wire:"1"`
//	    Name  *string           `wire:"2"`
//	    Attrs map[string]string `wire:"3"`
//	    Roles []int32           `wire:"4,set"`
//	}
//
// Encode and decode are purely functional over caller-owned buffers and are
// safe for concurrent use.
package tagwire
