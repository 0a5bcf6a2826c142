package codec

import "github.com/goccy/go-json"

// JSON is a Codec that serializes values as JSON via goccy/go-json, a
// drop-in, faster encoding/json. Useful for debugging payloads by eye;
// note it cannot express the unset vs. explicit-default distinction for
// non-pointer fields the way the binary format can.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
