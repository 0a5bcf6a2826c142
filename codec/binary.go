package codec

import "github.com/undertide/tagwire"

// Binary is a Codec over the tagwire binary format. V must be a struct type
// (or pointer to one) whose fields carry `wire` tags. The zero value is
// ready to use; the shape descriptor is built and cached on first call.
type Binary[V any] struct{}

var _ Codec[struct{}] = Binary[struct{}]{}

func (Binary[V]) Encode(v V) ([]byte, error) {
	return tagwire.Marshal(v)
}

func (Binary[V]) Decode(b []byte) (V, error) {
	var v V
	err := tagwire.Unmarshal(b, &v)
	return v, err
}
