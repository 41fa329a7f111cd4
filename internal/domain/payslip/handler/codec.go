package handler

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec carries plain Go structs over Connect. It replaces the built-in
// "json" codec, which only handles generated protobuf messages.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// WithJSON selects the struct JSON codec on handlers and clients.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
