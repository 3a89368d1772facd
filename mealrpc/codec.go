package mealrpc

import (
	"encoding/json"
	"fmt"

	grpcEncoding "google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/proto" // ensure default proto codec is registered first
	"google.golang.org/protobuf/proto"
)

func init() {
	// Replace the default proto codec with a wrapper that JSON-encodes the
	// Meals messages and delegates every protobuf message to proto.
	grpcEncoding.RegisterCodec(codec{})
}

// message is implemented by every request and response type of the service.
type message interface {
	isMealMsg()
}

func (*HealthRequest) isMealMsg()          {}
func (*HealthResponse) isMealMsg()         {}
func (*CategoriesRequest) isMealMsg()      {}
func (*MealsByCategoryRequest) isMealMsg() {}
func (*SearchRequest) isMealMsg()          {}
func (*RandomRequest) isMealMsg()          {}
func (*LookupRequest) isMealMsg()          {}
func (*ClearCacheRequest) isMealMsg()      {}
func (*ClearCacheResponse) isMealMsg()     {}
func (*DataResponse) isMealMsg()           {}

type codec struct{}

func (codec) Name() string { return "proto" }

func (codec) Marshal(v any) ([]byte, error) {
	if _, ok := v.(message); ok {
		return json.Marshal(v)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("mealrpc codec: unsupported message type %T", v)
}

func (codec) Unmarshal(data []byte, v any) error {
	if _, ok := v.(message); ok {
		return json.Unmarshal(data, v)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("mealrpc codec: unsupported message type %T", v)
}
