package grpcwire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// ErrShortPayload is returned by a Decoder that was handed fewer bytes than
// one complete message. The stream hands decoders exactly the number of
// bytes the frame header declared, so seeing this during Recv means the
// peer's length prefix disagrees with the encoding and the call fails with
// an Internal status.
var ErrShortPayload = errors.New("payload shorter than one complete message")

// Decoder deserializes one message from a frame payload. The payload slice
// is only valid for the duration of the call; implementations that retain
// the bytes must copy them.
type Decoder[T any] interface {
	Decode(payload []byte) (T, error)
}

// Encoder serializes one message into the payload bytes of a frame.
type Encoder[T any] interface {
	Encode(msg T) ([]byte, error)
}

// ProtoCodec encodes and decodes protobuf messages. The type parameter is
// the generated pointer type, e.g. ProtoCodec[*pb.HelloRequest].
type ProtoCodec[T proto.Message] struct{}

// Decode unmarshals a fresh message of type T from payload.
func (ProtoCodec[T]) Decode(payload []byte) (T, error) {
	var zero T
	// A typed nil still carries the descriptor, so New allocates a real value.
	msg := zero.ProtoReflect().New().Interface().(T)
	if err := proto.Unmarshal(payload, msg); err != nil {
		return zero, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return msg, nil
}

// Encode marshals msg to its serialized form.
func (ProtoCodec[T]) Encode(msg T) ([]byte, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}

// RawCodec passes payload bytes through unchanged. Decode copies, since the
// stream reuses its buffer across frames.
type RawCodec struct{}

func (RawCodec) Decode(payload []byte) ([]byte, error) {
	msg := make([]byte, len(payload))
	copy(msg, payload)
	return msg, nil
}

func (RawCodec) Encode(msg []byte) ([]byte, error) {
	return msg, nil
}
