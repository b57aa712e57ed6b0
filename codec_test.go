package grpcwire

import (
	"context"
	"io"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// TestProtoCodecRoundTrip verifies that protobuf messages survive encode,
// framing, chunked delivery, and decode
func TestProtoCodecRoundTrip(t *testing.T) {
	codec := ProtoCodec[*wrapperspb.StringValue]{}

	inputs := []string{"first message", "", "third message with more content"}

	var wire []byte
	for _, s := range inputs {
		payload, err := codec.Encode(wrapperspb.String(s))
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		wire = append(wire, EncodeFrame(payload)...)
	}

	for _, size := range []int{1, 6, len(wire)} {
		stream := NewRequestStream[*wrapperspb.StringValue](codec,
			BufferBody(splitChunks(wire, size), nil))

		for i, want := range inputs {
			msg, err := stream.Recv(context.Background())
			if err != nil {
				t.Fatalf("Recv %d failed (chunk size %d): %v", i, size, err)
			}
			if msg.GetValue() != want {
				t.Errorf("Message %d: expected %q, got %q", i, want, msg.GetValue())
			}
		}

		if _, err := stream.Recv(context.Background()); err != io.EOF {
			t.Errorf("Expected io.EOF after last message, got %v", err)
		}
	}
}

// TestProtoCodecDecodeError verifies that undecodable payload bytes
// terminate the stream with an Internal failure
func TestProtoCodecDecodeError(t *testing.T) {
	codec := ProtoCodec[*wrapperspb.StringValue]{}

	// 0xff repeated is not a valid StringValue encoding
	wire := EncodeFrame([]byte{0xff, 0xff, 0xff, 0xff})
	stream := NewRequestStream[*wrapperspb.StringValue](codec,
		BufferBody([][]byte{wire}, nil))

	_, err := stream.Recv(context.Background())
	if status.Code(err) != codes.Internal {
		t.Fatalf("Expected Internal, got %v", err)
	}
}

// TestRawCodecCopies verifies the raw codec does not alias the stream's
// internal buffer
func TestRawCodecCopies(t *testing.T) {
	payload := []byte("original")

	msg, err := RawCodec{}.Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	payload[0] = 'X'
	if string(msg) != "original" {
		t.Errorf("Decoded message aliases the input: got %q", msg)
	}
}
