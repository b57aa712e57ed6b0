package grpcwire

import (
	"context"
	"testing"
)

// FuzzStreamRecv fuzzes the frame decoder with arbitrary body bytes split at
// an arbitrary chunk boundary, ensuring it neither panics nor runs forever.
func FuzzStreamRecv(f *testing.F) {
	// Seed corpus with valid and pathological streams
	f.Add([]byte{0x00, 0x00, 0x00, 0x00, 0x00}, 0)                               // Valid empty message
	f.Add([]byte{0x00, 0x00, 0x00, 0x00, 0x03, 0x41, 0x42, 0x43}, 2)            // "ABC" split mid-header
	f.Add([]byte{0x01, 0x00, 0x00, 0x00, 0x01, 0xff}, 1)                        // Compressed flag
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 4)            // Garbage
	f.Add([]byte{0x00, 0xff, 0xff, 0xff, 0xff}, 0)                              // Absurd declared length
	f.Add([]byte{}, 0)                                                          // Empty body
	f.Add([]byte{0x00, 0x00}, 1)                                                // Truncated header

	f.Fuzz(func(t *testing.T, data []byte, split int) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("Recv panicked with input length %d: %v", len(data), r)
			}
		}()

		if split < 0 {
			split = 0
		}
		if split > len(data) {
			split = len(data)
		}
		chunks := [][]byte{data[:split], data[split:]}

		stream := NewRequestStream[[]byte](RawCodec{}, BufferBody(chunks, nil),
			StreamOption{MaxMessageSize: 1 << 20})

		// A body of len(data) bytes can hold at most len(data)/5 messages,
		// so termination within that budget plus one is required.
		budget := len(data)/frameHeaderSize + 1
		for i := 0; i <= budget; i++ {
			if _, err := stream.Recv(context.Background()); err != nil {
				return
			}
		}
		t.Errorf("Stream failed to terminate within %d messages", budget)
	})
}
