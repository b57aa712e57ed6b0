// Package grpcwire implements the gRPC length-prefixed message framing used
// on HTTP/2 data streams and compatible chunked transports. It turns the
// arbitrarily-sized byte chunks delivered by a transport into a sequence of
// decoded messages, and converts trailing metadata into a final RPC outcome
// for response streams.
package grpcwire

import (
	"encoding/binary"
)

// Compression flag values matching the gRPC wire protocol
const (
	flagUncompressed = 0x00 // Payload is the raw serialized message
	flagCompressed   = 0x01 // Payload is compressed (not supported)
)

// frameHeaderSize is the fixed message prefix: 1 byte compression flag
// followed by a 4-byte big-endian unsigned payload length.
const frameHeaderSize = 5

// DefaultMaxMessageSize is the largest payload a stream accepts unless
// configured otherwise.
const DefaultMaxMessageSize = 4 * 1024 * 1024 // 4MB default

// frameHeader is the parsed form of the 5-byte prefix. It only exists
// transiently while a frame is being extracted from the buffer.
type frameHeader struct {
	flag   uint8
	length uint32
}

// parseFrameHeader reads a frame header from the front of data without
// consuming it. Returns false if fewer than 5 bytes are available.
//
// Frame Layout (5-byte header + payload):
// - Byte 0: Compression flag (uint8)
// - Bytes 1-4: Payload length (uint32, Big Endian)
// - Bytes 5+: Payload (byte array)
func parseFrameHeader(data []byte) (frameHeader, bool) {
	if len(data) < frameHeaderSize {
		return frameHeader{}, false
	}

	return frameHeader{
		flag:   data[0],
		length: binary.BigEndian.Uint32(data[1:5]),
	}, true
}

// EncodeFrame encodes a single message payload into wire format by
// prepending the 5-byte uncompressed frame header.
func EncodeFrame(payload []byte) []byte {
	frame := make([]byte, frameHeaderSize+len(payload))

	// Byte 0: Compression flag (uint8)
	frame[0] = flagUncompressed

	// Bytes 1-4: Length (uint32, Big Endian)
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(payload)))

	// Bytes 5+: Payload
	copy(frame[frameHeaderSize:], payload)

	return frame
}
