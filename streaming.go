package grpcwire

import (
	"bytes"
	"context"
	"errors"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// direction classifies which side of the exchange a stream decodes.
type direction int

const (
	// directionRequest decodes a client-to-server body; no trailer check.
	directionRequest direction = iota
	// directionResponse decodes a server-to-client body and converts
	// trailers into the call outcome after the body ends.
	directionResponse
	// directionEmptyResponse decodes a body that carries no messages.
	directionEmptyResponse
)

// StreamOption configures stream behavior
type StreamOption struct {
	// MaxMessageSize sets the maximum frame payload size (default 4MB)
	MaxMessageSize uint32
}

// Stream decodes length-prefixed messages of type T out of a chunked Body.
//
// A Stream is created per RPC call and driven by a single consumer calling
// Recv until it reports a terminal condition: io.EOF for a clean end, or a
// *status.Status error for a framing violation, codec failure, transport
// failure, or (for response streams) a non-OK grpc-status trailer. Once
// terminal, every further Recv repeats the same result.
//
// A Stream must not be shared between goroutines.
type Stream[T any] struct {
	decoder   Decoder[T]
	body      Body
	direction direction

	// httpStatus is the transport-level response status used when trailers
	// carry no grpc-status; only meaningful for directionResponse.
	httpStatus int

	maxMessageSize uint32

	buf     bytes.Buffer
	pending *frameHeader // parsed header awaiting its payload; nil between messages

	terminal     error // io.EOF or the failure that ended the stream
	trailers     metadata.MD
	haveTrailers bool
}

// NewRequestStream creates a stream decoding a client-to-server body.
// Request streams never consult trailers.
func NewRequestStream[T any](decoder Decoder[T], body Body, opts ...StreamOption) *Stream[T] {
	return newStream(decoder, body, directionRequest, 0, opts)
}

// NewResponseStream creates a stream decoding a server-to-client body.
// After the body ends cleanly the stream reads trailers and infers the call
// outcome from them; httpStatus is the transport's HTTP response status,
// used when the trailers carry no grpc-status.
func NewResponseStream[T any](decoder Decoder[T], body Body, httpStatus int, opts ...StreamOption) *Stream[T] {
	return newStream(decoder, body, directionResponse, httpStatus, opts)
}

// NewEmptyResponseStream creates a stream for a response body that carries
// no messages, only a terminal check. Recv reports io.EOF once the body is
// drained; leftover bytes are still a framing violation.
func NewEmptyResponseStream[T any](decoder Decoder[T], body Body, opts ...StreamOption) *Stream[T] {
	return newStream(decoder, body, directionEmptyResponse, 0, opts)
}

func newStream[T any](decoder Decoder[T], body Body, dir direction, httpStatus int, opts []StreamOption) *Stream[T] {
	maxMessageSize := uint32(DefaultMaxMessageSize)
	if len(opts) > 0 && opts[0].MaxMessageSize > 0 {
		maxMessageSize = opts[0].MaxMessageSize
	}

	return &Stream[T]{
		decoder:        decoder,
		body:           body,
		direction:      dir,
		httpStatus:     httpStatus,
		maxMessageSize: maxMessageSize,
	}
}

// Recv returns the next decoded message. It blocks on the Body while a
// frame is incomplete; ctx bounds that wait. At most one message is decoded
// per call even when several complete frames are buffered.
//
// Terminal results: io.EOF after the last message of a clean stream, or a
// *status.Status error. Both are sticky.
func (s *Stream[T]) Recv(ctx context.Context) (T, error) {
	var zero T

	if s.terminal != nil {
		return zero, s.terminal
	}

	for {
		msg, ok, err := s.decodeFrame()
		if err != nil {
			return zero, s.fail(err)
		}
		if ok {
			return msg, nil
		}

		// Need more data than the buffer holds.
		chunk, err := s.body.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if s.buf.Len() > 0 {
					return zero, s.fail(status.Error(codes.Internal,
						"unexpected EOF decoding stream"))
				}
				break
			}
			return zero, s.fail(statusFromTransportError(err))
		}
		s.buf.Write(chunk)
	}

	if s.direction == directionResponse {
		trailers, err := s.readTrailers(ctx)
		if err != nil {
			return zero, s.fail(statusFromTransportError(err))
		}
		if err := inferStatus(trailers, s.httpStatus); err != nil {
			return zero, s.fail(err)
		}
	}

	s.terminal = io.EOF
	return zero, io.EOF
}

// decodeFrame attempts to extract one message from the buffered bytes. It
// never touches the Body. Returns ok=false with a nil error when more data
// is needed, and a terminal error for malformed frames or codec failures.
func (s *Stream[T]) decodeFrame() (T, bool, error) {
	var zero T

	if s.pending == nil {
		hdr, ok := parseFrameHeader(s.buf.Bytes())
		if !ok {
			return zero, false, nil
		}

		switch hdr.flag {
		case flagUncompressed:
		case flagCompressed:
			return zero, false, status.Error(codes.Unimplemented,
				"message compressed, compression is not supported")
		default:
			return zero, false, status.Errorf(codes.Internal,
				"unexpected compression flag: 0x%02x", hdr.flag)
		}

		if hdr.length > s.maxMessageSize {
			return zero, false, status.Errorf(codes.ResourceExhausted,
				"message of %d bytes exceeds maximum of %d bytes",
				hdr.length, s.maxMessageSize)
		}

		s.pending = &hdr
	}

	if s.buf.Len() < frameHeaderSize+int(s.pending.length) {
		return zero, false, nil
	}

	// The full frame is buffered: drop the header, hand the payload to the
	// codec, and return to awaiting the next header.
	s.buf.Next(frameHeaderSize)
	payload := s.buf.Next(int(s.pending.length))
	s.pending = nil

	msg, err := s.decoder.Decode(payload)
	if err != nil {
		if errors.Is(err, ErrShortPayload) {
			// The length prefix promised these bytes held one message.
			return zero, false, status.Error(codes.Internal,
				"codec requested more bytes than the frame declared")
		}
		if st, ok := status.FromError(err); ok {
			return zero, false, st.Err()
		}
		return zero, false, status.Error(codes.Internal, err.Error())
	}
	return msg, true, nil
}

// Trailers returns the raw trailing metadata. It must only be called after
// Recv has reported a terminal condition; for response streams the value
// read during status inference is returned without consulting the Body
// again.
func (s *Stream[T]) Trailers(ctx context.Context) (metadata.MD, error) {
	md, err := s.readTrailers(ctx)
	if err != nil {
		return nil, statusFromTransportError(err)
	}
	return md, nil
}

func (s *Stream[T]) readTrailers(ctx context.Context) (metadata.MD, error) {
	if s.haveTrailers {
		return s.trailers, nil
	}
	md, err := s.body.Trailers(ctx)
	if err != nil {
		return nil, err
	}
	s.trailers = md
	s.haveTrailers = true
	return md, nil
}

// fail latches err as the stream's terminal result.
func (s *Stream[T]) fail(err error) error {
	s.terminal = err
	return err
}
