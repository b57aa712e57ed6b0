package grpcwire

import (
	"fmt"
	"io"
)

// FrameWriter writes length-prefixed frames to an underlying writer. It is
// the send-side counterpart of Stream: each message becomes one 5-byte
// header plus payload.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter wraps w for frame output.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// Write frames one already-serialized payload onto the wire.
func (fw *FrameWriter) Write(payload []byte) error {
	if _, err := fw.w.Write(EncodeFrame(payload)); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// WriteMsg serializes msg with enc and frames it onto the wire.
func WriteMsg[T any](fw *FrameWriter, enc Encoder[T], msg T) error {
	payload, err := enc.Encode(msg)
	if err != nil {
		return err
	}
	return fw.Write(payload)
}
