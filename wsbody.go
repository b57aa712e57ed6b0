package grpcwire

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/grpc/metadata"
	"nhooyr.io/websocket"
)

// wsBody adapts a WebSocket connection into a Body. Binary messages carry
// body chunks; a single text message carries the trailers as newline-
// separated "key: value" lines and ends the body; a normal closure ends the
// body with no trailers.
type wsBody struct {
	conn     *websocket.Conn
	trailers metadata.MD
	done     bool
}

// WebSocketBody wraps a WebSocket connection as a Body. The caller must be
// the connection's only reader.
func WebSocketBody(conn *websocket.Conn) Body {
	return &wsBody{conn: conn}
}

func (b *wsBody) Next(ctx context.Context) ([]byte, error) {
	if b.done {
		return nil, io.EOF
	}

	for {
		msgType, data, err := b.conn.Read(ctx)
		if err != nil {
			b.done = true
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read error: %w", err)
		}

		switch msgType {
		case websocket.MessageBinary:
			return data, nil
		case websocket.MessageText:
			b.trailers = parseTrailerText(string(data))
			b.done = true
			return nil, io.EOF
		}
	}
}

func (b *wsBody) Trailers(ctx context.Context) (metadata.MD, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.trailers, nil
}

// WebSocketWriter is the send side of a WebSocket-framed body: chunks go
// out as binary messages, trailers as a final text message. A single
// goroutine must own the writer.
type WebSocketWriter struct {
	conn *websocket.Conn
}

// NewWebSocketWriter wraps a connection for body output.
func NewWebSocketWriter(conn *websocket.Conn) *WebSocketWriter {
	return &WebSocketWriter{conn: conn}
}

// SendChunk delivers one chunk of body bytes to the peer.
func (w *WebSocketWriter) SendChunk(ctx context.Context, data []byte) error {
	if err := w.conn.Write(ctx, websocket.MessageBinary, data); err != nil {
		return fmt.Errorf("failed to send chunk: %w", err)
	}
	return nil
}

// SendTrailers delivers the trailing metadata and marks the body complete.
// The connection stays open; the peer treats the text message as EOF.
func (w *WebSocketWriter) SendTrailers(ctx context.Context, trailers metadata.MD) error {
	text := formatTrailerText(trailers)
	if err := w.conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
		return fmt.Errorf("failed to send trailers: %w", err)
	}
	return nil
}

// formatTrailerText serializes metadata as newline-separated "key: value"
// lines.
func formatTrailerText(trailers metadata.MD) string {
	var lines []string
	for key, values := range trailers {
		for _, value := range values {
			lines = append(lines, fmt.Sprintf("%s: %s", key, value))
		}
	}
	return strings.Join(lines, "\n")
}

// parseTrailerText parses newline-separated "key: value" lines into
// metadata. Keys are lowercased; malformed lines are skipped.
func parseTrailerText(text string) metadata.MD {
	md := metadata.MD{}
	for _, line := range strings.Split(text, "\n") {
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		idx := strings.Index(line, ":")
		if idx == -1 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		md.Append(key, value)
	}
	return md
}
