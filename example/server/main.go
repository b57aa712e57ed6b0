package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"nhooyr.io/websocket"

	"github.com/grpcwire/grpcwire"
)

// handleStream upgrades the request to a WebSocket and streams a few framed
// protobuf messages followed by trailers, the shape a grpcwire response
// stream decodes on the other end.
func handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Development only
	})
	if err != nil {
		log.Printf("[Example Server] Failed to accept WebSocket connection: %v", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	log.Printf("[Example Server] WebSocket connection established from %s", r.RemoteAddr)

	ctx := r.Context()
	writer := grpcwire.NewWebSocketWriter(conn)
	codec := grpcwire.ProtoCodec[*wrapperspb.StringValue]{}

	for i := 1; i <= 5; i++ {
		payload, err := codec.Encode(wrapperspb.String(fmt.Sprintf("update %d at %s", i, time.Now().Format(time.RFC3339))))
		if err != nil {
			log.Printf("[Example Server] Failed to encode message: %v", err)
			return
		}

		if err := writer.SendChunk(ctx, grpcwire.EncodeFrame(payload)); err != nil {
			log.Printf("[Example Server] Failed to send frame: %v", err)
			return
		}
		log.Printf("[Example Server] Sent message %d (%d bytes)", i, len(payload))

		time.Sleep(200 * time.Millisecond)
	}

	trailers := metadata.Pairs("grpc-status", "0")
	if err := writer.SendTrailers(ctx, trailers); err != nil {
		log.Printf("[Example Server] Failed to send trailers: %v", err)
		return
	}

	conn.Close(websocket.StatusNormalClosure, "goodbye")
	log.Printf("[Example Server] Stream completed")
}

func main() {
	http.HandleFunc("/stream", handleStream)

	log.Println("[Example Server] Starting grpcwire example server on :8080")
	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatalf("[Example Server] Failed to start server: %v", err)
	}
}
