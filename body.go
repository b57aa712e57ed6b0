package grpcwire

import (
	"context"
	"io"
	"net/http"

	"google.golang.org/grpc/metadata"
)

// Body is the chunked byte source a Stream decodes from: typically an HTTP/2
// response body, but any transport that delivers bytes in chunks and
// metadata after the final chunk can implement it.
//
// Next returns the next chunk of body bytes, io.EOF once the body is
// exhausted, or a transport error. Trailers must only be called after Next
// has returned io.EOF.
type Body interface {
	Next(ctx context.Context) ([]byte, error)
	Trailers(ctx context.Context) (metadata.MD, error)
}

// httpBody adapts an *http.Response into a Body. Chunks come from reading
// the response body; trailers are whatever the response carries once the
// body has been drained.
type httpBody struct {
	resp *http.Response
}

// HTTPBody wraps an HTTP response as a Body. The caller keeps ownership of
// the response; closing resp.Body cancels the stream.
func HTTPBody(resp *http.Response) Body {
	return &httpBody{resp: resp}
}

func (b *httpBody) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunk := make([]byte, 32*1024)
	n, err := b.resp.Body.Read(chunk)
	if n > 0 {
		// Deliver the bytes first; a terminal error resurfaces on the
		// next call.
		return chunk[:n], nil
	}
	if err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (b *httpBody) Trailers(ctx context.Context) (metadata.MD, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// http.Response.Trailer is populated once the body reaches EOF.
	md := metadata.MD{}
	for key, values := range b.resp.Trailer {
		md.Append(key, values...)
	}
	if len(md) == 0 {
		return nil, nil
	}
	return md, nil
}

// bufferBody serves a fixed set of chunks followed by fixed trailers. Used
// by tests and by callers that already hold a complete body in memory.
type bufferBody struct {
	chunks      [][]byte
	trailers    metadata.MD
	err         error // delivered after the chunks instead of EOF
	trailersErr error
}

// BufferBody returns a Body that yields the given chunks in order, then EOF,
// then the given trailers.
func BufferBody(chunks [][]byte, trailers metadata.MD) Body {
	return &bufferBody{chunks: chunks, trailers: trailers}
}

func (b *bufferBody) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(b.chunks) == 0 {
		if b.err != nil {
			return nil, b.err
		}
		return nil, io.EOF
	}
	chunk := b.chunks[0]
	b.chunks = b.chunks[1:]
	return chunk, nil
}

func (b *bufferBody) Trailers(ctx context.Context) (metadata.MD, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.trailersErr != nil {
		return nil, b.trailersErr
	}
	return b.trailers, nil
}
