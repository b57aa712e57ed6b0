package grpcwire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Well-known trailer keys carrying the RPC outcome
const (
	statusKey  = "grpc-status"
	messageKey = "grpc-message"
)

// inferStatus converts the trailing metadata of a response stream into the
// call outcome. A grpc-status of 0 is success (nil). A non-zero grpc-status
// is the call's failure, with grpc-message as its text. A missing or
// unparseable grpc-status on an otherwise clean stream is a protocol
// violation, reported with a code derived from the transport's HTTP status.
func inferStatus(trailers metadata.MD, httpStatus int) error {
	if trailers != nil {
		if values := trailers.Get(statusKey); len(values) > 0 {
			code, err := strconv.Atoi(values[0])
			if err != nil {
				return status.Errorf(codes.Internal,
					"invalid grpc-status trailer: %q", values[0])
			}
			if codes.Code(code) == codes.OK {
				return nil
			}

			msg := ""
			if values := trailers.Get(messageKey); len(values) > 0 {
				msg = values[0]
			}
			return status.Error(codes.Code(code), msg)
		}
	}

	if httpStatus != http.StatusOK {
		return status.Error(codeFromHTTPStatus(httpStatus),
			fmt.Sprintf("no grpc-status trailer, HTTP status %d", httpStatus))
	}
	return status.Error(codes.Internal, "missing grpc-status trailer")
}

// codeFromHTTPStatus maps an HTTP status code to a gRPC code, following the
// gRPC HTTP/2 transport mapping.
func codeFromHTTPStatus(httpStatus int) codes.Code {
	switch httpStatus {
	case http.StatusBadRequest:
		return codes.Internal
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.Unimplemented
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return codes.Unavailable
	default:
		return codes.Unknown
	}
}

// statusFromTransportError wraps a Body failure as the call's terminal
// status. Errors that already carry a gRPC status keep their code;
// cancellation and deadline errors keep their meaning.
func statusFromTransportError(err error) error {
	if s, ok := status.FromError(err); ok {
		return s.Err()
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Unavailable, err.Error())
}
