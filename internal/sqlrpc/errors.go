package sqlrpc

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken means no bearer token was available; no request was sent.
	ErrMissingToken = errors.New("remote bearer token not configured")

	// ErrUnavailable wraps transport failures (dial, TLS, reset, cancellation).
	ErrUnavailable = errors.New("remote service unavailable")

	// ErrNoPayload means an event stream carried no JSON data frame.
	ErrNoPayload = errors.New("no JSON data frame in event stream")

	// ErrShapeMismatch means the response parsed but the expected result path
	// was absent or had the wrong type.
	ErrShapeMismatch = errors.New("response missing expected result")
)

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned status %d", e.Status)
}

// DecodeError is returned when a response body cannot be turned into a
// JSON-RPC message. Stage is one of "read", "frame" or "json".
type DecodeError struct {
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response (%s): %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// RPCError is the JSON-RPC error object returned by the remote service.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
