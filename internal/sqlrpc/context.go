package sqlrpc

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// callIDContextKey is the context key for the correlation ID of remote calls.
type callIDContextKey struct{}

// WithCallID returns a new context carrying id as the call correlation ID.
func WithCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callIDContextKey{}, id)
}

// CallIDFromContext extracts the call ID, minting a fresh ULID when absent.
func CallIDFromContext(ctx context.Context) string {
	id, ok := ctx.Value(callIDContextKey{}).(string)
	if !ok || id == "" {
		return NewCallID()
	}
	return id
}

// NewCallID returns a new ULID string.
func NewCallID() string {
	return ulid.Make().String()
}
