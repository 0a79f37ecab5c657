// Package requestid carries a per-request correlation ID through contexts.
package requestid

import "context"

type contextKey struct{}

// Header is the HTTP and message header carrying the ID.
const Header = "X-Request-ID"

// With returns a copy of ctx carrying id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// From returns the request ID stored in ctx, or "".
func From(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
