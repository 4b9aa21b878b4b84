package auth

import "context"

// Identity is the caller identity resolved by the transport layer. The
// core only consumes the subject (for ownership checks) and the optional
// display name.
type Identity struct {
	Subject     string
	DisplayName string
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying the resolved identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the identity resolved by the middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
