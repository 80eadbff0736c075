// Package auth carries the authenticated owner identity across the request
// path. Login itself happens elsewhere; this package only consumes its
// result: the bearer token the remote backend resolves row ownership from.
// Nothing client-asserted beyond the token itself is trusted.
package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated principal a storage call acts for. The token
// is the whole identity; the backend resolves the user behind it, so no
// separate user id travels with it that a caller could spoof.
type Identity struct {
	Token string
}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the identity, reporting whether one is attached.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Middleware lifts the bearer token off incoming requests into the context.
// Requests without one pass through untouched; whether that is fatal is the
// engine's call (the local engine has no tenant concept at all).
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
			r = r.WithContext(WithIdentity(r.Context(), Identity{Token: token}))
		}
		next.ServeHTTP(w, r)
	})
}
