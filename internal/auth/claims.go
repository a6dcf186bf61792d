// Package auth applies bearer authentication and the admin policy to the GenID API.
package auth

import (
	"context"

	authlib "example.com/genid/internal/platform/auth"
)

// Claims are the validated token claims; Subject is the GenID user id.
type Claims = authlib.Claims

// Config carries the token verification settings.
type Config = authlib.Config

// WithClaims stores the caller's claims in the request context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return authlib.WithClaims(ctx, claims)
}

// FromContext returns the caller's claims, if the request carried a valid token.
func FromContext(ctx context.Context) (*Claims, bool) {
	return authlib.FromContext(ctx)
}

// CallerID returns the signed-in user's id, or "" for anonymous requests.
func CallerID(ctx context.Context) string {
	return authlib.SubjectFrom(ctx)
}
