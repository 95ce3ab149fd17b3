package httputil

import (
	"context"
	"net/http"
)

// userIDKey is unexported so only this package can stash the identity;
// handlers read it back through GetUserID.
type userIDKey struct{}

// WithUserID returns the request with the authenticated user's ID in its
// context. Set by the auth middleware after token verification.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID))
}

// GetUserID returns the authenticated user ID, or "" on an
// unauthenticated request (e.g. a public path).
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey{}).(string)
	return userID
}
