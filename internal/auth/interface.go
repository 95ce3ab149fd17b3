package auth

import "docforge/internal/domain/models"

// TokenVerifier defines the interface for access token verification.
// This abstraction allows mocking in tests and swapping signing schemes.
type TokenVerifier interface {
	// VerifyToken validates a token string and returns the claims if valid
	VerifyToken(tokenString string) (*models.AccessClaims, error)
}
