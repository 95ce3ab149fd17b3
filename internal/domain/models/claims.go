package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the JWT claim set carried by API and websocket tokens.
// Subject holds the user ID.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// UserID returns the subject claim
func (c *AccessClaims) UserID() string {
	return c.Subject
}
