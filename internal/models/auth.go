package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access token payload. The caller identity is the username,
// carried in Username or, for tokens that omit it, the subject.
type JWTClaims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the username the token was issued for.
func (c *JWTClaims) Identity() string {
	if c == nil {
		return ""
	}
	if c.Username != "" {
		return c.Username
	}
	return c.Subject
}
