package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims captures the verified JWT context extracted from incoming requests.
// Subject is the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID returns the subject.
func (c Claims) UserID() string { return c.Subject }
