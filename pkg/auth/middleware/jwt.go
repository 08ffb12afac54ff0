package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/auth"
	"github.com/milan604/travelplanner-client/pkg/envelope"
)

// Verifier checks a bearer token.
type Verifier interface {
	Verify(tok string) (auth.Claims, error)
}

// JWTConfig configures JWTAuth middleware.
type JWTConfig struct {
	Verifier   Verifier
	HeaderName string // default: Authorization
	// OnReject replaces the envelope response, e.g. for HTML pages.
	OnReject func(c *gin.Context, appErr *apperr.AppError)
}

// JWTAuth validates bearer tokens and injects claims into context. A missing
// token is rejected with unauthorized, a bad one with invalid_token or
// token_expired; all three travel as HTTP 401.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Authorization"
	}
	reject := cfg.OnReject
	if reject == nil {
		reject = envelope.Abort
	}

	return func(c *gin.Context) {
		tok, ok := BearerToken(c.GetHeader(cfg.HeaderName))
		if !ok {
			reject(c, apperr.New(apperr.ErrorCodeUnauthorized))
			c.Abort()
			return
		}
		claims, err := cfg.Verifier.Verify(tok)
		if err != nil {
			reject(c, apperr.FromError(err))
			c.Abort()
			return
		}
		auth.SetClaims(c, claims)
		c.Next()
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" value.
func BearerToken(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}
