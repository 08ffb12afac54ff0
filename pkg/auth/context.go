package auth

import (
	"github.com/gin-gonic/gin"
)

// CtxAuthClaims is the gin context key holding verified Claims.
const CtxAuthClaims = "auth_claims"

// GetClaims retrieves the verified Claims from the request context.
func GetClaims(c *gin.Context) (Claims, bool) {
	val, exists := c.Get(CtxAuthClaims)
	if !exists {
		return Claims{}, false
	}
	claims, ok := val.(Claims)
	return claims, ok
}

// SetClaims stores claims for GetClaims.
func SetClaims(c *gin.Context, claims Claims) {
	c.Set(CtxAuthClaims, claims)
}
