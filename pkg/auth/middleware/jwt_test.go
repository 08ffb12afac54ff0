package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func TestBearerToken(t *testing.T) {
	tests := map[string]struct {
		in   string
		tok  string
		want bool
	}{
		"ok":         {"Bearer abc", "abc", true},
		"lower":      {"bearer abc", "abc", true},
		"empty":      {"", "", false},
		"no token":   {"Bearer   ", "", false},
		"basic auth": {"Basic abc", "", false},
	}
	for name, tt := range tests {
		tok, ok := BearerToken(tt.in)
		assert.Equal(t, tt.want, ok, name)
		assert.Equal(t, tt.tok, tok, name)
	}
}

func TestJWTAuth(t *testing.T) {
	tokens, err := auth.NewTokens("secret", time.Hour)
	require.NoError(t, err)
	good, _, err := tokens.Issue("u1", "alice")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", JWTAuth(JWTConfig{Verifier: tokens}), func(c *gin.Context) {
		cl, ok := auth.GetClaims(c)
		require.True(t, ok)
		c.String(http.StatusOK, cl.Username)
	})

	get := func(authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("Bearer " + good)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	for authz, code := range map[string]int{"": 401, "Bearer junk": 1005} {
		w := get(authz)
		assert.Equal(t, http.StatusUnauthorized, w.Code, authz)
		var env struct {
			Code int `json:"code"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, code, env.Code, authz)
	}
}

func TestJWTAuthCustomReject(t *testing.T) {
	tokens, err := auth.NewTokens("secret", time.Hour)
	require.NoError(t, err)

	var rejected *apperr.AppError
	r := gin.New()
	r.GET("/page", JWTAuth(JWTConfig{Verifier: tokens, OnReject: func(c *gin.Context, e *apperr.AppError) {
		rejected = e
		c.String(http.StatusUnauthorized, "login first")
	}}), func(c *gin.Context) { c.String(http.StatusOK, "secret page") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "login first", w.Body.String())
	assert.True(t, apperr.Is(rejected, apperr.ErrorCodeUnauthorized))
}
