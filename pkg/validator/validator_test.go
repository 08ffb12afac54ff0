package validator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	gvalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milan604/travelplanner-client/pkg/apperr"
)

type signup struct {
	Username        string `json:"username" binding:"required,min=3,max=50"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	Email           string `json:"email" binding:"omitempty,email"`
}

type search struct {
	Destination string `form:"destination" binding:"required"`
}

type byID struct {
	ID string `uri:"id" binding:"required,uuid"`
}

func init() { gin.SetMode(gin.TestMode) }

func ctxWithBody(body string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestBindJSONValid(t *testing.T) {
	vi := New()
	req, appErr := BindJSON[signup](vi, ctxWithBody(`{"username":"alice","password":"secret1","confirmPassword":"secret1"}`))
	require.Nil(t, appErr)
	assert.Equal(t, "alice", req.Username)
}

func TestBindJSONValidationMessages(t *testing.T) {
	vi := New()
	tests := map[string]struct {
		body  string
		field string
		msg   string
	}{
		"short username": {`{"username":"al","password":"secret1","confirmPassword":"secret1"}`, "username", "username length must be at least 3"},
		"missing":        {`{"password":"secret1","confirmPassword":"secret1"}`, "username", "username is required"},
		"mismatch":       {`{"username":"alice","password":"secret1","confirmPassword":"secret2"}`, "confirmPassword", "confirmPassword must match password"},
		"bad email":      {`{"username":"alice","password":"secret1","confirmPassword":"secret1","email":"x"}`, "email", "field email failed on 'email' validation"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, appErr := BindJSON[signup](vi, ctxWithBody(tt.body))
			require.NotNil(t, appErr)
			assert.True(t, apperr.Is(appErr, apperr.ErrorCodeInvalidRequest))
			assert.Equal(t, 400, appErr.BusinessCode)
			assert.Equal(t, tt.msg, appErr.Message)
			require.NotEmpty(t, appErr.Suggestions)
			assert.Equal(t, tt.field, appErr.Suggestions[0].Field)
		})
	}
}

func TestBindJSONMalformed(t *testing.T) {
	vi := New()
	_, appErr := BindJSON[signup](vi, ctxWithBody(`{"username":`))
	require.NotNil(t, appErr)
	assert.Equal(t, "invalid JSON payload", appErr.Message)

	_, appErr = BindJSON[signup](vi, ctxWithBody(`{"username":5}`))
	require.NotNil(t, appErr)
	assert.Equal(t, "invalid type for field username: expected string", appErr.Message)
}

func TestBindQueryAndURI(t *testing.T) {
	vi := New()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?destination=Rome", nil)
	q, appErr := BindQuery[search](vi, c)
	require.Nil(t, appErr)
	assert.Equal(t, "Rome", q.Destination)

	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	_, appErr = BindQuery[search](vi, c)
	require.NotNil(t, appErr)
	assert.Equal(t, "destination is required", appErr.Message)

	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	_, appErr = BindURI[byID](vi, c)
	require.NotNil(t, appErr)
	assert.Equal(t, "id", appErr.Suggestions[0].Field)
}

func TestCustomValidationAndTagError(t *testing.T) {
	vi := New()
	require.NoError(t, vi.RegisterValidation("destination", func(fl gvalidator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	vi.RegisterTagError("destination", apperr.ErrorCodeNotFound, func(fe gvalidator.FieldError) string {
		return "where to?"
	})

	type trip struct {
		To string `json:"to" binding:"destination"`
	}
	appErr := vi.Struct(trip{To: "  "})
	require.NotNil(t, appErr)
	assert.True(t, apperr.Is(appErr, apperr.ErrorCodeNotFound))
	assert.Equal(t, "where to?", appErr.Message)
	assert.Nil(t, vi.Struct(trip{To: "Oslo"}))
}

func TestParseErrorFallbacks(t *testing.T) {
	vi := New()
	assert.Nil(t, vi.ParseError(nil))
	appErr := vi.ParseError(errors.New("weird"))
	assert.Equal(t, "invalid input: weird", appErr.Message)
	assert.True(t, apperr.Is(appErr, apperr.ErrorCodeInvalidRequest))
}
