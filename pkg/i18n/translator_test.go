package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCatalogs(t *testing.T) {
	tr := Default()

	assert.Equal(t, "session expired, please log in again", tr.T("en", "session_expired", nil))
	assert.Equal(t, "登录已过期，请重新登录", tr.T("zh-CN", "session_expired", nil))
	assert.ElementsMatch(t, []string{"en", "zh-CN"}, tr.Locales(DefaultDomain))
}

func TestFallbackToDefaultLocaleAndKey(t *testing.T) {
	tr := New(WithBuiltin(), WithDefaultLocale("en"))

	assert.Equal(t, "request failed", tr.T("fr", "business_failure", nil))
	assert.Equal(t, "no_such_key", tr.T("en", "no_such_key", nil))
	assert.Equal(t, "fallback", tr.MessageIn("en", "no_such_key", "fallback"))
}

func TestMessageUsesContextLocale(t *testing.T) {
	tr := New(WithBuiltin())
	ctx := ContextWithLocale(context.Background(), "zh-CN")

	assert.Equal(t, "网络请求失败，请检查网络连接", tr.Message(ctx, "network_failure", "x"))
	assert.Equal(t, "zh-CN", LocaleFromContext(ctx))
	assert.Equal(t, "", LocaleFromContext(context.Background()))
}

func TestInterpolation(t *testing.T) {
	tr := New()
	tr.Add(DefaultDomain, "en", "greet", "hello {{ user.name }}, {{missing}}")

	out := tr.T("en", "greet", map[string]any{"user": map[string]any{"name": "ada"}})
	assert.Equal(t, "hello ada, {{missing}}", out)
}

func TestWithJSONDirOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"business_failure":"it broke"}`), 0o600))

	tr := New(WithBuiltin(), WithJSONDir(DefaultDomain, dir))
	assert.Equal(t, "it broke", tr.T("en", "business_failure", nil))

	v, err := tr.Lookup("en", "business_failure")
	require.NoError(t, err)
	assert.Equal(t, "it broke", v)
	_, err = tr.Lookup("de", "business_failure")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBestMatch(t *testing.T) {
	tr := New(WithBuiltin())
	assert.Equal(t, "zh-CN", tr.BestMatch("zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", tr.BestMatch("en-US"))
	assert.Equal(t, "en", tr.BestMatch(""))
}

func TestGinMiddlewareStoresLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tr := New(WithBuiltin())
	r := gin.New()
	r.Use(tr.GinMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, LocaleFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "zh-CN")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "zh-CN", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?lang=en", nil))
	assert.Equal(t, "en", w.Body.String())
}
