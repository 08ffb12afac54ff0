package backend

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/auth"
	"github.com/milan604/travelplanner-client/pkg/server/middleware"
)

//go:embed pages/*.html
var pagesFS embed.FS

var planTmpl = template.Must(template.ParseFS(pagesFS, "pages/plan-detail.html"))

const htmlContentType = "text/html; charset=utf-8"

func (h *Handler) loginPage(c *gin.Context) {
	b, err := pagesFS.ReadFile("pages/login.html")
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, b)
}

// planPage renders the detail page of ?id= for its owner. Without a valid
// session it answers 401, for another user's plan 403, for an unknown plan 404.
func (h *Handler) planPage(c *gin.Context) {
	claims, _ := auth.GetClaims(c)
	plan, err := h.store.Plan(c.Request.Context(), claims.UserID(), c.Query("id"))
	if err != nil {
		status := http.StatusNotFound
		if apperr.Is(err, apperr.ErrorCodeNoPermission) {
			status = http.StatusForbidden
		}
		c.String(status, apperr.FromError(err).Message)
		return
	}
	var buf bytes.Buffer
	if err := planTmpl.Execute(&buf, plan); err != nil {
		middleware.GetLogger(c).ErrorFCtx(c.Request.Context(), "render plan page: %v", err)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

func rejectPage(c *gin.Context, appErr *apperr.AppError) {
	c.String(http.StatusUnauthorized, appErr.Message)
}
