package backend

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	authmw "github.com/milan604/travelplanner-client/pkg/auth/middleware"
	"github.com/milan604/travelplanner-client/pkg/envelope"
	"github.com/milan604/travelplanner-client/pkg/version"
)

// Register mounts every route on r. On a *gin.Engine unknown routes also
// answer with a not_found envelope.
func (h *Handler) Register(r gin.IRouter) {
	if e, ok := r.(*gin.Engine); ok {
		e.NoRoute(func(c *gin.Context) {
			envelope.Abort(c, apperr.New(apperr.ErrorCodeNotFound))
		})
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "build": version.Info()})
	})
	r.GET("/login.html", h.loginPage)
	r.GET("/plan-detail.html", authmw.JWTAuth(authmw.JWTConfig{Verifier: h.tokens, OnReject: rejectPage}), h.planPage)

	a := r.Group("/auth")
	a.POST("/register", h.register)
	a.POST("/login", h.login)

	plans := r.Group("/api/travel-plans", authmw.JWTAuth(authmw.JWTConfig{Verifier: h.tokens}))
	plans.POST("", h.createPlan)
	plans.GET("", h.listPlans)
	plans.PUT("", h.updatePlan)
	plans.GET("/search", h.searchPlans)
	plans.GET("/:id", h.getPlan)
	plans.DELETE("/:id", h.deletePlan)
}
