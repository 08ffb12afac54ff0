// Package backend is an in-memory implementation of the travel planner HTTP
// API. It answers with {code,message,data} envelopes and rejects bad or
// missing bearer tokens with HTTP 401.
package backend

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/auth"
	"github.com/milan604/travelplanner-client/pkg/envelope"
	"github.com/milan604/travelplanner-client/pkg/logger"
	"github.com/milan604/travelplanner-client/pkg/planner"
	"github.com/milan604/travelplanner-client/pkg/server/middleware"
	"github.com/milan604/travelplanner-client/pkg/validator"
)

type Handler struct {
	store     *Store
	tokens    *auth.Tokens
	generator Generator
	validator *validator.Validator
	log       logger.LogManager
}

type Option func(*Handler)

func WithGenerator(g Generator) Option {
	return func(h *Handler) {
		if g != nil {
			h.generator = g
		}
	}
}

func WithStore(s *Store) Option {
	return func(h *Handler) {
		if s != nil {
			h.store = s
		}
	}
}

func WithLogger(l logger.LogManager) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

func NewHandler(tokens *auth.Tokens, opts ...Option) (*Handler, error) {
	if tokens == nil {
		return nil, errors.New("backend: nil token service")
	}
	h := &Handler{
		store:     NewStore(),
		tokens:    tokens,
		generator: OutlineGenerator{},
		validator: validator.New(),
		log:       logger.NewNop(),
	}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// Store exposes the handler's data.
func (h *Handler) Store() *Store { return h.store }

func (h *Handler) authResponse(c *gin.Context, u planner.User, message string) {
	tok, exp, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		_ = c.Error(err)
		return
	}
	envelope.SuccessMessage(c, message, planner.AuthResponse{
		Success:    true,
		Message:    message,
		Token:      tok,
		User:       &u,
		ExpireTime: exp.UnixMilli(),
	})
}

func (h *Handler) register(c *gin.Context) {
	req, appErr := validator.BindJSON[planner.RegisterRequest](h.validator, c)
	if appErr != nil {
		envelope.Fail(c, appErr)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	u, err := h.store.CreateUser(c.Request.Context(), planner.User{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Nickname: req.Nickname,
	}, hash)
	if err != nil {
		envelope.HandleError(c, err)
		return
	}
	middleware.GetLogger(c).InfoFCtx(c.Request.Context(), "registered user %s", u.Username)
	h.authResponse(c, u, "registered")
}

func (h *Handler) login(c *gin.Context) {
	req, appErr := validator.BindJSON[planner.LoginRequest](h.validator, c)
	if appErr != nil {
		envelope.Fail(c, appErr)
		return
	}
	u, hash, ok := h.store.FindLogin(c.Request.Context(), req.Username)
	if !ok || !auth.CheckPassword(hash, req.Password) {
		middleware.GetLogger(c).WarnFCtx(c.Request.Context(), "failed login for %q", req.Username)
		envelope.Fail(c, apperr.New(apperr.ErrorCodeLoginFailed))
		return
	}
	h.authResponse(c, u, "logged in")
}

func userID(c *gin.Context) string {
	claims, _ := auth.GetClaims(c)
	return claims.UserID()
}

func (h *Handler) createPlan(c *gin.Context) {
	req, appErr := validator.BindJSON[planner.CreatePlanRequest](h.validator, c)
	if appErr != nil {
		envelope.Fail(c, appErr)
		return
	}
	days, err := planner.TripDays(req.StartDate, req.EndDate)
	if err != nil {
		envelope.Fail(c, apperr.New(apperr.ErrorCodeInvalidRequest).WithMessage(err.Error()))
		return
	}
	if req.PeopleCount == 0 {
		req.PeopleCount = 1
	}
	doc := req.PlanJSON
	if len(doc) == 0 {
		if doc, err = h.generator.Generate(c.Request.Context(), *req); err != nil {
			middleware.GetLogger(c).WarnFCtx(c.Request.Context(), "generate itinerary: %v", err)
			doc = nil
		}
	}
	plan := h.store.CreatePlan(c.Request.Context(), userID(c), planner.TravelPlan{
		Title:       req.Title,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		PeopleCount: req.PeopleCount,
		Preferences: req.Preferences,
		PlanJSON:    doc,
		Days:        days,
	})
	envelope.Success(c, plan)
}

func (h *Handler) listPlans(c *gin.Context) {
	envelope.Success(c, h.store.Plans(c.Request.Context(), userID(c), ""))
}

type searchQuery struct {
	Destination string `form:"destination" binding:"required"`
}

func (h *Handler) searchPlans(c *gin.Context) {
	q, appErr := validator.BindQuery[searchQuery](h.validator, c)
	if appErr != nil {
		envelope.Fail(c, appErr)
		return
	}
	envelope.Success(c, h.store.Plans(c.Request.Context(), userID(c), q.Destination))
}

type planURI struct {
	ID string `uri:"id" binding:"required"`
}

func (h *Handler) getPlan(c *gin.Context) {
	p, appErr := validator.BindURI[planURI](h.validator, c)
	if appErr != nil {
		envelope.Fail(c, appErr)
		return
	}
	plan, err := h.store.Plan(c.Request.Context(), userID(c), p.ID)
	if err != nil {
		envelope.HandleError(c, err)
		return
	}
	envelope.Success(c, plan)
}

func (h *Handler) updatePlan(c *gin.Context) {
	req, appErr := validator.BindJSON[planner.UpdatePlanRequest](h.validator, c)
	if appErr != nil {
		envelope.Fail(c, appErr)
		return
	}
	days, err := planner.TripDays(req.StartDate, req.EndDate)
	if err != nil {
		envelope.Fail(c, apperr.New(apperr.ErrorCodeInvalidRequest).WithMessage(err.Error()))
		return
	}
	plan, err := h.store.UpdatePlan(c.Request.Context(), userID(c), req.ID, func(p *planner.TravelPlan) {
		p.Title = req.Title
		p.Destination = req.Destination
		p.StartDate = req.StartDate
		p.EndDate = req.EndDate
		p.Budget = req.Budget
		if req.PeopleCount > 0 {
			p.PeopleCount = req.PeopleCount
		}
		p.Preferences = req.Preferences
		if len(req.PlanJSON) > 0 {
			p.PlanJSON = req.PlanJSON
		}
		if req.Status != "" {
			p.Status = req.Status
		}
		p.Days = days
	})
	if err != nil {
		envelope.HandleError(c, err)
		return
	}
	envelope.Success(c, plan)
}

func (h *Handler) deletePlan(c *gin.Context) {
	p, appErr := validator.BindURI[planURI](h.validator, c)
	if appErr != nil {
		envelope.Fail(c, appErr)
		return
	}
	if err := h.store.DeletePlan(c.Request.Context(), userID(c), p.ID); err != nil {
		envelope.HandleError(c, err)
		return
	}
	envelope.SuccessMessage(c, "deleted", nil)
}
