// Package planner wraps the travel planner endpoints on top of an
// authenticated apiclient.API.
package planner

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/milan604/travelplanner-client/pkg/apiclient"
	"github.com/milan604/travelplanner-client/pkg/credential"
	"github.com/milan604/travelplanner-client/pkg/logger"
)

// Endpoint paths.
const (
	PathLogin      = "/auth/login"
	PathRegister   = "/auth/register"
	PathPlans      = "/api/travel-plans"
	PathPlanSearch = "/api/travel-plans/search"
	PagePlanDetail = "plan-detail.html"
)

type Service struct {
	api   apiclient.API
	store credential.Store
	log   logger.LogManager
}

type Option func(*Service)

func WithLogger(l logger.LogManager) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a Service. store must be the store api reads its token from.
func New(api apiclient.API, store credential.Store, opts ...Option) *Service {
	s := &Service{api: api, store: store, log: logger.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login authenticates and stores the returned token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	return s.authenticate(ctx, PathLogin, req)
}

// Register creates an account and stores the returned token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	return s.authenticate(ctx, PathRegister, req)
}

func (s *Service) authenticate(ctx context.Context, path string, body any) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.api.RequestInto(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("planner: %s returned no token", path)
	}
	if err := s.store.Set(ctx, resp.Token); err != nil {
		return nil, fmt.Errorf("planner: store token: %w", err)
	}
	if resp.User != nil {
		s.log.InfoFCtx(ctx, "logged in as %s", resp.User.Username)
	}
	return &resp, nil
}

// Logout forgets the stored token. No request is made.
func (s *Service) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// IsLoggedIn reports whether a token is stored.
func (s *Service) IsLoggedIn(ctx context.Context) bool {
	return credential.HasToken(ctx, s.store)
}

func (s *Service) ListPlans(ctx context.Context) ([]TravelPlan, error) {
	var plans []TravelPlan
	if err := s.api.RequestInto(ctx, http.MethodGet, PathPlans, nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *Service) GetPlan(ctx context.Context, id string) (*TravelPlan, error) {
	var plan TravelPlan
	if err := s.api.RequestInto(ctx, http.MethodGet, planPath(id), nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *Service) CreatePlan(ctx context.Context, req CreatePlanRequest) (*TravelPlan, error) {
	var plan TravelPlan
	if err := s.api.RequestInto(ctx, http.MethodPost, PathPlans, req, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpdatePlan sends the whole request to PUT /api/travel-plans; the plan id
// travels in the body.
func (s *Service) UpdatePlan(ctx context.Context, req UpdatePlanRequest) (*TravelPlan, error) {
	var plan TravelPlan
	if err := s.api.RequestInto(ctx, http.MethodPut, PathPlans, req, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *Service) DeletePlan(ctx context.Context, id string) error {
	_, err := s.api.Delete(ctx, planPath(id))
	return err
}

// SearchPlans lists the caller's plans whose destination contains destination.
func (s *Service) SearchPlans(ctx context.Context, destination string) ([]TravelPlan, error) {
	q := url.Values{"destination": {destination}}
	var plans []TravelPlan
	if err := s.api.RequestInto(ctx, http.MethodGet, PathPlanSearch+"?"+q.Encode(), nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// OpenPlanPage opens the detail page of plan id after checking the session.
func (s *Service) OpenPlanPage(ctx context.Context, id string) error {
	return s.api.RedirectWithAuth(ctx, PlanPageURL(id))
}

// PlanPageURL is the relative detail page URL for plan id.
func PlanPageURL(id string) string {
	return PagePlanDetail + "?" + url.Values{"id": {id}}.Encode()
}

func planPath(id string) string {
	return PathPlans + "/" + url.PathEscape(strings.TrimSpace(id))
}
