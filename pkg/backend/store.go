package backend

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/planner"
)

type userRecord struct {
	planner.User
	PasswordHash string
}

type planRecord struct {
	planner.TravelPlan
	OwnerID   string
	UpdatedAt time.Time
}

// Store keeps users and plans in memory. Lookups by username and email are
// case-insensitive.
type Store struct {
	mu         sync.RWMutex
	users      map[string]*userRecord
	byUsername map[string]string
	byEmail    map[string]string
	plans      map[string]*planRecord
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]*userRecord),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		plans:      make(map[string]*planRecord),
		now:        time.Now,
	}
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// CreateUser stores a new user. Usernames and non-empty emails are unique.
func (s *Store) CreateUser(_ context.Context, u planner.User, passwordHash string) (planner.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[fold(u.Username)]; ok {
		return planner.User{}, apperr.New(apperr.ErrorCodeUsernameExists)
	}
	if u.Email != "" {
		if _, ok := s.byEmail[fold(u.Email)]; ok {
			return planner.User{}, apperr.New(apperr.ErrorCodeEmailExists)
		}
	}

	now := s.now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = &userRecord{User: u, PasswordHash: passwordHash}
	s.byUsername[fold(u.Username)] = u.ID
	if u.Email != "" {
		s.byEmail[fold(u.Email)] = u.ID
	}
	return u, nil
}

// FindLogin returns the user whose username, or failing that email, is login.
func (s *Store) FindLogin(_ context.Context, login string) (planner.User, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[fold(login)]
	if !ok {
		id, ok = s.byEmail[fold(login)]
	}
	if !ok {
		return planner.User{}, "", false
	}
	rec := s.users[id]
	return rec.User, rec.PasswordHash, true
}

func (s *Store) UserByID(_ context.Context, id string) (planner.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return planner.User{}, false
	}
	return rec.User, true
}

// CreatePlan stores p for owner, assigning id, status and creation time.
func (s *Store) CreatePlan(_ context.Context, ownerID string, p planner.TravelPlan) planner.TravelPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	if p.Status == "" {
		p.Status = planner.StatusDraft
	}
	s.plans[p.ID] = &planRecord{TravelPlan: p, OwnerID: ownerID, UpdatedAt: now}
	return p
}

// Plan returns plan id if owner may see it.
func (s *Store) Plan(_ context.Context, ownerID, id string) (planner.TravelPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, err := s.owned(ownerID, id)
	if err != nil {
		return planner.TravelPlan{}, err
	}
	return rec.TravelPlan, nil
}

func (s *Store) owned(ownerID, id string) (*planRecord, error) {
	rec, ok := s.plans[id]
	if !ok {
		return nil, apperr.New(apperr.ErrorCodePlanNotFound)
	}
	if rec.OwnerID != ownerID {
		return nil, apperr.New(apperr.ErrorCodeNoPermission)
	}
	return rec, nil
}

// Plans lists owner's plans, newest first. A non-empty destination keeps only
// plans whose destination contains it, ignoring case.
func (s *Store) Plans(_ context.Context, ownerID, destination string) []planner.TravelPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := fold(destination)
	out := make([]planner.TravelPlan, 0)
	for _, rec := range s.plans {
		if rec.OwnerID != ownerID {
			continue
		}
		if needle != "" && !strings.Contains(fold(rec.Destination), needle) {
			continue
		}
		out = append(out, rec.TravelPlan)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// UpdatePlan applies fn to owner's plan id and stores the result. ID and
// CreatedAt are preserved.
func (s *Store) UpdatePlan(_ context.Context, ownerID, id string, fn func(*planner.TravelPlan)) (planner.TravelPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.owned(ownerID, id)
	if err != nil {
		return planner.TravelPlan{}, err
	}
	p := rec.TravelPlan
	fn(&p)
	p.ID, p.CreatedAt = rec.ID, rec.CreatedAt
	rec.TravelPlan = p
	rec.UpdatedAt = s.now().UTC()
	return p, nil
}

func (s *Store) DeletePlan(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(ownerID, id); err != nil {
		return err
	}
	delete(s.plans, id)
	return nil
}
