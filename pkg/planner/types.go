package planner

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of plan dates.
const DateLayout = "2006-01-02"

// Plan statuses.
const (
	StatusDraft     = "draft"
	StatusPlanned   = "planned"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=50"`
	Password        string `json:"password" binding:"required,min=6,max=50"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	Email           string `json:"email,omitempty" binding:"omitempty,email"`
	Phone           string `json:"phone,omitempty" binding:"omitempty,max=20"`
	Nickname        string `json:"nickname,omitempty" binding:"omitempty,max=50"`
}

// AuthResponse is the data of a successful login or registration.
// ExpireTime is the token lifetime in milliseconds.
type AuthResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Token      string `json:"token"`
	User       *User  `json:"user,omitempty"`
	ExpireTime int64  `json:"expireTime"`
}

type TravelPlan struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Destination string          `json:"destination"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	Budget      float64         `json:"budget"`
	PeopleCount int             `json:"peopleCount"`
	Preferences string          `json:"preferences,omitempty"`
	PlanJSON    json.RawMessage `json:"planJson,omitempty"`
	Status      string          `json:"status"`
	Days        int             `json:"days"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type CreatePlanRequest struct {
	Title       string          `json:"title" binding:"required,max=100"`
	Destination string          `json:"destination" binding:"required,max=100"`
	StartDate   string          `json:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate     string          `json:"endDate" binding:"required,datetime=2006-01-02"`
	Budget      float64         `json:"budget" binding:"gte=0"`
	PeopleCount int             `json:"peopleCount" binding:"omitempty,gte=1"`
	Preferences string          `json:"preferences,omitempty"`
	PlanJSON    json.RawMessage `json:"planJson,omitempty"`
}

// UpdatePlanRequest replaces the editable fields of plan ID.
type UpdatePlanRequest struct {
	ID          string          `json:"id" binding:"required,uuid"`
	Title       string          `json:"title" binding:"required,max=100"`
	Destination string          `json:"destination" binding:"required,max=100"`
	StartDate   string          `json:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate     string          `json:"endDate" binding:"required,datetime=2006-01-02"`
	Budget      float64         `json:"budget" binding:"gte=0"`
	PeopleCount int             `json:"peopleCount" binding:"omitempty,gte=1"`
	Preferences string          `json:"preferences,omitempty"`
	PlanJSON    json.RawMessage `json:"planJson,omitempty"`
	Status      string          `json:"status,omitempty" binding:"omitempty,oneof=draft planned completed cancelled"`
}

// TripDays returns the inclusive number of days between two DateLayout
// dates. An end before the start is an error.
func TripDays(start, end string) (int, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return 0, fmt.Errorf("start date: %w", err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return 0, fmt.Errorf("end date: %w", err)
	}
	if e.Before(s) {
		return 0, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}
