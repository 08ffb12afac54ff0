package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/milan604/travelplanner-client/pkg/planner"
)

// Generator produces the itinerary document stored as a plan's planJson when
// the caller does not supply one.
type Generator interface {
	Generate(ctx context.Context, req planner.CreatePlanRequest) (json.RawMessage, error)
}

type GeneratorFunc func(ctx context.Context, req planner.CreatePlanRequest) (json.RawMessage, error)

func (f GeneratorFunc) Generate(ctx context.Context, req planner.CreatePlanRequest) (json.RawMessage, error) {
	return f(ctx, req)
}

// OutlineGenerator emits one empty day entry per trip day.
type OutlineGenerator struct{}

type outlineDay struct {
	Day      int    `json:"day"`
	Date     string `json:"date"`
	Title    string `json:"title"`
	Schedule []any  `json:"schedule"`
}

type outline struct {
	Plan struct {
		Destination string       `json:"destination"`
		StartDate   string       `json:"start_date"`
		EndDate     string       `json:"end_date"`
		TotalDays   int          `json:"total_days"`
		Budget      float64      `json:"budget"`
		PeopleCount int          `json:"people_count"`
		Days        []outlineDay `json:"days"`
	} `json:"plan"`
}

func (OutlineGenerator) Generate(_ context.Context, req planner.CreatePlanRequest) (json.RawMessage, error) {
	days, err := planner.TripDays(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	start, _ := time.Parse(planner.DateLayout, req.StartDate)

	var o outline
	o.Plan.Destination = req.Destination
	o.Plan.StartDate = req.StartDate
	o.Plan.EndDate = req.EndDate
	o.Plan.TotalDays = days
	o.Plan.Budget = req.Budget
	o.Plan.PeopleCount = req.PeopleCount
	o.Plan.Days = make([]outlineDay, days)
	for i := range o.Plan.Days {
		o.Plan.Days[i] = outlineDay{
			Day:      i + 1,
			Date:     start.AddDate(0, 0, i).Format(planner.DateLayout),
			Title:    fmt.Sprintf("Day %d in %s", i+1, req.Destination),
			Schedule: []any{},
		}
	}
	return json.Marshal(o)
}
