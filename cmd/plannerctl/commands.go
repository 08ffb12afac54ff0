package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/pflag"

	"github.com/milan604/travelplanner-client/pkg/planner"
)

type command struct {
	help string
	run  func(ctx context.Context, a *app, args []string) error
}

const (
	usageLogin    = "login <username|email> <password>"
	usageRegister = "register <username> <password> [--email e] [--phone p] [--nickname n]"
	usagePlan     = "plan <id>"
	usageUpdate   = "update <id> [create flags] [--status s]"
	usageDelete   = "delete <id>"
	usageOpen     = "open <id>"
)

var commands = map[string]command{
	"login":    {usageLogin, cmdLogin},
	"register": {usageRegister, cmdRegister},
	"logout":   {"forget the stored token", cmdLogout},
	"status":   {"report whether a token is stored", cmdStatus},
	"plans":    {"list plans [--search destination]", cmdPlans},
	"plan":     {usagePlan, cmdPlan},
	"create":   {"create --title t --destination d --start YYYY-MM-DD --end YYYY-MM-DD [--budget n] [--people n]", cmdCreate},
	"update":   {usageUpdate, cmdUpdate},
	"delete":   {usageDelete, cmdDelete},
	"open":     {usageOpen + ": check the session, then open the plan page", cmdOpen},
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func exactArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: plannerctl %s", usage)
	}
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	if err := exactArgs(args, 2, usageLogin); err != nil {
		return err
	}
	resp, err := a.planner.Login(ctx, planner.LoginRequest{Username: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	return a.print(resp.User)
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	nickname := fs.String("nickname", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := exactArgs(fs.Args(), 2, usageRegister); err != nil {
		return err
	}
	resp, err := a.planner.Register(ctx, planner.RegisterRequest{
		Username:        fs.Arg(0),
		Password:        fs.Arg(1),
		ConfirmPassword: fs.Arg(1),
		Email:           *email,
		Phone:           *phone,
		Nickname:        *nickname,
	})
	if err != nil {
		return err
	}
	return a.print(resp.User)
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	return a.planner.Logout(ctx)
}

func cmdStatus(ctx context.Context, a *app, _ []string) error {
	if a.planner.IsLoggedIn(ctx) {
		_, err := fmt.Fprintln(a.out, "logged in")
		return err
	}
	_, err := fmt.Fprintln(a.out, "not logged in")
	return err
}

func cmdPlans(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("plans", pflag.ContinueOnError)
	search := fs.String("search", "", "only plans whose destination contains this")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var (
		plans []planner.TravelPlan
		err   error
	)
	if *search != "" {
		plans, err = a.planner.SearchPlans(ctx, *search)
	} else {
		plans, err = a.planner.ListPlans(ctx)
	}
	if err != nil {
		return err
	}
	return a.print(plans)
}

func cmdPlan(ctx context.Context, a *app, args []string) error {
	if err := exactArgs(args, 1, usagePlan); err != nil {
		return err
	}
	p, err := a.planner.GetPlan(ctx, args[0])
	if err != nil {
		return err
	}
	return a.print(p)
}

type planFlags struct {
	fs          *pflag.FlagSet
	title       *string
	destination *string
	start       *string
	end         *string
	budget      *float64
	people      *int
	preferences *string
	planJSON    *string
}

func newPlanFlags(name string) *planFlags {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	return &planFlags{
		fs:          fs,
		title:       fs.String("title", "", "plan title"),
		destination: fs.String("destination", "", "destination"),
		start:       fs.String("start", "", "start date, YYYY-MM-DD"),
		end:         fs.String("end", "", "end date, YYYY-MM-DD"),
		budget:      fs.Float64("budget", 0, "budget"),
		people:      fs.Int("people", 1, "number of travellers"),
		preferences: fs.String("preferences", "", "free-form preferences"),
		planJSON:    fs.String("plan-json", "", "inline itinerary JSON document"),
	}
}

func (p *planFlags) document() (json.RawMessage, error) {
	if *p.planJSON == "" {
		return nil, nil
	}
	if !json.Valid([]byte(*p.planJSON)) {
		return nil, errors.New("--plan-json is not valid JSON")
	}
	return json.RawMessage(*p.planJSON), nil
}

func cmdCreate(ctx context.Context, a *app, args []string) error {
	pf := newPlanFlags("create")
	if err := pf.fs.Parse(args); err != nil {
		return err
	}
	doc, err := pf.document()
	if err != nil {
		return err
	}
	p, err := a.planner.CreatePlan(ctx, planner.CreatePlanRequest{
		Title:       *pf.title,
		Destination: *pf.destination,
		StartDate:   *pf.start,
		EndDate:     *pf.end,
		Budget:      *pf.budget,
		PeopleCount: *pf.people,
		Preferences: *pf.preferences,
		PlanJSON:    doc,
	})
	if err != nil {
		return err
	}
	return a.print(p)
}

func cmdUpdate(ctx context.Context, a *app, args []string) error {
	pf := newPlanFlags("update")
	status := pf.fs.String("status", "", "draft, planned, completed or cancelled")
	if err := pf.fs.Parse(args); err != nil {
		return err
	}
	if err := exactArgs(pf.fs.Args(), 1, usageUpdate); err != nil {
		return err
	}
	doc, err := pf.document()
	if err != nil {
		return err
	}
	p, err := a.planner.UpdatePlan(ctx, planner.UpdatePlanRequest{
		ID:          pf.fs.Arg(0),
		Title:       *pf.title,
		Destination: *pf.destination,
		StartDate:   *pf.start,
		EndDate:     *pf.end,
		Budget:      *pf.budget,
		PeopleCount: *pf.people,
		Preferences: *pf.preferences,
		PlanJSON:    doc,
		Status:      *status,
	})
	if err != nil {
		return err
	}
	return a.print(p)
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	if err := exactArgs(args, 1, usageDelete); err != nil {
		return err
	}
	return a.planner.DeletePlan(ctx, args[0])
}

func cmdOpen(ctx context.Context, a *app, args []string) error {
	if err := exactArgs(args, 1, usageOpen); err != nil {
		return err
	}
	return a.planner.OpenPlanPage(ctx, args[0])
}
