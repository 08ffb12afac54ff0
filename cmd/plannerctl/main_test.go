package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/auth"
	"github.com/milan604/travelplanner-client/pkg/backend"
	"github.com/milan604/travelplanner-client/pkg/logger"
	"github.com/milan604/travelplanner-client/pkg/planner"
	"github.com/milan604/travelplanner-client/pkg/server"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	tokens, err := auth.NewTokens("cli-secret", time.Hour)
	require.NoError(t, err)
	h, err := backend.NewHandler(tokens)
	require.NoError(t, err)
	engine := server.NewEngine(server.WithLogger(logger.NewNop()))
	h.Register(engine)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

type cli struct {
	t    *testing.T
	base []string
}

func (c cli) run(args ...string) (string, error) {
	var out bytes.Buffer
	err := run(context.Background(), append(append([]string{}, c.base...), args...), &out, io.Discard)
	return out.String(), err
}

func (c cli) must(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, args)
	return out
}

func TestSessionAcrossInvocations(t *testing.T) {
	srv := newBackend(t)
	tokenFile := filepath.Join(t.TempDir(), "creds.json")
	c := cli{t: t, base: []string{"--base-url", srv.URL, "--token-file", tokenFile, "--log-level", "error"}}

	assert.Equal(t, "not logged in\n", c.must("status"))

	var u planner.User
	require.NoError(t, json.Unmarshal([]byte(c.must("register", "alice", "secret1", "--email", "alice@example.com")), &u))
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "logged in\n", c.must("status"))

	var p planner.TravelPlan
	out := c.must("create", "--title", "Lisbon", "--destination", "Lisbon", "--start", "2026-06-01", "--end", "2026-06-04", "--budget", "800", "--people", "2")
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, 4, p.Days)

	var plans []planner.TravelPlan
	require.NoError(t, json.Unmarshal([]byte(c.must("plans", "--search", "lis")), &plans))
	require.Len(t, plans, 1)

	out = c.must("update", p.ID, "--title", "Lisbon+", "--destination", "Lisbon", "--start", "2026-06-01", "--end", "2026-06-02", "--status", "planned")
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "Lisbon+", p.Title)
	assert.Equal(t, 2, p.Days)

	assert.Equal(t, "-> "+planner.PlanPageURL(p.ID)+"\n", c.must("open", p.ID))

	c.must("delete", p.ID)
	_, err := c.run("plan", p.ID)
	assert.True(t, apperr.Is(err, apperr.ErrorCodeBusinessFailure))

	c.must("logout")
	assert.Equal(t, "not logged in\n", c.must("status"))

	out, err = c.run("open", "whatever")
	assert.True(t, apperr.Is(err, apperr.ErrorCodeNotLoggedIn))
	assert.Equal(t, "-> login.html\n", out)

	c.must("login", "alice@example.com", "secret1")
	assert.Equal(t, "logged in\n", c.must("status"))
}

func TestRedisCredentialStore(t *testing.T) {
	srv := newBackend(t)
	mr := miniredis.RunT(t)
	c := cli{t: t, base: []string{"--base-url", srv.URL, "--store", "redis", "--redis-addr", mr.Addr(), "--log-level", "error"}}

	c.must("register", "bob", "secret1")
	tok, err := mr.Get("travelplanner:token")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	c.must("logout")
	assert.False(t, mr.Exists("travelplanner:token"))
}

func TestUsageErrors(t *testing.T) {
	c := cli{t: t, base: []string{"--token-file", filepath.Join(t.TempDir(), "c.json")}}

	_, err := c.run()
	assert.EqualError(t, err, "missing command")

	_, err = c.run("fly")
	assert.EqualError(t, err, `unknown command "fly"`)

	_, err = c.run("login", "only-user")
	assert.EqualError(t, err, "usage: plannerctl "+usageLogin)

	_, err = c.run("--store", "carrier-pigeon", "status")
	assert.Error(t, err)

	_, err = c.run("create", "--plan-json", "{")
	assert.EqualError(t, err, "--plan-json is not valid JSON")
}

func TestNetworkFailureIsReported(t *testing.T) {
	srv := newBackend(t)
	url := srv.URL
	srv.Close()
	c := cli{t: t, base: []string{"--base-url", url, "--token-file", filepath.Join(t.TempDir(), "c.json"), "--log-level", "error"}}

	_, err := c.run("plans")
	assert.True(t, apperr.Is(err, apperr.ErrorCodeNetworkFailure))
}

func TestMetricsFlag(t *testing.T) {
	srv := newBackend(t)
	var out, errOut bytes.Buffer
	args := []string{"--base-url", srv.URL, "--store", "memory", "--log-level", "error", "--metrics", "plans"}
	err := run(context.Background(), args, &out, &errOut)
	assert.True(t, apperr.Is(err, apperr.ErrorCodeUnauthorized))

	text := errOut.String()
	assert.Contains(t, text, `apiclient_requests_total{method="GET",outcome="unauthorized"} 1`)
	assert.Contains(t, text, `apiclient_session_invalidations_total{source="request"} 1`)
}
