package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/milan604/travelplanner-client/pkg/config"
	"github.com/milan604/travelplanner-client/pkg/credential"
	"github.com/milan604/travelplanner-client/pkg/observability"
)

func TestResolveURL(t *testing.T) {
	tr, err := NewHTTPTransport("http://api.example.com/v1/")
	require.NoError(t, err)

	tests := map[string]string{
		"/api/travel-plans": "http://api.example.com/v1/api/travel-plans",
		"api/travel-plans/search?destination=Rome": "http://api.example.com/v1/api/travel-plans/search?destination=Rome",
		"https://other.example.com/x?y=1": "https://other.example.com/x?y=1",
	}
	for in, want := range tests {
		got, err := tr.ResolveURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNewHTTPTransportRejectsRelativeBase(t *testing.T) {
	_, err := NewHTTPTransport("/api")
	assert.Error(t, err)

	tr, err := NewHTTPTransport("http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, tr.Timeout())
	assert.Equal(t, gobreaker.StateClosed, tr.BreakerState())
}

func TestRoundTripHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("X-Test", "1")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer srv.Close()

	tr, err := NewHTTPTransport(srv.URL)
	require.NoError(t, err)

	d := NewDescriptor("get", "/x", nil)
	d.Header.Set(HeaderRequestID, "rid-1")
	resp, err := tr.RoundTrip(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.Status)
	assert.Equal(t, "short and stout", string(resp.Body))
	assert.Equal(t, "1", resp.Header.Get("X-Test"))

	assert.Equal(t, "application/json", got.Get(HeaderContentType))
	assert.Equal(t, "application/json", got.Get(HeaderAccept))
	assert.Equal(t, "rid-1", got.Get(HeaderRequestID))
	assert.True(t, strings.HasPrefix(got.Get(HeaderUserAgent), "travelplanner-client/"))
}

func TestRoundTripBuildErrors(t *testing.T) {
	tr, err := NewHTTPTransport("http://localhost:1")
	require.NoError(t, err)

	for name, d := range map[string]*Descriptor{
		"bad method": {Method: "BAD METHOD", Path: "/x"},
		"bad body":   {Method: http.MethodPost, Path: "/x", Body: func() {}},
		"bad path":   {Method: http.MethodGet, Path: "%zz"},
	} {
		_, err := tr.RoundTrip(context.Background(), d)
		var te *TransportError
		require.ErrorAs(t, err, &te, name)
		assert.Equal(t, StageBuild, te.Stage, name)
	}
}

func TestRoundTripCancelledContextIsSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()
	tr, err := NewHTTPTransport(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.RoundTrip(ctx, NewDescriptor(http.MethodGet, "/", nil))
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StageSend, te.Stage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr, err := NewHTTPTransport(srv.URL, WithBreaker(BreakerSettings{MaxFailures: 2, OpenTimeout: time.Minute}))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		resp, err := tr.RoundTrip(context.Background(), NewDescriptor(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	}
	assert.Equal(t, gobreaker.StateOpen, tr.BreakerState())

	_, err = tr.RoundTrip(context.Background(), NewDescriptor(http.MethodGet, "/", nil))
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StageSend, te.Stage)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), hits.Load())

	// the client reports an open breaker as a network failure
	c := New(tr, credential.NewMemoryStore())
	o := c.Do(context.Background(), NewDescriptor(http.MethodGet, "/", nil))
	assert.Equal(t, KindNetworkFailure, o.Kind)
}

func TestRoundTripRecordsClientSpan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"code":0}`)
	}))
	defer srv.Close()

	sr := tracetest.NewSpanRecorder()
	obs := observability.NewWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)), "test", nil)

	tr, err := NewHTTPTransport(srv.URL, WithTracing(obs))
	require.NoError(t, err)
	c := New(tr, credential.NewMemoryStore(), WithClientTracing(obs))
	require.True(t, c.Do(context.Background(), NewDescriptor(http.MethodGet, "/api/travel-plans", nil)).OK())

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"http.travelplanner GET", "apiclient GET /api/travel-plans"}, names)
}

func TestNewFromSettings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"code":0,"data":"`+r.Header.Get(HeaderAuthorization)+`"}`)
	}))
	defer srv.Close()

	cfg, err := config.Load(config.WithDefaults(config.Defaults()))
	require.NoError(t, err)
	cfg.Set(config.KeyClientBaseURL, srv.URL)
	cfg.Set(config.KeyClientExemptPaths, []string{"/public"})
	cfg.Set(config.KeyBreakerEnabled, true)
	s, err := cfg.ClientSettings()
	require.NoError(t, err)

	store := credential.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "T"))
	c, err := NewFromSettings(s, store, nil)
	require.NoError(t, err)

	data, err := c.Get(context.Background(), "/public")
	require.NoError(t, err)
	assert.Equal(t, `""`, string(data))

	data, err = c.Get(context.Background(), "/auth/login")
	require.NoError(t, err)
	assert.Equal(t, `"Bearer T"`, string(data))
	assert.Equal(t, "login.html", c.LoginURL())
}
