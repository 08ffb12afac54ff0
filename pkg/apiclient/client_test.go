package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/credential"
	"github.com/milan604/travelplanner-client/pkg/i18n"
	"github.com/milan604/travelplanner-client/pkg/navigate"
	"github.com/milan604/travelplanner-client/pkg/notify"
	"github.com/milan604/travelplanner-client/pkg/observability"
)

type seenRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	client *Client
	store  *credential.MemoryStore
	notes  *notify.Recorder
	nav    *navigate.Recorder

	mu      sync.Mutex
	handler http.HandlerFunc
	seen    []seenRequest
	hits    atomic.Int32
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		store: credential.NewMemoryStore(),
		notes: &notify.Recorder{},
		nav:   &navigate.Recorder{},
	}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.hits.Add(1)
		b, _ := io.ReadAll(r.Body)
		h.mu.Lock()
		h.seen = append(h.seen, seenRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(b),
		})
		handler := h.handler
		h.mu.Unlock()
		if handler == nil {
			writeJSON(w, http.StatusOK, `{"code":0,"message":"","data":null}`)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(h.srv.Close)

	tr, err := NewHTTPTransport(h.srv.URL)
	require.NoError(t, err)
	base := []Option{WithNotifier(h.notes), WithNavigator(h.nav)}
	h.client = New(tr, h.store, append(base, opts...)...)
	return h
}

func (h *harness) respond(status int, body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, status, body) }
}

func (h *harness) last() seenRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(h.t, h.seen)
	return h.seen[len(h.seen)-1]
}

func (h *harness) login(tok string) {
	require.NoError(h.t, h.store.Set(context.Background(), tok))
}

func (h *harness) token() string {
	tok, err := h.store.Get(context.Background())
	if err != nil {
		return ""
	}
	return tok
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestExemptPathsNeverCarryAuthorization(t *testing.T) {
	h := newHarness(t)
	h.login("T")

	for _, path := range []string{"/auth/login", "/auth/register", "/auth/login?next=home"} {
		_, err := h.client.Post(context.Background(), path, map[string]string{"username": "u"})
		require.NoError(t, err, path)
		assert.Empty(t, h.last().Header.Get(HeaderAuthorization), path)
	}

	// an Authorization header supplied by the caller is dropped as well
	d := NewDescriptor(http.MethodPost, "/auth/login", nil)
	d.Header.Set(HeaderAuthorization, "Bearer stale")
	require.True(t, h.client.Do(context.Background(), d).OK())
	assert.Empty(t, h.last().Header.Get(HeaderAuthorization))
}

func TestBearerHeaderOnNonExemptPaths(t *testing.T) {
	h := newHarness(t)
	h.login("T1")

	_, err := h.client.Get(context.Background(), "/api/travel-plans")
	require.NoError(t, err)
	assert.Equal(t, "Bearer T1", h.last().Header.Get(HeaderAuthorization))

	// paths that only look like exempt ones are not exempt
	_, err = h.client.Get(context.Background(), "/auth/login/history")
	require.NoError(t, err)
	assert.Equal(t, "Bearer T1", h.last().Header.Get(HeaderAuthorization))
}

func TestNoTokenSendsRequestWithoutHeader(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Get(context.Background(), "/api/travel-plans")
	require.NoError(t, err)
	assert.Equal(t, int32(1), h.hits.Load())
	_, present := h.last().Header[HeaderAuthorization]
	assert.False(t, present)
}

func TestEveryRequestIsJSON(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.Post(context.Background(), "/api/travel-plans", map[string]any{"title": "Kyoto"})
	require.NoError(t, err)

	got := h.last()
	assert.Equal(t, "application/json", got.Header.Get(HeaderContentType))
	assert.NotEmpty(t, got.Header.Get(HeaderRequestID))
	assert.JSONEq(t, `{"title":"Kyoto"}`, got.Body)

	_, err = h.client.Delete(context.Background(), "/api/travel-plans/3")
	require.NoError(t, err)
	assert.Equal(t, "application/json", h.last().Header.Get(HeaderContentType))
	assert.Equal(t, http.MethodDelete, h.last().Method)
}

func TestLoginResolvesToEnvelopeData(t *testing.T) {
	h := newHarness(t)
	h.respond(http.StatusOK, `{"code":0,"message":"","data":{"token":"abc"}}`)

	data, err := h.client.Post(context.Background(), "/auth/login", map[string]string{"username": "u", "password": "p"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"abc"}`, string(data))
	assert.Empty(t, h.last().Header.Get(HeaderAuthorization))
	assert.Zero(t, h.notes.Len())
	assert.Empty(t, h.nav.URLs())
}

func TestSuccessIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.login("T")
	h.respond(http.StatusOK, `{"code":0,"data":[{"id":1,"title":"Lisbon"}]}`)

	first, err := h.client.Get(context.Background(), "/api/travel-plans")
	require.NoError(t, err)
	second, err := h.client.Get(context.Background(), "/api/travel-plans")
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}

func TestEmptyBodyAndNullDataResolveToNil(t *testing.T) {
	h := newHarness(t)
	h.mu.Lock()
	h.handler = func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }
	h.mu.Unlock()

	data, err := h.client.Delete(context.Background(), "/api/travel-plans/1")
	require.NoError(t, err)
	assert.Nil(t, data)

	h.respond(http.StatusOK, `{"code":0,"message":"deleted","data":null}`)
	data, err = h.client.Delete(context.Background(), "/api/travel-plans/1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestBusinessFailureNotifiesEnvelopeMessage(t *testing.T) {
	h := newHarness(t)
	h.login("T")
	h.respond(http.StatusOK, `{"code":1,"message":"not found"}`)

	_, err := h.client.Get(context.Background(), "/api/travel-plans/42")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrorCodeBusinessFailure))

	ae := apperr.FromError(err)
	assert.Equal(t, "not found", ae.Message)
	assert.Equal(t, 1, ae.BusinessCode)
	assert.Equal(t, http.StatusOK, ae.HTTPStatus)
	assert.JSONEq(t, `{"code":1,"message":"not found"}`, string(ae.Body))

	assert.Equal(t, []string{"not found"}, h.notes.Messages())
	last, _ := h.notes.Last()
	assert.Equal(t, "business_failure", last.Code)
	assert.Equal(t, "/api/travel-plans/42", last.Path)

	assert.Equal(t, "T", h.token())
	assert.Empty(t, h.nav.URLs())
}

func TestBusinessFailureDefaults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no message", `{"code":2005}`},
		{"empty message", `{"code":2005,"message":""}`},
		{"not an envelope", `{"items":[]}`},
		{"not json", `ok`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.respond(http.StatusOK, tt.body)

			_, err := h.client.Get(context.Background(), "/api/travel-plans")
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.ErrorCodeBusinessFailure))
			assert.Equal(t, []string{"request failed"}, h.notes.Messages())
		})
	}
}

func TestUnauthorizedClearsAndNavigatesOnce(t *testing.T) {
	for _, body := range []string{`{"code":0,"data":{"x":1}}`, `{"code":401,"message":"token expired"}`, ``} {
		h := newHarness(t)
		h.login("T")
		h.respond(http.StatusUnauthorized, body)

		_, err := h.client.Get(context.Background(), "/api/travel-plans")
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.ErrorCodeUnauthorized), body)
		assert.Equal(t, http.StatusUnauthorized, apperr.FromError(err).HTTPStatus)

		assert.Empty(t, h.token(), body)
		assert.Equal(t, []string{DefaultLoginURL}, h.nav.URLs(), body)
		assert.Equal(t, []string{"not logged in, please log in first"}, h.notes.Messages(), body)
	}
}

func TestHTTPFailure(t *testing.T) {
	h := newHarness(t)
	h.login("T")

	h.respond(http.StatusInternalServerError, `{"code":500,"message":"database unavailable"}`)
	_, err := h.client.Get(context.Background(), "/api/travel-plans")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrorCodeHTTPFailure))
	assert.Equal(t, http.StatusInternalServerError, apperr.FromError(err).HTTPStatus)

	h.respond(http.StatusBadGateway, `upstream down`)
	_, err = h.client.Get(context.Background(), "/api/travel-plans")
	require.Error(t, err)

	assert.Equal(t, []string{"database unavailable", "request failed"}, h.notes.Messages())
	assert.Equal(t, "T", h.token())
	assert.Empty(t, h.nav.URLs())
}

func TestNetworkFailureNeverClearsOrNavigates(t *testing.T) {
	h := newHarness(t)
	h.login("T")
	h.srv.Close()

	_, err := h.client.Get(context.Background(), "/api/travel-plans")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrorCodeNetworkFailure))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StageSend, te.Stage)

	assert.Equal(t, "T", h.token())
	assert.Empty(t, h.nav.URLs())
	assert.Equal(t, []string{"network request failed, please check your network connection"}, h.notes.Messages())
}

func TestTimeoutIsNetworkFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	tr, err := NewHTTPTransport(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	notes := &notify.Recorder{}
	c := New(tr, credential.NewMemoryStore(), WithNotifier(notes))

	o := c.Do(context.Background(), NewDescriptor(http.MethodGet, "/api/travel-plans", nil))
	assert.Equal(t, KindNetworkFailure, o.Kind)
	assert.Equal(t, 1, notes.Len())
}

func TestConfigFailureWhenBodyCannotBeEncoded(t *testing.T) {
	h := newHarness(t)
	h.login("T")

	_, err := h.client.Post(context.Background(), "/api/travel-plans", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrorCodeConfigFailure))
	assert.Zero(t, h.hits.Load())
	assert.Equal(t, []string{"request configuration error"}, h.notes.Messages())
	assert.Equal(t, "T", h.token())
	assert.Empty(t, h.nav.URLs())
}

func TestDefaultMessagesFollowLocale(t *testing.T) {
	h := newHarness(t, WithLocale("zh-CN"))
	h.respond(http.StatusUnauthorized, ``)

	_, err := h.client.Get(context.Background(), "/api/travel-plans")
	require.Error(t, err)
	assert.Equal(t, "未登录，请先登录", apperr.FromError(err).Message)

	// context locale wins over the client default
	h.respond(http.StatusOK, `{"code":3}`)
	ctx := i18n.ContextWithLocale(context.Background(), "en")
	_, err = h.client.Get(ctx, "/api/travel-plans")
	require.Error(t, err)
	assert.Equal(t, "request failed", apperr.FromError(err).Message)
}

func TestRequestInto(t *testing.T) {
	h := newHarness(t)
	h.respond(http.StatusOK, `{"code":0,"data":{"id":7,"title":"Oslo"}}`)

	var plan struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, h.client.RequestInto(context.Background(), http.MethodGet, "/api/travel-plans/7", nil, &plan))
	assert.Equal(t, 7, plan.ID)
	assert.Equal(t, "Oslo", plan.Title)

	h.respond(http.StatusOK, `{"code":0,"data":"not an object"}`)
	err := h.client.RequestInto(context.Background(), http.MethodGet, "/api/travel-plans/7", nil, &plan)
	require.Error(t, err)
	assert.False(t, apperr.Is(err, apperr.ErrorCodeBusinessFailure))
}

func TestDescriptorIsNotMutated(t *testing.T) {
	h := newHarness(t)
	h.login("T")

	d := NewDescriptor(http.MethodGet, "/api/travel-plans", nil)
	require.True(t, h.client.Do(context.Background(), d).OK())
	assert.Empty(t, d.Header)
}

func TestStoreErrorsCountAsNoToken(t *testing.T) {
	h := newHarness(t)
	h.client.store = brokenStore{}

	_, err := h.client.Get(context.Background(), "/api/travel-plans")
	require.NoError(t, err)
	assert.Empty(t, h.last().Header.Get(HeaderAuthorization))
}

type brokenStore struct{}

func (brokenStore) Get(context.Context) (string, error) { return "", assert.AnError }
func (brokenStore) Set(context.Context, string) error   { return assert.AnError }
func (brokenStore) Clear(context.Context) error         { return assert.AnError }

func TestMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHarness(t, WithMetrics(observability.NewClientMetrics(reg)))
	h.login("T")

	_, _ = h.client.Get(context.Background(), "/api/travel-plans")
	h.respond(http.StatusUnauthorized, ``)
	_, _ = h.client.Get(context.Background(), "/api/travel-plans")

	n, err := testutil.GatherAndCount(reg, "apiclient_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n) // success + unauthorized series

	n, err = testutil.GatherAndCount(reg, "apiclient_session_invalidations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConcurrentRequests(t *testing.T) {
	h := newHarness(t)
	h.login("T")
	h.mu.Lock()
	h.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"code":0,"data":{"path":"`+r.URL.Path+`"}}`)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got struct{ Path string }
			err := h.client.RequestInto(context.Background(), http.MethodGet, "/api/travel-plans", nil, &got)
			assert.NoError(t, err)
			assert.Equal(t, "/api/travel-plans", got.Path)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(20), h.hits.Load())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		resp    *Response
		err     error
		want    Kind
		message string
		data    string
	}{
		{"success", &Response{Status: 200, Body: []byte(`{"code":0,"data":{"a":1}}`)}, nil, KindSuccess, "", `{"a":1}`},
		{"business", &Response{Status: 200, Body: []byte(`{"code":1004,"message":"bad password"}`)}, nil, KindBusinessFailure, "bad password", ""},
		{"401 beats envelope", &Response{Status: 401, Body: []byte(`{"code":0}`)}, nil, KindUnauthorized, "", ""},
		{"404", &Response{Status: 404, Body: []byte(`{"code":404,"message":"resource not found"}`)}, nil, KindHTTPFailure, "resource not found", ""},
		{"send", nil, &TransportError{Stage: StageSend, Err: context.DeadlineExceeded}, KindNetworkFailure, "", ""},
		{"build", nil, &TransportError{Stage: StageBuild, Err: assert.AnError}, KindConfigFailure, "", ""},
		{"plain error", nil, assert.AnError, KindNetworkFailure, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Classify(tt.resp, tt.err)
			assert.Equal(t, tt.want, o.Kind)
			assert.Equal(t, tt.message, o.Message)
			if tt.data != "" {
				assert.JSONEq(t, tt.data, string(o.Data))
			}
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "unauthorized", KindUnauthorized.String())
	assert.Equal(t, "unknown", Kind(99).String())
	assert.Nil(t, KindSuccess.ErrorCode())
	assert.Equal(t, apperr.ErrorCodeConfigFailure, KindConfigFailure.ErrorCode())
}

func TestOutcomeErrorKeepsNilInterface(t *testing.T) {
	var o Outcome
	assert.NoError(t, o.Error())
	raw, _ := json.Marshal(o.Data)
	assert.Equal(t, "null", string(raw))
}
