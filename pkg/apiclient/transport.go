package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/milan604/travelplanner-client/pkg/logger"
	"github.com/milan604/travelplanner-client/pkg/observability"
	"github.com/milan604/travelplanner-client/pkg/version"
)

// DefaultTimeout bounds every call made by HTTPTransport.
const DefaultTimeout = 10 * time.Second

// Stage tells where a transport failure happened.
type Stage int

const (
	// StageBuild: the request could not be constructed.
	StageBuild Stage = iota + 1
	// StageSend: the request was sent (or attempted) and no response arrived.
	StageSend
)

func (s Stage) String() string {
	switch s {
	case StageBuild:
		return "build"
	case StageSend:
		return "send"
	}
	return "unknown"
}

// TransportError is returned by a Transport when no response was received.
type TransportError struct {
	Stage  Stage
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Stage, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Response is a received HTTP response with the body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport performs one network call. It returns a *TransportError when no
// response was received; any received status, including 4xx and 5xx, is a
// Response.
type Transport interface {
	RoundTrip(ctx context.Context, d *Descriptor) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, d *Descriptor) (*Response, error)

func (f TransportFunc) RoundTrip(ctx context.Context, d *Descriptor) (*Response, error) {
	return f(ctx, d)
}

// BreakerSettings configures the optional circuit breaker.
type BreakerSettings struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// HTTPTransport is the net/http Transport.
type HTTPTransport struct {
	base      *url.URL
	client    *http.Client
	timeout   time.Duration
	tracing   observability.Tracing
	breaker   *gobreaker.CircuitBreaker[*Response]
	log       logger.LogManager
	userAgent string
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *HTTPTransport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithHTTPClient sets a custom http.Client. Its Timeout is replaced by the
// transport timeout.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		if c != nil {
			cp := *c
			t.client = &cp
		}
	}
}

// WithTracing sets the span factory.
func WithTracing(tr observability.Tracing) TransportOption {
	return func(t *HTTPTransport) {
		if tr != nil {
			t.tracing = tr
		}
	}
}

// WithTransportLogger sets the logger used for breaker state changes.
func WithTransportLogger(l logger.LogManager) TransportOption {
	return func(t *HTTPTransport) {
		if l != nil {
			t.log = l
		}
	}
}

// WithBreaker enables a circuit breaker. While it is open calls fail with a
// StageSend error without touching the network.
func WithBreaker(s BreakerSettings) TransportOption {
	return func(t *HTTPTransport) {
		if s.MaxFailures == 0 {
			s.MaxFailures = 5
		}
		if s.OpenTimeout <= 0 {
			s.OpenTimeout = 30 * time.Second
		}
		t.breaker = gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
			Name:        "apiclient",
			MaxRequests: 1,
			Timeout:     s.OpenTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= s.MaxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				t.log.WarnF("circuit breaker %s: %s -> %s", name, from, to)
			},
		})
	}
}

// NewHTTPTransport returns a transport resolving paths against baseURL.
func NewHTTPTransport(baseURL string, opts ...TransportOption) (*HTTPTransport, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("apiclient: base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: base url %q must be absolute", baseURL)
	}
	t := &HTTPTransport{
		base:      base,
		client:    &http.Client{},
		timeout:   DefaultTimeout,
		tracing:   observability.Global("apiclient"),
		log:       logger.NewNop(),
		userAgent: version.UserAgent(),
	}
	for _, o := range opts {
		o(t)
	}
	t.client.Timeout = t.timeout
	return t, nil
}

// Timeout reports the per-call timeout.
func (t *HTTPTransport) Timeout() time.Duration { return t.timeout }

// BreakerState reports the breaker state; closed when no breaker is set.
func (t *HTTPTransport) BreakerState() gobreaker.State {
	if t.breaker == nil {
		return gobreaker.StateClosed
	}
	return t.breaker.State()
}

// ResolveURL joins path onto the base URL the way the browser client did:
// absolute URLs pass through, anything else is appended to the base path.
func (t *HTTPTransport) ResolveURL(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	u := *t.base
	u.Path = strings.TrimRight(t.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	u.Fragment = ""
	return u.String(), nil
}

func (t *HTTPTransport) RoundTrip(ctx context.Context, d *Descriptor) (*Response, error) {
	target, err := t.ResolveURL(d.Path)
	if err != nil {
		return nil, &TransportError{Stage: StageBuild, Method: d.Method, URL: d.Path, Err: err}
	}
	req, err := t.newRequest(ctx, d, target)
	if err != nil {
		return nil, &TransportError{Stage: StageBuild, Method: d.Method, URL: target, Err: err}
	}

	ctx, span := observability.TraceExternalCall(ctx, t.tracing, "travelplanner", req.Method, target)
	defer span.End()
	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	observability.AddSpanAttributes(ctx, observability.AttrRequestID.String(req.Header.Get(HeaderRequestID)))

	resp, err := t.send(req)
	if err != nil {
		observability.RecordSpanError(ctx, err)
		return nil, &TransportError{Stage: StageSend, Method: req.Method, URL: target, Err: err}
	}
	observability.AddSpanAttributes(ctx, observability.AttrHTTPStatusCode.Int(resp.Status))
	return resp, nil
}

func (t *HTTPTransport) newRequest(ctx context.Context, d *Descriptor, target string) (*http.Request, error) {
	var body io.Reader
	switch b := d.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(b)
	case json.RawMessage:
		body = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	method := d.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range d.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set(HeaderContentType, mimeJSON)
	if req.Header.Get(HeaderAccept) == "" {
		req.Header.Set(HeaderAccept, mimeJSON)
	}
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	req.Header.Set(HeaderUserAgent, t.userAgent)
	return req, nil
}

func (t *HTTPTransport) send(req *http.Request) (*Response, error) {
	if t.breaker == nil {
		return t.do(req)
	}
	resp, err := t.breaker.Execute(func() (*Response, error) {
		r, err := t.do(req)
		if err != nil {
			return nil, err
		}
		if r.Status >= http.StatusInternalServerError {
			return r, errServerStatus
		}
		return r, nil
	})
	if errors.Is(err, errServerStatus) {
		return resp, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		observability.AddSpanEvent(req.Context(), "circuit breaker rejected",
			observability.AttrBreakerState.String(t.breaker.State().String()))
	}
	return resp, err
}

// errServerStatus marks 5xx responses as breaker failures. The response
// itself is still returned to the caller.
var errServerStatus = errors.New("server error status")

func (t *HTTPTransport) do(req *http.Request) (*Response, error) {
	hr, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer hr.Body.Close()
	body, err := io.ReadAll(hr.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{Status: hr.StatusCode, Header: hr.Header, Body: body}, nil
}

var (
	_ Transport = (*HTTPTransport)(nil)
	_ Transport = TransportFunc(nil)
)
