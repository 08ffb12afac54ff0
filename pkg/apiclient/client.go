// Package apiclient is the authenticated client for the travel planner API.
//
// Every call passes through a two stage pipeline around a Transport:
// beforeSend attaches "Authorization: Bearer <token>" from the credential
// store unless the path is auth-exempt, and afterReceive classifies the
// result, unwraps the {code, message, data} envelope and runs the session
// side effects (notify, clear the store, navigate to the login page).
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/milan604/travelplanner-client/pkg/credential"
	"github.com/milan604/travelplanner-client/pkg/i18n"
	"github.com/milan604/travelplanner-client/pkg/logger"
	"github.com/milan604/travelplanner-client/pkg/navigate"
	"github.com/milan604/travelplanner-client/pkg/notify"
	"github.com/milan604/travelplanner-client/pkg/observability"
)

// DefaultLoginURL is where session-invalidating failures send the user.
const DefaultLoginURL = "login.html"

// Client is the authenticated API client. It is safe for concurrent use;
// concurrent requests resolve in no particular order.
type Client struct {
	transport  Transport
	store      credential.Store
	notifier   notify.Notifier
	navigator  navigate.Navigator
	log        logger.LogManager
	translator *i18n.Translator
	locale     string
	loginURL   string
	exempt     exemptSet
	metrics    *observability.ClientMetrics
	tracing    observability.Tracing
	now        func() time.Time
}

// Option configures the client.
type Option func(*Client)

// WithNotifier sets where failure messages go.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithNavigator sets how the user is moved to another page.
func WithNavigator(n navigate.Navigator) Option {
	return func(c *Client) {
		if n != nil {
			c.navigator = n
		}
	}
}

// WithLogger sets a logger for the client.
func WithLogger(l logger.LogManager) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithLoginURL overrides DefaultLoginURL.
func WithLoginURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.loginURL = u
		}
	}
}

// WithExemptPaths replaces DefaultExemptPaths.
func WithExemptPaths(paths ...string) Option {
	return func(c *Client) { c.exempt = newExemptSet(paths) }
}

// WithLocale sets the locale for default messages. A locale stored in the
// request context with i18n.ContextWithLocale wins.
func WithLocale(locale string) Option {
	return func(c *Client) { c.locale = locale }
}

// WithTranslator sets the message catalog; i18n.Default() otherwise.
func WithTranslator(t *i18n.Translator) Option {
	return func(c *Client) {
		if t != nil {
			c.translator = t
		}
	}
}

// WithMetrics records Prometheus series for every request.
func WithMetrics(m *observability.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClientTracing sets the span factory for request spans.
func WithClientTracing(t observability.Tracing) Option {
	return func(c *Client) {
		if t != nil {
			c.tracing = t
		}
	}
}

// WithClock overrides time.Now for notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a client over transport that reads and clears tokens in store.
func New(transport Transport, store credential.Store, opts ...Option) *Client {
	c := &Client{
		transport:  transport,
		store:      store,
		notifier:   notify.Nop,
		navigator:  navigate.Nop,
		log:        logger.NewNop(),
		translator: i18n.Default(),
		locale:     "en",
		loginURL:   DefaultLoginURL,
		exempt:     newExemptSet(DefaultExemptPaths),
		tracing:    observability.Global("apiclient"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the credential store the client reads.
func (c *Client) Store() credential.Store { return c.store }

// LoginURL returns the login page URL.
func (c *Client) LoginURL() string { return c.loginURL }

// Do runs d through the pipeline and returns the classified outcome. Side
// effects have already happened when Do returns.
func (c *Client) Do(ctx context.Context, d *Descriptor) Outcome {
	ctx, span := c.tracing.StartSpan(ctx, "apiclient "+d.Method+" "+d.RoutePath())
	defer span.End()
	done := c.metrics.Start(d.Method)

	out := c.beforeSend(ctx, d)
	ctx = logger.WithOperation(logger.WithRequestID(ctx, out.Header.Get(HeaderRequestID)), d.Method+" "+d.RoutePath())
	c.log.DebugFCtx(ctx, "apiclient: sending %s %s", out.Method, out.Path)

	resp, err := c.transport.RoundTrip(ctx, out)
	o := c.afterReceive(ctx, out, resp, err)

	observability.AddSpanAttributes(ctx,
		observability.AttrOutcome.String(o.Kind.String()),
		observability.AttrHTTPStatusCode.Int(o.Status),
	)
	if o.Envelope != nil {
		observability.AddSpanAttributes(ctx, observability.AttrBusinessCode.Int(o.Envelope.Code))
	}
	if o.Err != nil {
		observability.RecordSpanError(ctx, o.Err)
	}
	done(o.Kind.String())
	return o
}

// Request sends method path with an optional JSON body and returns the
// envelope data.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	o := c.Do(ctx, NewDescriptor(method, path, body))
	if !o.OK() {
		return nil, o.Error()
	}
	return o.Data, nil
}

// RequestInto is Request with the data decoded into out. Null or missing data
// leaves out untouched.
func (c *Client) RequestInto(ctx context.Context, method, path string, body, out any) error {
	data, err := c.Request(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s data: %w", method, path, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodDelete, path, nil)
}
