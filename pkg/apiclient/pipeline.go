package apiclient

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/credential"
	"github.com/milan604/travelplanner-client/pkg/envelope"
	"github.com/milan604/travelplanner-client/pkg/i18n"
	"github.com/milan604/travelplanner-client/pkg/notify"
)

// beforeSend returns a copy of d carrying a request id and, for non-exempt
// paths with a stored token, the bearer header. It never fails: without a
// token the request goes out unauthenticated and the server's 401 drives the
// session handling.
func (c *Client) beforeSend(ctx context.Context, d *Descriptor) *Descriptor {
	out := d.Clone()
	if out.Header.Get(HeaderRequestID) == "" {
		out.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if c.exempt.has(out) {
		out.Header.Del(HeaderAuthorization)
		return out
	}
	if tok, ok := c.token(ctx); ok {
		out.Header.Set(HeaderAuthorization, "Bearer "+tok)
	}
	return out
}

// token reads the store; read errors count as no token.
func (c *Client) token(ctx context.Context) (string, bool) {
	if c.store == nil {
		return "", false
	}
	tok, err := c.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, credential.ErrNoToken) {
			c.log.ErrorFCtx(ctx, "apiclient: read credential: %v", err)
		}
		return "", false
	}
	return tok, tok != ""
}

// afterReceive classifies the transport result and runs its side effects.
func (c *Client) afterReceive(ctx context.Context, d *Descriptor, resp *Response, err error) Outcome {
	o := Classify(resp, err)
	if o.Kind == KindSuccess {
		return o
	}

	if o.Message == "" {
		o.Message = c.defaultMessage(ctx, o.Kind.ErrorCode())
	}
	o.Err = c.rejection(o, resp, err)

	c.log.WarnFCtx(ctx, "apiclient: %s %s: %s (status %d): %s", d.Method, d.Path, o.Kind, o.Status, o.Message)
	c.notify(ctx, d, o.Err)

	if o.Kind == KindUnauthorized {
		c.invalidateSession(ctx, "request")
	}
	return o
}

// Classify maps a transport result to an outcome without side effects. The
// message is left empty when the user should see the default text.
//
//	401                      -> unauthorized, fixed message
//	other non-2xx            -> http failure, envelope message if any
//	2xx, code != 0 or no envelope -> business failure
//	2xx, code == 0 or empty  -> success with data
//	StageSend error          -> network failure
//	StageBuild error         -> config failure
func Classify(resp *Response, err error) Outcome {
	if err != nil || resp == nil {
		var te *TransportError
		if errors.As(err, &te) && te.Stage == StageBuild {
			return Outcome{Kind: KindConfigFailure}
		}
		return Outcome{Kind: KindNetworkFailure}
	}

	o := Outcome{Status: resp.Status}
	env, decodeErr := envelope.Decode(resp.Body)
	if decodeErr == nil {
		o.Envelope = &env
	}

	switch {
	case resp.Status == http.StatusUnauthorized:
		o.Kind = KindUnauthorized
	case resp.Status < 200 || resp.Status > 299:
		o.Kind = KindHTTPFailure
		o.Message = envelope.MessageOf(resp.Body)
	case len(bytes.TrimSpace(resp.Body)) == 0:
		o.Kind = KindSuccess
	case decodeErr != nil:
		o.Kind = KindBusinessFailure
	case !env.OK():
		o.Kind = KindBusinessFailure
		o.Message = env.Message
	default:
		o.Kind = KindSuccess
		o.Data = env.Data
	}
	return o
}

func (c *Client) rejection(o Outcome, resp *Response, cause error) *apperr.AppError {
	ae := apperr.New(o.Kind.ErrorCode()).WithStatus(o.Status).WithMessage(o.Message)
	if resp != nil {
		code := 0
		if o.Envelope != nil {
			code = o.Envelope.Code
		}
		ae.WithBody(code, resp.Body)
	} else {
		ae.WithBody(0, nil)
	}
	if cause != nil {
		ae.Wrap(cause)
	}
	return ae
}

func (c *Client) defaultMessage(ctx context.Context, ec *apperr.ErrorCode) string {
	locale := i18n.LocaleFromContext(ctx)
	if locale == "" {
		locale = c.locale
	}
	return c.translator.MessageIn(locale, ec.Code(), ec.Message())
}

func (c *Client) notify(ctx context.Context, d *Descriptor, ae *apperr.AppError) {
	c.notifier.Notify(ctx, notify.Notification{
		Code:      ae.Code,
		Message:   ae.Message,
		Status:    ae.HTTPStatus,
		Method:    d.Method,
		Path:      d.Path,
		RequestID: d.Header.Get(HeaderRequestID),
		Time:      c.now(),
	})
}

// invalidateSession clears the store and sends the user to the login page.
// A failing clear is logged; navigation still happens.
func (c *Client) invalidateSession(ctx context.Context, source string) {
	if c.store != nil {
		if err := c.store.Clear(ctx); err != nil {
			c.log.ErrorFCtx(ctx, "apiclient: clear credential: %v", err)
		}
	}
	c.metrics.SessionInvalidated(source)
	c.navigator.Navigate(ctx, c.loginURL)
}
