package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/milan604/travelplanner-client/pkg/apperr"
)

// RedirectWithAuth sends the user to dest only after an authenticated probe
// of dest succeeds. Page navigations cannot carry the Authorization header, so
// the probe is how an expired session is caught before leaving the page.
//
// It returns nil when it navigated to dest. Otherwise it returns the error it
// notified about: not_logged_in, session_expired or authorization_failed
// (store cleared, navigated to login), or probe_network_failure (nothing
// cleared, no navigation). The probe bypasses the request pipeline and is
// never retried.
func (c *Client) RedirectWithAuth(ctx context.Context, dest string) error {
	d := NewDescriptor(http.MethodGet, dest, nil)
	d.Header.Set(HeaderRequestID, uuid.NewString())

	tok, ok := c.token(ctx)
	if !ok {
		ae := apperr.New(apperr.ErrorCodeNotLoggedIn)
		ae.Message = c.defaultMessage(ctx, apperr.ErrorCodeNotLoggedIn)
		c.notify(ctx, d, ae)
		c.navigator.Navigate(ctx, c.loginURL)
		return ae
	}

	d.Header.Set(HeaderAuthorization, "Bearer "+tok)
	resp, err := c.transport.RoundTrip(ctx, d)

	var ec *apperr.ErrorCode
	switch {
	case err != nil || resp == nil:
		ec = apperr.ErrorCodeProbeNetwork
	case resp.Status >= 200 && resp.Status <= 299:
		c.log.DebugFCtx(ctx, "apiclient: probe of %s ok", dest)
		c.navigator.Navigate(ctx, dest)
		return nil
	case resp.Status == http.StatusUnauthorized:
		ec = apperr.ErrorCodeSessionExpired
	default:
		ec = apperr.ErrorCodeAuthorizationFailed
	}

	ae := apperr.New(ec)
	ae.Message = c.defaultMessage(ctx, ec)
	if resp != nil {
		ae.WithStatus(resp.Status).WithBody(0, resp.Body)
	} else {
		ae.WithStatus(0).Wrap(err)
	}
	c.log.WarnFCtx(ctx, "apiclient: redirect to %s refused: %s", dest, ae)
	c.notify(ctx, d, ae)

	if ec == apperr.ErrorCodeProbeNetwork {
		return ae
	}
	c.invalidateSession(ctx, "redirect")
	return ae
}
