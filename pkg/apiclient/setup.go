package apiclient

import (
	"github.com/milan604/travelplanner-client/pkg/config"
	"github.com/milan604/travelplanner-client/pkg/credential"
	"github.com/milan604/travelplanner-client/pkg/logger"
)

// NewFromSettings builds an HTTPTransport and a Client from loaded settings.
// opts are applied after the settings, so they win.
func NewFromSettings(s config.ClientSettings, store credential.Store, log logger.LogManager, opts ...Option) (*Client, error) {
	topts := []TransportOption{WithTimeout(s.Timeout), WithTransportLogger(log)}
	if s.BreakerEnabled {
		topts = append(topts, WithBreaker(BreakerSettings{
			MaxFailures: s.BreakerMaxFailures,
			OpenTimeout: s.BreakerOpenTimeout,
		}))
	}
	t, err := NewHTTPTransport(s.BaseURL, topts...)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithLogger(log),
		WithLoginURL(s.LoginURL),
		WithLocale(s.Locale),
	}
	if len(s.ExemptPaths) > 0 {
		base = append(base, WithExemptPaths(s.ExemptPaths...))
	}
	return New(t, store, append(base, opts...)...), nil
}
