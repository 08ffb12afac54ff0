package apiclient

import (
	"encoding/json"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/envelope"
)

// Kind is the classification of one request.
type Kind int

const (
	KindSuccess Kind = iota
	KindBusinessFailure
	KindHTTPFailure
	KindUnauthorized
	KindNetworkFailure
	KindConfigFailure
)

var kindNames = [...]string{
	KindSuccess:         "success",
	KindBusinessFailure: "business_failure",
	KindHTTPFailure:     "http_failure",
	KindUnauthorized:    "unauthorized",
	KindNetworkFailure:  "network_failure",
	KindConfigFailure:   "config_failure",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ErrorCode maps the kind to its error code; nil for KindSuccess.
func (k Kind) ErrorCode() *apperr.ErrorCode {
	switch k {
	case KindBusinessFailure:
		return apperr.ErrorCodeBusinessFailure
	case KindHTTPFailure:
		return apperr.ErrorCodeHTTPFailure
	case KindUnauthorized:
		return apperr.ErrorCodeUnauthorized
	case KindNetworkFailure:
		return apperr.ErrorCodeNetworkFailure
	case KindConfigFailure:
		return apperr.ErrorCodeConfigFailure
	}
	return nil
}

// Outcome is the classified result of one request. Exactly one is produced
// per request.
type Outcome struct {
	Kind Kind
	// Data is the envelope payload on success; nil for an empty body or null data.
	Data json.RawMessage
	// Status is the HTTP status, 0 when no response arrived.
	Status int
	// Message is the text that was (or, for success, would be) shown to the user.
	Message string
	// Envelope is the decoded response envelope when the body was one.
	Envelope *envelope.Envelope
	// Err is the rejection value; nil on success.
	Err *apperr.AppError
}

// OK reports whether the request succeeded.
func (o Outcome) OK() bool { return o.Kind == KindSuccess }

// Error returns Err as an error, keeping a nil interface on success.
func (o Outcome) Error() error {
	if o.Err == nil {
		return nil
	}
	return o.Err
}
