// Package envelope implements the backend response wrapper
// {"code": 0, "message": "", "data": ...}. code 0 is business success; any
// other value is a business failure described by message.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
)

// CodeSuccess is the only business-success code.
const CodeSuccess = 0

// ErrNotEnvelope is returned by Decode for bodies that are not a JSON object
// with a "code" member.
var ErrNotEnvelope = errors.New("envelope: body is not a response envelope")

// Envelope is the wire shape of every non-exempt backend response.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// OK reports business success.
func (e Envelope) OK() bool { return e.Code == CodeSuccess }

// Decode parses body as an envelope. A "data": null member decodes to nil Data.
func Decode(body []byte) (Envelope, error) {
	var probe struct {
		Code    *int            `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return Envelope{}, errors.Join(ErrNotEnvelope, err)
	}
	if probe.Code == nil {
		return Envelope{}, ErrNotEnvelope
	}
	env := Envelope{Code: *probe.Code, Message: probe.Message}
	if len(probe.Data) > 0 && !bytes.Equal(bytes.TrimSpace(probe.Data), []byte("null")) {
		env.Data = probe.Data
	}
	return env, nil
}

// MessageOf returns the "message" member of any JSON object body, or "".
// Used for non-2xx responses whose body may or may not be an envelope.
func MessageOf(body []byte) string {
	var m struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &m) != nil {
		return ""
	}
	return m.Message
}
