package apiclient

import (
	"net/http"
	"net/url"
	"strings"
)

// Header names set by the client.
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	HeaderUserAgent     = "User-Agent"

	mimeJSON = "application/json"
)

// DefaultExemptPaths never carry the Authorization header.
var DefaultExemptPaths = []string{"/auth/login", "/auth/register"}

// Descriptor describes one outgoing call. Path is relative to the transport
// base URL unless it is absolute. Body is JSON encoded by the transport;
// []byte and json.RawMessage bodies are sent as is.
//
// A Descriptor is not modified once handed to the client; beforeSend works on
// a clone.
type Descriptor struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// NewDescriptor builds a descriptor with an empty header.
func NewDescriptor(method, path string, body any) *Descriptor {
	return &Descriptor{
		Method: strings.ToUpper(method),
		Path:   path,
		Body:   body,
		Header: http.Header{},
	}
}

// Clone returns a copy whose header can be changed independently.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	if d.Header != nil {
		c.Header = d.Header.Clone()
	} else {
		c.Header = http.Header{}
	}
	return &c
}

// RoutePath is Path without scheme, host, query or fragment.
func (d *Descriptor) RoutePath() string {
	p := d.Path
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// exemptSet matches request paths against the auth-exempt operations. Matching
// is exact on the route path.
type exemptSet map[string]struct{}

func newExemptSet(paths []string) exemptSet {
	s := make(exemptSet, len(paths))
	for _, p := range paths {
		d := Descriptor{Path: p}
		s[d.RoutePath()] = struct{}{}
	}
	return s
}

func (s exemptSet) has(d *Descriptor) bool {
	_, ok := s[d.RoutePath()]
	return ok
}
