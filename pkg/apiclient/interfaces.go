package apiclient

import (
	"context"
	"encoding/json"
)

// API is the capability endpoint wrappers depend on.
type API interface {
	Request(ctx context.Context, method, path string, body any) (json.RawMessage, error)
	RequestInto(ctx context.Context, method, path string, body, out any) error
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
	RedirectWithAuth(ctx context.Context, dest string) error
}

var _ API = (*Client)(nil)
