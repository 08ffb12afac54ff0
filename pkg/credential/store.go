// Package credential holds the session token of the current user.
//
// A Store is a single-slot keyed storage facade: Get, Set, Clear. It never
// expires or validates tokens; presence of a token is the only signal the API
// client uses to decide whether a user is logged in.
package credential

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "token"

// ErrNoToken is returned by Get when the slot is empty.
var ErrNoToken = errors.New("credential: no token stored")

// Store is the credential slot shared by the request pipeline and the
// redirect-with-auth flow.
type Store interface {
	// Get returns the stored token or ErrNoToken.
	Get(ctx context.Context) (string, error)
	// Set replaces the stored token.
	Set(ctx context.Context, token string) error
	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear(ctx context.Context) error
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = strings.TrimSpace(token)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// HasToken reports whether s currently holds a token. Store errors count as
// no token.
func HasToken(ctx context.Context, s Store) bool {
	_, err := s.Get(ctx)
	return err == nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
)
