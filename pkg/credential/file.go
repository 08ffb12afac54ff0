package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the token across process restarts in a small JSON
// document {"<key>": "<token>"}. Other keys in the document are preserved.
// A missing file means logged out.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  string
}

// NewFileStore returns a store backed by path. An empty key means DefaultKey.
func NewFileStore(path, key string) *FileStore {
	if key == "" {
		key = DefaultKey
	}
	return &FileStore{path: path, key: key}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return "", err
	}
	if tok := doc[s.key]; tok != "" {
		return tok, nil
	}
	return "", ErrNoToken
}

func (s *FileStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc[s.key] = token
	return s.write(doc)
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc[s.key]; !ok {
		return nil
	}
	delete(doc, s.key)
	return s.write(doc)
}

func (s *FileStore) read() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credential: read %s: %w", s.path, err)
	}
	doc := map[string]string{}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("credential: decode %s: %w", s.path, err)
	}
	return doc, nil
}

// write replaces the file atomically so a crash never leaves half a token.
func (s *FileStore) write(doc map[string]string) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("credential: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".credential-*")
	if err != nil {
		return fmt.Errorf("credential: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("credential: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
