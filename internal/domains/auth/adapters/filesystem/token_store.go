package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Apurer/admin-dashboard/internal/domains/auth/ports"
)

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore persists the bearer token in a 0600 file named after
// ports.TokenKey so a CLI session survives between invocations.
type TokenStore struct {
	mu   sync.Mutex
	path string
}

// NewTokenStore stores the token under dir.
func NewTokenStore(dir string) (*TokenStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("token directory is required")
	}
	return &TokenStore{path: filepath.Join(dir, ports.TokenKey)}, nil
}

// Path returns the token file location.
func (s *TokenStore) Path() string { return s.path }

func (s *TokenStore) Token(_ context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	return token, token != ""
}

func (s *TokenStore) SetToken(_ context.Context, token string) error {
	token = strings.TrimSpace(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		return s.remove()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (s *TokenStore) ClearToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove()
}

func (s *TokenStore) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
