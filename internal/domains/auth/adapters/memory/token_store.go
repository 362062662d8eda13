package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/Apurer/admin-dashboard/internal/domains/auth/ports"
)

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore keeps the bearer token sealed in a memguard enclave for the
// lifetime of the process.
type TokenStore struct {
	mu      sync.RWMutex
	enclave *memguard.Enclave
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

func (s *TokenStore) Token(_ context.Context) (string, bool) {
	s.mu.RLock()
	enclave := s.enclave
	s.mu.RUnlock()
	if enclave == nil {
		return "", false
	}
	buf, err := enclave.Open()
	if err != nil {
		return "", false
	}
	defer buf.Destroy()
	token := strings.Clone(buf.String())
	return token, token != ""
}

func (s *TokenStore) SetToken(_ context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		s.clear()
		return nil
	}
	enclave := memguard.NewEnclave([]byte(token))
	s.mu.Lock()
	s.enclave = enclave
	s.mu.Unlock()
	return nil
}

func (s *TokenStore) ClearToken(_ context.Context) error {
	s.clear()
	return nil
}

func (s *TokenStore) clear() {
	s.mu.Lock()
	s.enclave = nil
	s.mu.Unlock()
}
