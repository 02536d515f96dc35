package headhunter

import (
	"errors"
	"sync"
)

var ErrIncompleteTokens = errors.New("access and refresh tokens must be set together")

// TokenStore holds the OAuth2 token pair. Either both tokens are set or none.
type TokenStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func (s *TokenStore) Get() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, s.refresh
}

func (s *TokenStore) Set(access, refresh string) error {
	if access == "" || refresh == "" {
		return ErrIncompleteTokens
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	return nil
}

func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
}

func (s *TokenStore) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access != "" && s.refresh != ""
}
