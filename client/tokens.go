// Package client is a Go client for the todo REST API. It keeps the session
// alive by refreshing expired access tokens and mirrors the task list in an
// immutable client-side state.
package client

import "sync"

// Tokens is an access/refresh token pair.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// TokenStore holds the current session tokens. It is safe for concurrent use.
type TokenStore struct {
	mu     sync.RWMutex
	tokens Tokens
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the current tokens.
func (s *TokenStore) Get() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// Set replaces the tokens.
func (s *TokenStore) Set(t Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
}

// Clear drops the tokens, leaving the store logged out.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{}
}

// LoggedIn reports whether an access token is present.
func (s *TokenStore) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken != ""
}
