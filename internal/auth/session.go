package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/muhammadolammi/jobmatchclient/internal/models"
)

var ErrNoCredential = errors.New("no credential stored")

// Session is the explicit auth state handed to the request gateway. Login,
// refresh and logout are the only writers of the credential.
type Session struct {
	store Store

	mu     sync.RWMutex
	token  string
	loaded bool
	user   *models.User
}

func NewSession(store Store) *Session {
	return &Session{store: store}
}

// Token returns the live credential, or "" when signed out.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.token, nil
	}
	token, err := s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	s.token, s.loaded = token, true
	return token, nil
}

func (s *Session) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(ctx, token); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.token, s.loaded = token, true
	return nil
}

// Clear drops the credential and the cached user, locally and in the store.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.loaded, s.user = "", true, nil
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func (s *Session) Authenticated(ctx context.Context) bool {
	token, err := s.Token(ctx)
	return err == nil && token != ""
}

func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) SetUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}
