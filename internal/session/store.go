// Package session holds the per-session credential pair used to authenticate
// calls to the remote adoption API.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pet-adoption-portal/internal/model"
)

const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// TokenStore persists the access/refresh pair of one session. Absent and empty
// values read back as model.ErrTokenNotFound.
type TokenStore interface {
	SaveTokens(ctx context.Context, access string, refresh string) error
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	ClearTokens(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
}

// MemoryStore keeps a single token pair in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) SaveTokens(_ context.Context, access string, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[KeyAccessToken] = access
	s.values[KeyRefreshToken] = refresh
	return nil
}

func (s *MemoryStore) AccessToken(_ context.Context) (string, error) {
	return s.read(KeyAccessToken)
}

func (s *MemoryStore) RefreshToken(_ context.Context) (string, error) {
	return s.read(KeyRefreshToken)
}

func (s *MemoryStore) ClearTokens(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, KeyAccessToken)
	delete(s.values, KeyRefreshToken)
	return nil
}

func (s *MemoryStore) IsAuthenticated(ctx context.Context) bool {
	_, err := s.AccessToken(ctx)
	return err == nil
}

func (s *MemoryStore) read(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value := s.values[key]
	if value == "" {
		return "", model.ErrTokenNotFound
	}
	return value, nil
}

// Backend is the key/value surface a Scoped store needs. The repository
// package provides memory, Postgres and SQLite implementations.
type Backend interface {
	Set(ctx context.Context, sessionID string, key string, value string) error
	Get(ctx context.Context, sessionID string, key string) (string, error)
	Delete(ctx context.Context, sessionID string, keys ...string) error
}

// Scoped is a TokenStore view over one session's entries in a shared Backend.
// Every read goes to the backend.
type Scoped struct {
	backend   Backend
	sessionID string
}

func NewScoped(backend Backend, sessionID string) *Scoped {
	return &Scoped{backend: backend, sessionID: sessionID}
}

func (s *Scoped) SessionID() string {
	return s.sessionID
}

func (s *Scoped) SaveTokens(ctx context.Context, access string, refresh string) error {
	if err := s.backend.Set(ctx, s.sessionID, KeyAccessToken, access); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if err := s.backend.Set(ctx, s.sessionID, KeyRefreshToken, refresh); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (s *Scoped) AccessToken(ctx context.Context) (string, error) {
	return s.read(ctx, KeyAccessToken)
}

func (s *Scoped) RefreshToken(ctx context.Context) (string, error) {
	return s.read(ctx, KeyRefreshToken)
}

func (s *Scoped) ClearTokens(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.sessionID, KeyAccessToken, KeyRefreshToken); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

func (s *Scoped) IsAuthenticated(ctx context.Context) bool {
	_, err := s.AccessToken(ctx)
	return err == nil
}

func (s *Scoped) read(ctx context.Context, key string) (string, error) {
	value, err := s.backend.Get(ctx, s.sessionID, key)
	if errors.Is(err, model.ErrTokenNotFound) || (err == nil && value == "") {
		return "", model.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}
