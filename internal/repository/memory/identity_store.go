package memory

import (
	"context"
	"sync"

	"cardquery/internal/domain/models"
	"cardquery/internal/domain/repositories"
)

// IdentityStore keeps licenses in process memory. Used in dev and tests;
// contents are lost on restart.
type IdentityStore struct {
	mu        sync.RWMutex
	licenses  map[string]models.License
	byEmail   map[string]string
	bySession map[string]string
}

// NewIdentityStore creates an empty store, optionally seeded with keys that
// have no email attached (e.g. trial keys from configuration).
func NewIdentityStore(seedKeys ...string) repositories.IdentityStore {
	s := &IdentityStore{
		licenses:  make(map[string]models.License),
		byEmail:   make(map[string]string),
		bySession: make(map[string]string),
	}
	for _, k := range seedKeys {
		if k != "" {
			s.licenses[k] = models.License{Key: k}
		}
	}
	return s
}

func (s *IdentityStore) IsValid(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.licenses[key]
	return ok, nil
}

func (s *IdentityStore) Add(ctx context.Context, license *models.License) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.licenses[license.Key]; exists {
		return false, nil
	}
	if _, taken := s.byEmail[license.Email]; taken && license.Email != "" {
		return false, nil
	}
	s.licenses[license.Key] = *license
	if license.Email != "" {
		s.byEmail[license.Email] = license.Key
	}
	if license.SessionID != "" {
		s.bySession[license.SessionID] = license.Key
	}
	return true, nil
}

func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byEmail[email], nil
}

func (s *IdentityStore) FindBySession(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bySession[sessionID], nil
}

func (s *IdentityStore) LinkSession(ctx context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.bySession[sessionID]; !taken {
		s.bySession[sessionID] = key
	}
	return nil
}

func (s *IdentityStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.licenses), nil
}

func (s *IdentityStore) Ping(ctx context.Context) error {
	return nil
}
