package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	credentials map[string]model.Credential
	leaderboard []model.LeaderboardEntry
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		credentials: make(map[string]model.Credential),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Credential operations

func (s *Storage) CreateCredential(ctx context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[cred.Username]; ok {
		return model.ErrUserExists
	}
	s.credentials[cred.Username] = *cred
	return nil
}

func (s *Storage) GetCredential(ctx context.Context, username string) (*model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &cred, nil
}

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[cred.Username]; !ok {
		return model.ErrUserNotFound
	}
	s.credentials[cred.Username] = *cred
	return nil
}

func (s *Storage) CredentialExists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.credentials[username]
	return ok, nil
}

// Leaderboard operations

func (s *Storage) AddLeaderboardEntry(ctx context.Context, entry model.LeaderboardEntry, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaderboard = model.InsertEntry(s.leaderboard, entry, limit)
	return nil
}

func (s *Storage) GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.leaderboard), nil
}
