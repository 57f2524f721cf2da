package leaderboard

import (
	"context"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/storage"
)

// Service keeps the best finished games
type Service struct {
	storage storage.Storage
	size    int
}

// New creates a leaderboard holding at most size entries; 0 means model.LeaderboardSize
func New(storage storage.Storage, size int) *Service {
	if size <= 0 {
		size = model.LeaderboardSize
	}
	return &Service{storage: storage, size: size}
}

// Add records a finished game, dropping whatever falls off the bottom
func (s *Service) Add(ctx context.Context, entry model.LeaderboardEntry) error {
	return s.storage.AddLeaderboardEntry(ctx, entry, s.size)
}

// Top returns the leaderboard, best first
func (s *Service) Top(ctx context.Context) ([]model.LeaderboardEntry, error) {
	return s.storage.GetLeaderboard(ctx)
}
