package storage

import (
	"context"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Credential operations
	CreateCredential(ctx context.Context, cred *model.Credential) error // ErrUserExists if taken
	GetCredential(ctx context.Context, username string) (*model.Credential, error)
	SaveCredential(ctx context.Context, cred *model.Credential) error // ErrUserNotFound if missing
	CredentialExists(ctx context.Context, username string) (bool, error)

	// Leaderboard operations
	AddLeaderboardEntry(ctx context.Context, entry model.LeaderboardEntry, limit int) error
	GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}
