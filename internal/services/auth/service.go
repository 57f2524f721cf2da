package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/clock"
	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service is the credential store: account creation, password checks and
// password changes over storage, with bcrypt hashes
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	cost    int
}

// Config holds configuration for the auth service
type Config struct {
	// BcryptCost is the hashing cost; tests use bcrypt.MinCost
	BcryptCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		BcryptCost: bcrypt.DefaultCost,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	return &Service{
		storage: storage,
		clock:   clock,
		cost:    cfg.BcryptCost,
	}
}

// Exists reports whether username has an account
func (s *Service) Exists(ctx context.Context, username string) (bool, error) {
	return s.storage.CredentialExists(ctx, username)
}

// CreateUser registers a new account. It fails with model.ErrUserExists if the
// name is taken, or a validation error for a bad name or password.
func (s *Service) CreateUser(ctx context.Context, username, password string) error {
	if err := model.ValidateUsername(username); err != nil {
		return err
	}
	if err := model.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	return s.storage.CreateCredential(ctx, &model.Credential{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Verify checks a username and password pair
func (s *Service) Verify(ctx context.Context, username, password string) error {
	_, err := s.verify(ctx, username, password)
	return err
}

// ChangePassword replaces the password after checking the old one
func (s *Service) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	cred, err := s.verify(ctx, username, oldPassword)
	if err != nil {
		return err
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	cred.PasswordHash = string(hash)
	cred.UpdatedAt = s.clock.Now()
	return s.storage.SaveCredential(ctx, cred)
}

func (s *Service) verify(ctx context.Context, username, password string) (*model.Credential, error) {
	cred, err := s.storage.GetCredential(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return cred, nil
}
