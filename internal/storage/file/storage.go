// Package file stores credentials as one file per user and the leaderboard
// as a single file, all under one data directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/segmentio/encoding/json"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/storage"
)

const (
	usersDir        = "users"
	leaderboardFile = "leaderboard.json"
)

// Storage is a filesystem implementation of the storage interface
type Storage struct {
	dir string

	// mu serializes read-modify-write cycles within this process
	mu sync.Mutex
}

// New creates the data directory layout under dir if needed
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Join(dir, usersDir), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// userPath escapes the name so that no username can leave the users directory
func (s *Storage) userPath(username string) string {
	return filepath.Join(s.dir, usersDir, url.PathEscape(username)+".json")
}

// Credential operations

func (s *Storage) CreateCredential(ctx context.Context, cred *model.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.userPath(cred.Username), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return model.ErrUserExists
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *Storage) GetCredential(ctx context.Context, username string) (*model.Credential, error) {
	data, err := os.ReadFile(s.userPath(username))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var cred model.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("read credential %q: %w", username, err)
	}
	return &cred, nil
}

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.userPath(cred.Username)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.ErrUserNotFound
		}
		return err
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data, 0o600)
}

func (s *Storage) CredentialExists(ctx context.Context, username string) (bool, error) {
	_, err := os.Stat(s.userPath(username))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Leaderboard operations

func (s *Storage) AddLeaderboardEntry(ctx context.Context, entry model.LeaderboardEntry, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.readLeaderboard()
	if err != nil {
		return err
	}
	board = model.InsertEntry(board, entry, limit)

	data, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, leaderboardFile), data, 0o644)
}

func (s *Storage) GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLeaderboard()
}

func (s *Storage) readLeaderboard() ([]model.LeaderboardEntry, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, leaderboardFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var board []model.LeaderboardEntry
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	return board, nil
}

// writeFileAtomic replaces path with data through a temp file and a rename
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
