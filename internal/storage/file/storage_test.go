package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
)

type StorageSuite struct {
	suite.Suite
	dir     string
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.dir = s.T().TempDir()
	st, err := New(s.dir)
	s.Require().NoError(err)
	s.storage = st
	s.ctx = context.Background()
}

// Credential tests

func (s *StorageSuite) TestCreateAndGetCredential() {
	s.Require().NoError(s.storage.CreateCredential(s.ctx, &model.Credential{Username: "ana", PasswordHash: "hash"}))

	got, err := s.storage.GetCredential(s.ctx, "ana")
	s.Require().NoError(err)
	s.Equal("hash", got.PasswordHash)
	s.FileExists(filepath.Join(s.dir, usersDir, "ana.json"))
}

func (s *StorageSuite) TestCreateCredentialTwice() {
	s.Require().NoError(s.storage.CreateCredential(s.ctx, &model.Credential{Username: "ana", PasswordHash: "a"}))
	err := s.storage.CreateCredential(s.ctx, &model.Credential{Username: "ana", PasswordHash: "b"})
	s.ErrorIs(err, model.ErrUserExists)
}

func (s *StorageSuite) TestSaveCredential() {
	s.Require().NoError(s.storage.CreateCredential(s.ctx, &model.Credential{Username: "ana", PasswordHash: "a"}))
	s.Require().NoError(s.storage.SaveCredential(s.ctx, &model.Credential{Username: "ana", PasswordHash: "b"}))

	got, _ := s.storage.GetCredential(s.ctx, "ana")
	s.Equal("b", got.PasswordHash)

	err := s.storage.SaveCredential(s.ctx, &model.Credential{Username: "bob"})
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestUsernameCannotEscapeDataDir() {
	s.Require().NoError(s.storage.CreateCredential(s.ctx, &model.Credential{Username: "../evil", PasswordHash: "x"}))

	_, err := os.Stat(filepath.Join(s.dir, "evil.json"))
	s.True(os.IsNotExist(err))

	got, err := s.storage.GetCredential(s.ctx, "../evil")
	s.Require().NoError(err)
	s.Equal("x", got.PasswordHash)
}

func (s *StorageSuite) TestCredentialExists() {
	exists, err := s.storage.CredentialExists(s.ctx, "ana")
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.storage.GetCredential(s.ctx, "ana")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Leaderboard tests

func (s *StorageSuite) TestLeaderboardPersists() {
	for i, user := range []string{"a", "b", "c"} {
		s.Require().NoError(s.storage.AddLeaderboardEntry(s.ctx, model.LeaderboardEntry{User: user, Score: uint64(i)}, 2))
	}

	reopened, err := New(s.dir)
	s.Require().NoError(err)
	board, err := reopened.GetLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.LeaderboardEntry{{User: "c", Score: 2}, {User: "b", Score: 1}}, board)
}

func (s *StorageSuite) TestEmptyLeaderboard() {
	board, err := s.storage.GetLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Empty(board)
}
