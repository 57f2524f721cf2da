package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/mocks"
	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, Config{BcryptCost: bcrypt.MinCost})
	s.ctx = context.Background()
}

// CreateUser tests

func (s *ServiceSuite) TestCreateUserSucceeds() {
	s.Require().NoError(s.service.CreateUser(s.ctx, "ana", "x"))

	exists, err := s.service.Exists(s.ctx, "ana")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *ServiceSuite) TestCreateUserStoresHashNotPassword() {
	s.Require().NoError(s.service.CreateUser(s.ctx, "ana", "secret"))

	cred, err := s.storage.GetCredential(s.ctx, "ana")
	s.Require().NoError(err)
	s.NotEqual("secret", cred.PasswordHash)
	s.Equal(s.clock.Now(), cred.CreatedAt)
}

func (s *ServiceSuite) TestCreateUserTwice() {
	s.Require().NoError(s.service.CreateUser(s.ctx, "ana", "x"))
	s.ErrorIs(s.service.CreateUser(s.ctx, "ana", "y"), model.ErrUserExists)
}

func (s *ServiceSuite) TestCreateUserValidates() {
	s.ErrorIs(s.service.CreateUser(s.ctx, "two words", "x"), model.ErrInvalidUsername)
	s.ErrorIs(s.service.CreateUser(s.ctx, "ana", ""), model.ErrInvalidPassword)

	exists, _ := s.service.Exists(s.ctx, "ana")
	s.False(exists)
}

// Verify tests

func (s *ServiceSuite) TestVerify() {
	s.Require().NoError(s.service.CreateUser(s.ctx, "ana", "x"))

	s.NoError(s.service.Verify(s.ctx, "ana", "x"))
	s.ErrorIs(s.service.Verify(s.ctx, "ana", "y"), ErrInvalidCredentials)
	s.ErrorIs(s.service.Verify(s.ctx, "bob", "x"), ErrInvalidCredentials)
}

// ChangePassword tests

func (s *ServiceSuite) TestChangePassword() {
	s.Require().NoError(s.service.CreateUser(s.ctx, "ana", "x"))
	s.clock.Advance(time.Hour)

	s.Require().NoError(s.service.ChangePassword(s.ctx, "ana", "x", "y"))
	s.ErrorIs(s.service.Verify(s.ctx, "ana", "x"), ErrInvalidCredentials)
	s.NoError(s.service.Verify(s.ctx, "ana", "y"))

	cred, _ := s.storage.GetCredential(s.ctx, "ana")
	s.Equal(s.clock.Now(), cred.UpdatedAt)
}

func (s *ServiceSuite) TestChangePasswordWrongOld() {
	s.Require().NoError(s.service.CreateUser(s.ctx, "ana", "x"))

	s.ErrorIs(s.service.ChangePassword(s.ctx, "ana", "nope", "y"), ErrInvalidCredentials)
	s.NoError(s.service.Verify(s.ctx, "ana", "x"))
}

func (s *ServiceSuite) TestChangePasswordRejectsInvalidNew() {
	s.Require().NoError(s.service.CreateUser(s.ctx, "ana", "x"))
	s.ErrorIs(s.service.ChangePassword(s.ctx, "ana", "x", "a b"), model.ErrInvalidPassword)
	s.NoError(s.service.Verify(s.ctx, "ana", "x"))
}
