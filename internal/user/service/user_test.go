package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportshop/ecommerce/internal/common"
	"github.com/sportshop/ecommerce/internal/config"
	inErrors "github.com/sportshop/ecommerce/internal/errors"
	"github.com/sportshop/ecommerce/internal/repository"
	"github.com/sportshop/ecommerce/user/pkg/request"
)

type fakeUserStore struct {
	byEmail map[string]repository.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]repository.User{}}
}

func (s *fakeUserStore) InsertUser(c context.Context, user repository.User) (repository.User, error) {
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *fakeUserStore) FindUserByEmail(c context.Context, email string) (repository.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return repository.User{}, inErrors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *fakeUserStore) FindUserById(c context.Context, id uuid.UUID) (repository.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return repository.User{}, inErrors.ErrInvalidCredentials
}

var testAppConfig = config.Application{
	Env:       "development",
	SecretKey: "test-secret-key",
}

func TestRegisterAndLogin(t *testing.T) {
	c := context.Background()
	svc := NewUserService(newFakeUserStore(), testAppConfig)

	registered, err := svc.Register(c, request.Register{
		Email:    "shopper@example.com",
		Password: "secret123",
		Name:     "Shopper",
		Address:  "1 Main Street",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "shopper@example.com", registered.User.Email)
	assert.NotEqual(t, "secret123", registered.User.Password, "password must be stored hashed")

	logged, err := svc.Login(c, request.Login{
		Email:    "shopper@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, logged.Token)
	assert.Empty(t, logged.User.Password)

	authUser, err := common.VerifyToken(c, logged.Token, testAppConfig)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, authUser.ID)
	assert.Equal(t, "shopper@example.com", authUser.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	c := context.Background()
	svc := NewUserService(newFakeUserStore(), testAppConfig)

	_, err := svc.Register(c, request.Register{
		Email:    "shopper@example.com",
		Password: "secret123",
		Name:     "Shopper",
	})
	require.NoError(t, err)

	_, err = svc.Register(c, request.Register{
		Email:    "shopper@example.com",
		Password: "another456",
		Name:     "Impostor",
	})
	assert.ErrorIs(t, err, inErrors.ErrEmailAlreadyRegistered)
}

func TestLoginWrongPassword(t *testing.T) {
	c := context.Background()
	svc := NewUserService(newFakeUserStore(), testAppConfig)

	_, err := svc.Register(c, request.Register{
		Email:    "shopper@example.com",
		Password: "secret123",
		Name:     "Shopper",
	})
	require.NoError(t, err)

	_, err = svc.Login(c, request.Login{
		Email:    "shopper@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, inErrors.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	c := context.Background()
	svc := NewUserService(newFakeUserStore(), testAppConfig)

	_, err := svc.Login(c, request.Login{
		Email:    "nobody@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, inErrors.ErrInvalidCredentials)
}
