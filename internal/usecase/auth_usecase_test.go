package usecase_test

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubIssuer struct{}

func (stubIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	return "token-" + string(role), now.Add(15 * time.Minute), nil
}

func newAuthUsecase(users *UserRepoMock) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(users, usecase.NewBcryptPasswordHasher(bcrypt.MinCost), stubIssuer{}, fixedClock{t: testNow})
}

func TestAuthUsecase_Register_Seller(t *testing.T) {
	users := new(UserRepoMock)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "ravi@example.com" && u.Role == model.RoleSeller && u.PasswordHash != "password123"
	})).Return(nil)

	u, err := newAuthUsecase(users).Register(context.Background(), usecase.RegisterInput{
		Name:     "Ravi",
		Email:    " Ravi@Example.com ",
		Password: "password123",
		Role:     "seller",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, model.RoleSeller, u.Role)
	users.AssertExpectations(t)
}

func TestAuthUsecase_Register_AdminNotAllowed(t *testing.T) {
	users := new(UserRepoMock)

	_, err := newAuthUsecase(users).Register(context.Background(), usecase.RegisterInput{
		Name: "Eve", Email: "eve@example.com", Password: "password123", Role: "admin",
	})
	assertKind(t, err, usecase.KindValidation)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Register_ShortPassword(t *testing.T) {
	_, err := newAuthUsecase(new(UserRepoMock)).Register(context.Background(), usecase.RegisterInput{
		Name: "A", Email: "a@example.com", Password: "short",
	})
	assertKind(t, err, usecase.KindValidation)
}

func TestAuthUsecase_Register_EmailTaken(t *testing.T) {
	users := new(UserRepoMock)
	users.On("Create", mock.Anything, mock.Anything).Return(repo.ErrEmailTaken)

	_, err := newAuthUsecase(users).Register(context.Background(), usecase.RegisterInput{
		Name: "A", Email: "a@example.com", Password: "password123",
	})
	assertKind(t, err, usecase.KindConflict)
}

func TestAuthUsecase_Login(t *testing.T) {
	hasher := usecase.NewBcryptPasswordHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("password123")
	require.NoError(t, err)

	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "a@example.com").
		Return(&model.User{ID: 5, Email: "a@example.com", PasswordHash: hash, Role: model.RoleBuyer}, nil)

	uc := newAuthUsecase(users)

	out, err := uc.Login(context.Background(), usecase.LoginInput{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "token-buyer", out.Token.AccessToken)
	assert.Equal(t, 900, out.Token.ExpiresIn)
	assert.Equal(t, int64(5), out.User.ID)

	_, err = uc.Login(context.Background(), usecase.LoginInput{Email: "a@example.com", Password: "wrong-password"})
	assertKind(t, err, usecase.KindUnauthorized)
}

func TestAuthUsecase_Login_UnknownEmail(t *testing.T) {
	users := new(UserRepoMock)
	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, repo.ErrNotFound)

	_, err := newAuthUsecase(users).Login(context.Background(), usecase.LoginInput{Email: "nobody@example.com", Password: "x"})
	assertKind(t, err, usecase.KindUnauthorized)
}
