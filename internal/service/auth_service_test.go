package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/classly/classly-api/internal/dto"
	"github.com/classly/classly-api/internal/models"
)

type memoryUserRepo struct {
	users  map[uint]models.User
	nextID uint
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uint]models.User), nextID: 1}
}

func (m *memoryUserRepo) GetByID(_ context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = m.nextID
	m.users[m.nextID] = *user
	m.nextID++
	return nil
}

func testTokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	}
}

func newTestAuthService(users *memoryUserRepo) AuthService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewAuthService(users, testTokenConfig(), validate, zerolog.Nop())
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	users := newMemoryUserRepo()
	svc := newTestAuthService(users)

	pair, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Ada Teacher",
		Email:    "Ada@Example.com",
		Password: "correct-horse",
		Role:     models.RoleTeacher,
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "ada@example.com", pair.User.Email)
	require.Equal(t, models.RoleTeacher, pair.User.Role)

	token, err := jwt.Parse(pair.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte("access-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	require.Equal(t, "1", claims["sub"])
	require.Equal(t, models.RoleTeacher, claims["role"])
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	users := newMemoryUserRepo()
	svc := newTestAuthService(users)

	payload := dto.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "correct-horse", Role: models.RoleTeacher,
	}
	_, err := svc.Register(context.Background(), payload)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), payload)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newTestAuthService(newMemoryUserRepo())

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "correct-horse", Role: "admin",
	})
	require.Error(t, err)
}

func TestLoginVerifiesPassword(t *testing.T) {
	users := newMemoryUserRepo()
	svc := newTestAuthService(users)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "correct-horse", Role: models.RoleStudent,
	})
	require.NoError(t, err)

	pair, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "ada@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Email: "ada@example.com", Password: "wrong",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestAuthService(newMemoryUserRepo())

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "missing@example.com", Password: "whatever",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesPair(t *testing.T) {
	users := newMemoryUserRepo()
	svc := newTestAuthService(users)

	pair, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "correct-horse", Role: models.RoleStudent,
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Equal(t, pair.User.ID, refreshed.User.ID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	users := newMemoryUserRepo()
	svc := newTestAuthService(users)

	pair, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "correct-horse", Role: models.RoleStudent,
	})
	require.NoError(t, err)

	// Signed with the access secret, so it must not pass as a refresh token.
	_, err = svc.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: pair.AccessToken})
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}
