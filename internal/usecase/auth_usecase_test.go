package usecase

import (
	"context"
	"testing"
	"time"

	"telehealth-consultation-service/config"
	"telehealth-consultation-service/internal/delivery/dto"
	"telehealth-consultation-service/internal/domain/entity"
	"telehealth-consultation-service/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	usecase    AuthUsecase
	users      *fakeUserRepo
	jwtService *jwt.JWTService
	redis      *redis.Client
	mini       *miniredis.Miniredis
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        "unit-test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})

	users := newFakeUserRepo()

	return &authFixture{
		usecase:    NewAuthUsecase(newTestDB(t), newTestLogger(), users, jwtService, redisClient),
		users:      users,
		jwtService: jwtService,
		redis:      redisClient,
		mini:       mini,
	}
}

func TestRegisterPatientHashesPassword(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.usecase.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Email:    "Alice@Example.com",
		Password: "correct-horse-battery",
		FullName: "Alice Patient",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", resp.Email)
	assert.Equal(t, entity.RolePatient, resp.Role)

	stored, err := f.users.FindByEmail(nil, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct-horse-battery", stored.Password)
}

func TestLoginIssuesTokensAndStoresThem(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.usecase.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
		FullName: "Alice Patient",
	})
	require.NoError(t, err)

	tokens, err := f.usecase.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	claims, err := f.jwtService.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleIDPatient, claims.RoleID)
	assert.Equal(t, jwt.AccessToken, claims.TokenType)

	// The access token id is tracked in Redis for revocation.
	keys := f.mini.Keys()
	assert.NotEmpty(t, keys)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.usecase.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
		FullName: "Alice Patient",
	})
	require.NoError(t, err)

	_, err = f.usecase.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.usecase.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.usecase.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
		FullName: "Alice Patient",
	})
	require.NoError(t, err)

	tokens, err := f.usecase.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	accessClaims, err := f.jwtService.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	refreshClaims, err := f.jwtService.ValidateToken(tokens.RefreshToken)
	require.NoError(t, err)

	err = f.usecase.Logout(context.Background(), accessClaims.TokenID, refreshClaims.TokenID)
	require.NoError(t, err)

	assert.Empty(t, f.mini.Keys())
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.usecase.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
		FullName: "Alice Patient",
	})
	require.NoError(t, err)

	tokens, err := f.usecase.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	refreshed, err := f.usecase.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: tokens.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)

	// The spent refresh token cannot be replayed.
	_, err = f.usecase.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: tokens.RefreshToken,
	})
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.usecase.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
		FullName: "Alice Patient",
	})
	require.NoError(t, err)

	tokens, err := f.usecase.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	_, err = f.usecase.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: tokens.AccessToken,
	})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
