package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitdesk/gym-api/internal/models"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
)

type mockAuthUserRepo struct {
	user         *models.User
	findErr      error
	storedToken  *models.RefreshToken
	created      []*models.RefreshToken
	revokedIDs   []string
	revokedUsers []string
	newPassword  string
}

func (m *mockAuthUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *mockAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *mockAuthUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.newPassword = passwordHash
	return nil
}

func (m *mockAuthUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	return nil
}

func (m *mockAuthUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.created = append(m.created, token)
	return nil
}

func (m *mockAuthUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if m.storedToken == nil {
		return nil, sql.ErrNoRows
	}
	return m.storedToken, nil
}

func (m *mockAuthUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revokedIDs = append(m.revokedIDs, id)
	return nil
}

type mockAuthMemberRepo struct {
	member *models.Member
}

func (m *mockAuthMemberRepo) FindByUserID(ctx context.Context, userID string) (*models.Member, error) {
	if m.member == nil {
		return nil, sql.ErrNoRows
	}
	return m.member, nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func authTestConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := &mockAuthUserRepo{user: &models.User{
		ID:           "usr-1",
		Email:        "admin@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}}
	svc := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), authTestConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	require.Len(t, repo.created, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Empty(t, claims.MemberID)
}

func TestAuthServiceLoginStudentCarriesMemberID(t *testing.T) {
	repo := &mockAuthUserRepo{user: &models.User{
		ID:           "usr-2",
		Email:        "student@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Role:         models.RoleStudent,
		Active:       true,
	}}
	members := &mockAuthMemberRepo{member: &models.Member{ID: "mem-7"}}
	svc := NewAuthService(repo, members, nil, zap.NewNop(), authTestConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "secret123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "mem-7", claims.MemberID)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthUserRepo{user: &models.User{
		ID:           "usr-1",
		Email:        "admin@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Active:       true,
	}}
	svc := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "wrong"})
	assertCode(t, err, appErrors.ErrInvalidCredentials.Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	repo := &mockAuthUserRepo{findErr: sql.ErrNoRows}
	svc := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assertCode(t, err, appErrors.ErrInvalidCredentials.Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := &mockAuthUserRepo{user: &models.User{
		ID:           "usr-1",
		Email:        "admin@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Active:       false,
	}}
	svc := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "secret123"})
	assertCode(t, err, appErrors.ErrInactiveAccount.Code)
}

func TestAuthServiceLoginSingleSessionRevokesPrevious(t *testing.T) {
	repo := &mockAuthUserRepo{user: &models.User{
		ID:           "usr-1",
		Email:        "admin@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Active:       true,
	}}
	cfg := authTestConfig()
	cfg.SingleSession = true
	svc := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), cfg)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, []string{"usr-1"}, repo.revokedUsers)
}

func TestAuthServiceRefreshTokenRotates(t *testing.T) {
	repo := &mockAuthUserRepo{
		user: &models.User{ID: "usr-1", Active: true},
		storedToken: &models.RefreshToken{
			ID:        "tok-1",
			UserID:    "usr-1",
			Token:     "old-token",
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		},
	}
	svc := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), authTestConfig())

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.Equal(t, []string{"tok-1"}, repo.revokedIDs)
	require.Len(t, repo.created, 1)
}

func TestAuthServiceRefreshTokenExpired(t *testing.T) {
	repo := &mockAuthUserRepo{
		user: &models.User{ID: "usr-1", Active: true},
		storedToken: &models.RefreshToken{
			ID:        "tok-1",
			UserID:    "usr-1",
			Token:     "old-token",
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
		},
	}
	svc := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), authTestConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	assertCode(t, err, appErrors.ErrUnauthorized.Code)
}

func TestAuthServiceRefreshTokenRevoked(t *testing.T) {
	repo := &mockAuthUserRepo{
		user: &models.User{ID: "usr-1", Active: true},
		storedToken: &models.RefreshToken{
			ID:        "tok-1",
			UserID:    "usr-1",
			Token:     "old-token",
			ExpiresAt: time.Now().UTC().Add(time.Hour),
			Revoked:   true,
		},
	}
	svc := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), authTestConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	assertCode(t, err, appErrors.ErrUnauthorized.Code)
}

func TestAuthServiceLogout(t *testing.T) {
	repo := &mockAuthUserRepo{
		storedToken: &models.RefreshToken{ID: "tok-1", UserID: "usr-1", Token: "old-token"},
	}
	svc := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), authTestConfig())

	err := svc.Logout(context.Background(), "old-token", "usr-2")
	assertCode(t, err, appErrors.ErrForbidden.Code)

	err = svc.Logout(context.Background(), "old-token", "usr-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-1"}, repo.revokedIDs)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := &mockAuthUserRepo{user: &models.User{
		ID:           "usr-1",
		PasswordHash: hashPassword(t, "oldpass"),
		Active:       true,
	}}
	svc := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), authTestConfig())

	err := svc.ChangePassword(context.Background(), "usr-1", models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "newpass123",
	})
	assertCode(t, err, appErrors.ErrForbidden.Code)

	err = svc.ChangePassword(context.Background(), "usr-1", models.ChangePasswordRequest{
		OldPassword: "oldpass",
		NewPassword: "newpass123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, repo.newPassword)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.newPassword), []byte("newpass123")))
	assert.Equal(t, []string{"usr-1"}, repo.revokedUsers)
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	repo := &mockAuthUserRepo{user: &models.User{
		ID:           "usr-1",
		Email:        "admin@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Active:       true,
	}}
	svc := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), authTestConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)

	other := NewAuthService(repo, &mockAuthMemberRepo{}, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Hour,
	})
	_, err = other.ValidateToken(resp.AccessToken)
	assertCode(t, err, appErrors.ErrUnauthorized.Code)
}
