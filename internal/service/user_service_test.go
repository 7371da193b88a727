package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitdesk/gym-api/internal/models"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
)

type mockUserRepo struct {
	user        *models.User
	findErr     error
	emailExists bool
	created     *models.User
	updated     *models.User
	deactivated string
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.user == nil {
		return nil, 0, nil
	}
	return []models.User{*m.user}, 1, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.emailExists, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "usr-1"
	m.created = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.updated = user
	return nil
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = id
	return nil
}

func TestUserServiceCreate(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, zap.NewNop())

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "coach@example.com",
		Password: "secret123",
		FullName: "Coach Carter",
		Role:     models.RoleInstructor,
	})
	require.NoError(t, err)
	assert.Equal(t, "usr-1", user.ID)
	assert.True(t, user.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{emailExists: true}
	svc := NewUserService(repo, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "coach@example.com",
		Password: "secret123",
		FullName: "Coach Carter",
		Role:     models.RoleInstructor,
	})
	assertCode(t, err, appErrors.ErrConflict.Code)
}

func TestUserServiceCreateInvalidRole(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "coach@example.com",
		Password: "secret123",
		FullName: "Coach Carter",
		Role:     "SUPERUSER",
	})
	assertCode(t, err, appErrors.ErrValidation.Code)
}

func TestUserServiceUpdate(t *testing.T) {
	active := false
	repo := &mockUserRepo{user: &models.User{ID: "usr-1", FullName: "Coach", Role: models.RoleInstructor, Active: true}}
	svc := NewUserService(repo, nil, zap.NewNop())

	user, err := svc.Update(context.Background(), "usr-1", UpdateUserRequest{
		FullName: "Coach Carter",
		Role:     models.RoleReceptionist,
		Active:   &active,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleReceptionist, user.Role)
	assert.False(t, user.Active)
}

func TestUserServiceDeactivateNotFound(t *testing.T) {
	repo := &mockUserRepo{findErr: sql.ErrNoRows}
	svc := NewUserService(repo, nil, zap.NewNop())

	err := svc.Deactivate(context.Background(), "missing")
	assertCode(t, err, appErrors.ErrNotFound.Code)
}
