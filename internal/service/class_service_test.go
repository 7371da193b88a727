package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitdesk/gym-api/internal/models"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
)

type mockClassRepo struct {
	class    *models.GymClass
	findErr  error
	enrolled int
	created  *models.GymClass
	updated  *models.GymClass
	deleted  string
}

func (m *mockClassRepo) List(ctx context.Context, filter models.GymClassFilter) ([]models.GymClassDetail, int, error) {
	if m.class == nil {
		return nil, 0, nil
	}
	return []models.GymClassDetail{{GymClass: *m.class, EnrolledCount: m.enrolled}}, 1, nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.GymClass, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.class, nil
}

func (m *mockClassRepo) FindDetailByID(ctx context.Context, id string) (*models.GymClassDetail, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return &models.GymClassDetail{GymClass: *m.class, EnrolledCount: m.enrolled}, nil
}

func (m *mockClassRepo) CountEnrollments(ctx context.Context, classID string) (int, error) {
	return m.enrolled, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.GymClass) error {
	class.ID = "class-1"
	m.created = class
	m.class = class
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.GymClass) error {
	m.updated = class
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return nil
}

type mockInstructorReader struct {
	user *models.User
	err  error
}

func (m *mockInstructorReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func classClock() func() time.Time {
	return fixedClock(2026, time.September, 1)
}

func validCreateClassRequest(startsAt time.Time) CreateClassRequest {
	return CreateClassRequest{
		Name:         "Spinning",
		Description:  "High intensity",
		StartsAt:     startsAt,
		Capacity:     15,
		InstructorID: "usr-1",
	}
}

func TestClassServiceCreate(t *testing.T) {
	repo := &mockClassRepo{}
	instructors := &mockInstructorReader{user: &models.User{ID: "usr-1", Role: models.RoleInstructor, Active: true}}
	svc := NewClassService(repo, instructors, nil, zap.NewNop()).WithClock(classClock())

	startsAt := classClock()().Add(24 * time.Hour)
	detail, err := svc.Create(context.Background(), validCreateClassRequest(startsAt))
	require.NoError(t, err)
	assert.Equal(t, "Spinning", detail.Name)
	assert.Equal(t, 15, detail.Capacity)
	require.NotNil(t, repo.created)
	assert.Equal(t, startsAt.UTC(), repo.created.StartsAt)
}

func TestClassServiceCreateInPast(t *testing.T) {
	repo := &mockClassRepo{}
	instructors := &mockInstructorReader{user: &models.User{ID: "usr-1", Role: models.RoleInstructor, Active: true}}
	svc := NewClassService(repo, instructors, nil, zap.NewNop()).WithClock(classClock())

	_, err := svc.Create(context.Background(), validCreateClassRequest(classClock()().Add(-time.Hour)))
	assertCode(t, err, appErrors.ErrValidation.Code)
}

func TestClassServiceCreateRejectsNonInstructor(t *testing.T) {
	repo := &mockClassRepo{}
	instructors := &mockInstructorReader{user: &models.User{ID: "usr-1", Role: models.RoleReceptionist, Active: true}}
	svc := NewClassService(repo, instructors, nil, zap.NewNop()).WithClock(classClock())

	_, err := svc.Create(context.Background(), validCreateClassRequest(classClock()().Add(time.Hour)))
	assertCode(t, err, appErrors.ErrPreconditionFailed.Code)

	instructors.user = &models.User{ID: "usr-1", Role: models.RoleInstructor, Active: false}
	_, err = svc.Create(context.Background(), validCreateClassRequest(classClock()().Add(time.Hour)))
	assertCode(t, err, appErrors.ErrPreconditionFailed.Code)
}

func TestClassServiceUpdateCapacityGuard(t *testing.T) {
	repo := &mockClassRepo{
		class:    &models.GymClass{ID: "class-1", Name: "Spinning", Capacity: 15, InstructorID: "usr-1"},
		enrolled: 10,
	}
	svc := NewClassService(repo, &mockInstructorReader{}, nil, zap.NewNop()).WithClock(classClock())

	req := UpdateClassRequest{Name: "Spinning", StartsAt: classClock()().Add(time.Hour), Capacity: 5}
	_, err := svc.Update(context.Background(), "class-1", req, nil)
	assertCode(t, err, appErrors.ErrPreconditionFailed.Code)

	// Capacity equal to the enrollment count is allowed.
	req.Capacity = 10
	detail, err := svc.Update(context.Background(), "class-1", req, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, detail.Capacity)
}

func TestClassServiceUpdateInstructorOwnership(t *testing.T) {
	repo := &mockClassRepo{
		class: &models.GymClass{ID: "class-1", Name: "Spinning", Capacity: 15, InstructorID: "usr-1"},
	}
	svc := NewClassService(repo, &mockInstructorReader{}, nil, zap.NewNop()).WithClock(classClock())

	req := UpdateClassRequest{Name: "Spinning", StartsAt: classClock()().Add(time.Hour), Capacity: 15}
	actor := &models.JWTClaims{UserID: "usr-2", Role: models.RoleInstructor}
	_, err := svc.Update(context.Background(), "class-1", req, actor)
	assertCode(t, err, appErrors.ErrForbidden.Code)

	// Admins are not subject to ownership.
	actor = &models.JWTClaims{UserID: "usr-2", Role: models.RoleAdmin}
	_, err = svc.Update(context.Background(), "class-1", req, actor)
	require.NoError(t, err)
}

func TestClassServiceDelete(t *testing.T) {
	repo := &mockClassRepo{
		class: &models.GymClass{ID: "class-1", InstructorID: "usr-1"},
	}
	svc := NewClassService(repo, &mockInstructorReader{}, nil, zap.NewNop())

	actor := &models.JWTClaims{UserID: "usr-2", Role: models.RoleInstructor}
	err := svc.Delete(context.Background(), "class-1", actor)
	assertCode(t, err, appErrors.ErrForbidden.Code)

	actor.UserID = "usr-1"
	err = svc.Delete(context.Background(), "class-1", actor)
	require.NoError(t, err)
	assert.Equal(t, "class-1", repo.deleted)
}

func TestClassServiceGetNotFound(t *testing.T) {
	repo := &mockClassRepo{findErr: sql.ErrNoRows}
	svc := NewClassService(repo, &mockInstructorReader{}, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	assertCode(t, err, appErrors.ErrNotFound.Code)
}
