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
	"github.com/fitdesk/gym-api/internal/repository"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	exists    bool
	createErr error
	deleted   bool
	created   *models.Enrollment
	capacity  int
	details   []models.EnrollmentDetail
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return m.details, len(m.details), nil
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, memberID, classID string) (bool, error) {
	return m.exists, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment, capacity int) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = enrollment
	m.capacity = capacity
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, memberID, classID string) (bool, error) {
	return m.deleted, nil
}

func (m *mockEnrollmentRepo) ListByMember(ctx context.Context, memberID string) ([]models.EnrollmentDetail, error) {
	return m.details, nil
}

type mockMemberReader struct {
	member *models.Member
	err    error
}

func (m *mockMemberReader) FindByID(ctx context.Context, id string) (*models.Member, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.member, nil
}

type mockClassReader struct {
	class    *models.GymClass
	err      error
	enrolled int
}

func (m *mockClassReader) FindByID(ctx context.Context, id string) (*models.GymClass, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.class, nil
}

func (m *mockClassReader) CountEnrollments(ctx context.Context, classID string) (int, error) {
	return m.enrolled, nil
}

func enrollmentFixtures(startsIn time.Duration, capacity, enrolled int) (*mockEnrollmentRepo, *mockMemberReader, *mockClassReader, func() time.Time) {
	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	repo := &mockEnrollmentRepo{}
	members := &mockMemberReader{member: &models.Member{ID: "mem-1", Active: true}}
	classes := &mockClassReader{
		class:    &models.GymClass{ID: "class-1", StartsAt: now.Add(startsIn), Capacity: capacity},
		enrolled: enrolled,
	}
	return repo, members, classes, func() time.Time { return now }
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo, members, classes, clock := enrollmentFixtures(time.Hour, 10, 3)
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	enrollment, err := svc.Enroll(context.Background(), EnrollRequest{MemberID: "mem-1", ClassID: "class-1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mem-1", enrollment.MemberID)
	assert.Equal(t, "class-1", enrollment.ClassID)
	assert.Equal(t, 10, repo.capacity)
}

func TestEnrollmentServiceEnrollStudentSelfOnly(t *testing.T) {
	repo, members, classes, clock := enrollmentFixtures(time.Hour, 10, 0)
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	actor := &models.JWTClaims{Role: models.RoleStudent, MemberID: "mem-2"}
	_, err := svc.Enroll(context.Background(), EnrollRequest{MemberID: "mem-1", ClassID: "class-1"}, actor)
	assertCode(t, err, appErrors.ErrForbidden.Code)

	actor.MemberID = "mem-1"
	_, err = svc.Enroll(context.Background(), EnrollRequest{MemberID: "mem-1", ClassID: "class-1"}, actor)
	require.NoError(t, err)
}

func TestEnrollmentServiceEnrollInactiveMember(t *testing.T) {
	repo, members, classes, clock := enrollmentFixtures(time.Hour, 10, 0)
	members.member.Active = false
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	_, err := svc.Enroll(context.Background(), EnrollRequest{MemberID: "mem-1", ClassID: "class-1"}, nil)
	assertCode(t, err, appErrors.ErrPreconditionFailed.Code)
}

func TestEnrollmentServiceEnrollClassStarted(t *testing.T) {
	repo, members, classes, clock := enrollmentFixtures(-time.Minute, 10, 0)
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	_, err := svc.Enroll(context.Background(), EnrollRequest{MemberID: "mem-1", ClassID: "class-1"}, nil)
	assertCode(t, err, appErrors.ErrPreconditionFailed.Code)
}

func TestEnrollmentServiceEnrollClassStartsNow(t *testing.T) {
	// A class starting exactly now is closed to new enrollments.
	repo, members, classes, clock := enrollmentFixtures(0, 10, 0)
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	_, err := svc.Enroll(context.Background(), EnrollRequest{MemberID: "mem-1", ClassID: "class-1"}, nil)
	assertCode(t, err, appErrors.ErrPreconditionFailed.Code)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	repo, members, classes, clock := enrollmentFixtures(time.Hour, 10, 1)
	repo.exists = true
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	_, err := svc.Enroll(context.Background(), EnrollRequest{MemberID: "mem-1", ClassID: "class-1"}, nil)
	assertCode(t, err, appErrors.ErrConflict.Code)
}

func TestEnrollmentServiceEnrollClassFull(t *testing.T) {
	repo, members, classes, clock := enrollmentFixtures(time.Hour, 2, 2)
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	_, err := svc.Enroll(context.Background(), EnrollRequest{MemberID: "mem-1", ClassID: "class-1"}, nil)
	assertCode(t, err, appErrors.ErrConflict.Code)
}

func TestEnrollmentServiceEnrollRaceLostMapsSentinels(t *testing.T) {
	// The advisory checks passed but the conditional insert lost the race.
	repo, members, classes, clock := enrollmentFixtures(time.Hour, 2, 1)
	repo.createErr = repository.ErrClassFull
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	_, err := svc.Enroll(context.Background(), EnrollRequest{MemberID: "mem-1", ClassID: "class-1"}, nil)
	assertCode(t, err, appErrors.ErrConflict.Code)

	repo.createErr = repository.ErrDuplicateEnrollment
	_, err = svc.Enroll(context.Background(), EnrollRequest{MemberID: "mem-1", ClassID: "class-1"}, nil)
	assertCode(t, err, appErrors.ErrConflict.Code)
}

func TestEnrollmentServiceEnrollClassNotFound(t *testing.T) {
	repo, members, classes, clock := enrollmentFixtures(time.Hour, 10, 0)
	classes.err = sql.ErrNoRows
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	_, err := svc.Enroll(context.Background(), EnrollRequest{MemberID: "mem-1", ClassID: "missing"}, nil)
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func TestEnrollmentServiceCancel(t *testing.T) {
	repo, members, classes, clock := enrollmentFixtures(time.Hour, 10, 1)
	repo.deleted = true
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	err := svc.Cancel(context.Background(), "mem-1", "class-1", nil)
	require.NoError(t, err)
}

func TestEnrollmentServiceCancelAfterStart(t *testing.T) {
	repo, members, classes, clock := enrollmentFixtures(-time.Hour, 10, 1)
	repo.deleted = true
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	err := svc.Cancel(context.Background(), "mem-1", "class-1", nil)
	assertCode(t, err, appErrors.ErrPreconditionFailed.Code)
}

func TestEnrollmentServiceCancelMissingEnrollment(t *testing.T) {
	repo, members, classes, clock := enrollmentFixtures(time.Hour, 10, 0)
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	err := svc.Cancel(context.Background(), "mem-1", "class-1", nil)
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func TestEnrollmentServiceCancelStudentSelfOnly(t *testing.T) {
	repo, members, classes, clock := enrollmentFixtures(time.Hour, 10, 1)
	repo.deleted = true
	svc := NewEnrollmentService(repo, members, classes, nil, zap.NewNop()).WithClock(clock)

	actor := &models.JWTClaims{Role: models.RoleStudent, MemberID: "mem-2"}
	err := svc.Cancel(context.Background(), "mem-1", "class-1", actor)
	assertCode(t, err, appErrors.ErrForbidden.Code)
}
