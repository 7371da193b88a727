package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitdesk/gym-api/internal/models"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
)

type mockWorkoutRepo struct {
	template        *models.WorkoutTemplateDetail
	findErr         error
	templates       []models.WorkoutTemplate
	lastCreatedBy   string
	createdTemplate *models.WorkoutTemplate
	savedExercises  []models.Exercise
	assignment      *models.WorkoutAssignment
	assignments     []models.WorkoutAssignmentDetail
	deletedTemplate string
	unassignOK      bool
}

func (m *mockWorkoutRepo) ListTemplates(ctx context.Context, createdBy string) ([]models.WorkoutTemplate, error) {
	m.lastCreatedBy = createdBy
	return m.templates, nil
}

func (m *mockWorkoutRepo) FindTemplateByID(ctx context.Context, id string) (*models.WorkoutTemplateDetail, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.template, nil
}

func (m *mockWorkoutRepo) CreateTemplate(ctx context.Context, template *models.WorkoutTemplate, exercises []models.Exercise) error {
	template.ID = "tpl-1"
	m.createdTemplate = template
	m.savedExercises = exercises
	m.template = &models.WorkoutTemplateDetail{WorkoutTemplate: *template, Exercises: exercises}
	return nil
}

func (m *mockWorkoutRepo) UpdateTemplate(ctx context.Context, template *models.WorkoutTemplate, exercises []models.Exercise) error {
	m.savedExercises = exercises
	m.template = &models.WorkoutTemplateDetail{WorkoutTemplate: *template, Exercises: exercises}
	return nil
}

func (m *mockWorkoutRepo) DeleteTemplate(ctx context.Context, id string) error {
	m.deletedTemplate = id
	return nil
}

func (m *mockWorkoutRepo) CreateAssignment(ctx context.Context, assignment *models.WorkoutAssignment) error {
	assignment.ID = "asg-1"
	m.assignment = assignment
	return nil
}

func (m *mockWorkoutRepo) ListAssignmentsByMember(ctx context.Context, memberID string) ([]models.WorkoutAssignmentDetail, error) {
	return m.assignments, nil
}

func (m *mockWorkoutRepo) DeleteAssignment(ctx context.Context, id string) (bool, error) {
	return m.unassignOK, nil
}

func workoutTemplateRequest() WorkoutTemplateRequest {
	return WorkoutTemplateRequest{
		Name: "Push Day",
		Exercises: []ExerciseInput{
			{Name: "Bench Press", Sets: 4, Reps: 8, Load: "60kg"},
			{Name: "Overhead Press", Sets: 3, Reps: 10},
		},
	}
}

func TestWorkoutServiceCreateTemplate(t *testing.T) {
	repo := &mockWorkoutRepo{}
	svc := NewWorkoutService(repo, &mockMemberReader{}, nil, zap.NewNop())

	actor := &models.JWTClaims{UserID: "usr-1", Role: models.RoleInstructor}
	detail, err := svc.CreateTemplate(context.Background(), workoutTemplateRequest(), actor)
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", detail.ID)
	assert.Equal(t, "usr-1", repo.createdTemplate.CreatedBy)
	require.Len(t, repo.savedExercises, 2)
	assert.Equal(t, "Bench Press", repo.savedExercises[0].Name)
}

func TestWorkoutServiceCreateTemplateValidation(t *testing.T) {
	svc := NewWorkoutService(&mockWorkoutRepo{}, &mockMemberReader{}, nil, zap.NewNop())

	req := workoutTemplateRequest()
	req.Exercises = nil
	_, err := svc.CreateTemplate(context.Background(), req, nil)
	assertCode(t, err, appErrors.ErrValidation.Code)

	req = workoutTemplateRequest()
	req.Exercises[0].Sets = 0
	_, err = svc.CreateTemplate(context.Background(), req, nil)
	assertCode(t, err, appErrors.ErrValidation.Code)
}

func TestWorkoutServiceListTemplatesScopesInstructor(t *testing.T) {
	repo := &mockWorkoutRepo{}
	svc := NewWorkoutService(repo, &mockMemberReader{}, nil, zap.NewNop())

	_, err := svc.ListTemplates(context.Background(), &models.JWTClaims{UserID: "usr-1", Role: models.RoleInstructor})
	require.NoError(t, err)
	assert.Equal(t, "usr-1", repo.lastCreatedBy)

	_, err = svc.ListTemplates(context.Background(), &models.JWTClaims{UserID: "usr-2", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Empty(t, repo.lastCreatedBy)
}

func TestWorkoutServiceUpdateTemplateOwnership(t *testing.T) {
	repo := &mockWorkoutRepo{template: &models.WorkoutTemplateDetail{
		WorkoutTemplate: models.WorkoutTemplate{ID: "tpl-1", Name: "Push Day", CreatedBy: "usr-1"},
	}}
	svc := NewWorkoutService(repo, &mockMemberReader{}, nil, zap.NewNop())

	actor := &models.JWTClaims{UserID: "usr-2", Role: models.RoleInstructor}
	_, err := svc.UpdateTemplate(context.Background(), "tpl-1", workoutTemplateRequest(), actor)
	assertCode(t, err, appErrors.ErrForbidden.Code)

	actor.UserID = "usr-1"
	detail, err := svc.UpdateTemplate(context.Background(), "tpl-1", workoutTemplateRequest(), actor)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", detail.CreatedBy)
}

func TestWorkoutServiceDeleteTemplateOwnership(t *testing.T) {
	repo := &mockWorkoutRepo{template: &models.WorkoutTemplateDetail{
		WorkoutTemplate: models.WorkoutTemplate{ID: "tpl-1", CreatedBy: "usr-1"},
	}}
	svc := NewWorkoutService(repo, &mockMemberReader{}, nil, zap.NewNop())

	actor := &models.JWTClaims{UserID: "usr-2", Role: models.RoleInstructor}
	err := svc.DeleteTemplate(context.Background(), "tpl-1", actor)
	assertCode(t, err, appErrors.ErrForbidden.Code)

	err = svc.DeleteTemplate(context.Background(), "tpl-1", &models.JWTClaims{UserID: "usr-3", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", repo.deletedTemplate)
}

func TestWorkoutServiceAssign(t *testing.T) {
	repo := &mockWorkoutRepo{template: &models.WorkoutTemplateDetail{
		WorkoutTemplate: models.WorkoutTemplate{ID: "tpl-1"},
	}}
	members := &mockMemberReader{member: &models.Member{ID: "mem-1", Active: true}}
	svc := NewWorkoutService(repo, members, nil, zap.NewNop())

	actor := &models.JWTClaims{UserID: "usr-1", Role: models.RoleInstructor}
	assignment, err := svc.Assign(context.Background(), AssignWorkoutRequest{TemplateID: "tpl-1", MemberID: "mem-1"}, actor)
	require.NoError(t, err)
	assert.Equal(t, "asg-1", assignment.ID)
	assert.Equal(t, "usr-1", assignment.AssignedBy)
}

func TestWorkoutServiceAssignInactiveMember(t *testing.T) {
	repo := &mockWorkoutRepo{template: &models.WorkoutTemplateDetail{
		WorkoutTemplate: models.WorkoutTemplate{ID: "tpl-1"},
	}}
	members := &mockMemberReader{member: &models.Member{ID: "mem-1", Active: false}}
	svc := NewWorkoutService(repo, members, nil, zap.NewNop())

	_, err := svc.Assign(context.Background(), AssignWorkoutRequest{TemplateID: "tpl-1", MemberID: "mem-1"}, nil)
	assertCode(t, err, appErrors.ErrPreconditionFailed.Code)
}

func TestWorkoutServiceAssignTemplateNotFound(t *testing.T) {
	repo := &mockWorkoutRepo{findErr: sql.ErrNoRows}
	svc := NewWorkoutService(repo, &mockMemberReader{}, nil, zap.NewNop())

	_, err := svc.Assign(context.Background(), AssignWorkoutRequest{TemplateID: "missing", MemberID: "mem-1"}, nil)
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func TestWorkoutServiceListMemberAssignmentsStudentSelfOnly(t *testing.T) {
	repo := &mockWorkoutRepo{}
	svc := NewWorkoutService(repo, &mockMemberReader{}, nil, zap.NewNop())

	actor := &models.JWTClaims{Role: models.RoleStudent, MemberID: "mem-2"}
	_, err := svc.ListMemberAssignments(context.Background(), "mem-1", actor)
	assertCode(t, err, appErrors.ErrForbidden.Code)

	actor.MemberID = "mem-1"
	_, err = svc.ListMemberAssignments(context.Background(), "mem-1", actor)
	require.NoError(t, err)
}

func TestWorkoutServiceUnassign(t *testing.T) {
	repo := &mockWorkoutRepo{unassignOK: true}
	svc := NewWorkoutService(repo, &mockMemberReader{}, nil, zap.NewNop())
	require.NoError(t, svc.Unassign(context.Background(), "asg-1"))

	repo.unassignOK = false
	err := svc.Unassign(context.Background(), "asg-1")
	assertCode(t, err, appErrors.ErrNotFound.Code)
}
