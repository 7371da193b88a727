package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitdesk/gym-api/internal/models"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
)

type workoutRepository interface {
	ListTemplates(ctx context.Context, createdBy string) ([]models.WorkoutTemplate, error)
	FindTemplateByID(ctx context.Context, id string) (*models.WorkoutTemplateDetail, error)
	CreateTemplate(ctx context.Context, template *models.WorkoutTemplate, exercises []models.Exercise) error
	UpdateTemplate(ctx context.Context, template *models.WorkoutTemplate, exercises []models.Exercise) error
	DeleteTemplate(ctx context.Context, id string) error
	CreateAssignment(ctx context.Context, assignment *models.WorkoutAssignment) error
	ListAssignmentsByMember(ctx context.Context, memberID string) ([]models.WorkoutAssignmentDetail, error)
	DeleteAssignment(ctx context.Context, id string) (bool, error)
}

type workoutMemberReader interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
}

// ExerciseInput is one ordered entry of a workout template payload.
type ExerciseInput struct {
	Name string `json:"name" validate:"required"`
	Sets int    `json:"sets" validate:"required,min=1"`
	Reps int    `json:"reps" validate:"required,min=1"`
	Load string `json:"load"`
}

// WorkoutTemplateRequest describes the payload to create or update a template.
type WorkoutTemplateRequest struct {
	Name      string          `json:"name" validate:"required,min=2"`
	Notes     string          `json:"notes"`
	Exercises []ExerciseInput `json:"exercises" validate:"required,min=1,dive"`
}

// AssignWorkoutRequest links a template to a member.
type AssignWorkoutRequest struct {
	TemplateID string `json:"template_id" validate:"required"`
	MemberID   string `json:"member_id" validate:"required"`
}

// WorkoutService manages training plans and their member assignments.
type WorkoutService struct {
	repo      workoutRepository
	members   workoutMemberReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkoutService constructs a WorkoutService.
func NewWorkoutService(repo workoutRepository, members workoutMemberReader, validate *validator.Validate, logger *zap.Logger) *WorkoutService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkoutService{repo: repo, members: members, validator: validate, logger: logger}
}

// ListTemplates returns templates, scoped to the caller when they are an
// instructor.
func (s *WorkoutService) ListTemplates(ctx context.Context, actor *models.JWTClaims) ([]models.WorkoutTemplate, error) {
	createdBy := ""
	if actor != nil && actor.Role == models.RoleInstructor {
		createdBy = actor.UserID
	}
	templates, err := s.repo.ListTemplates(ctx, createdBy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// GetTemplate returns a template with its exercises.
func (s *WorkoutService) GetTemplate(ctx context.Context, id string) (*models.WorkoutTemplateDetail, error) {
	detail, err := s.repo.FindTemplateByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return detail, nil
}

// CreateTemplate persists a new training plan owned by the caller.
func (s *WorkoutService) CreateTemplate(ctx context.Context, req WorkoutTemplateRequest, actor *models.JWTClaims) (*models.WorkoutTemplateDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}

	template := &models.WorkoutTemplate{Name: req.Name, Notes: req.Notes}
	if actor != nil {
		template.CreatedBy = actor.UserID
	}
	if err := s.repo.CreateTemplate(ctx, template, exercisesFromInput(req.Exercises)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}

	s.logger.Info("workout template created", zap.String("template_id", template.ID))
	return s.GetTemplate(ctx, template.ID)
}

// UpdateTemplate rewrites a training plan. Instructors may only touch their
// own templates.
func (s *WorkoutService) UpdateTemplate(ctx context.Context, id string, req WorkoutTemplateRequest, actor *models.JWTClaims) (*models.WorkoutTemplateDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}

	existing, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Role == models.RoleInstructor && existing.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "template belongs to another instructor")
	}

	template := &models.WorkoutTemplate{ID: id, Name: req.Name, Notes: req.Notes, CreatedBy: existing.CreatedBy}
	if err := s.repo.UpdateTemplate(ctx, template, exercisesFromInput(req.Exercises)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update template")
	}
	return s.GetTemplate(ctx, id)
}

// DeleteTemplate removes a training plan and its assignments.
func (s *WorkoutService) DeleteTemplate(ctx context.Context, id string, actor *models.JWTClaims) error {
	existing, err := s.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if actor != nil && actor.Role == models.RoleInstructor && existing.CreatedBy != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "template belongs to another instructor")
	}
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete template")
	}
	s.logger.Info("workout template deleted", zap.String("template_id", id))
	return nil
}

// Assign links a template to an active member.
func (s *WorkoutService) Assign(ctx context.Context, req AssignWorkoutRequest, actor *models.JWTClaims) (*models.WorkoutAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.GetTemplate(ctx, req.TemplateID); err != nil {
		return nil, err
	}

	member, err := s.members.FindByID(ctx, req.MemberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	if !member.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "member is inactive")
	}

	assignment := &models.WorkoutAssignment{TemplateID: req.TemplateID, MemberID: req.MemberID}
	if actor != nil {
		assignment.AssignedBy = actor.UserID
	}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign workout")
	}

	s.logger.Info("workout assigned",
		zap.String("template_id", req.TemplateID),
		zap.String("member_id", req.MemberID),
	)
	return assignment, nil
}

// ListMemberAssignments returns a member's assigned workouts. Students can
// only read their own.
func (s *WorkoutService) ListMemberAssignments(ctx context.Context, memberID string, actor *models.JWTClaims) ([]models.WorkoutAssignmentDetail, error) {
	if actor != nil && actor.Role == models.RoleStudent && actor.MemberID != memberID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only view their own workouts")
	}
	assignments, err := s.repo.ListAssignmentsByMember(ctx, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Unassign removes a workout assignment.
func (s *WorkoutService) Unassign(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteAssignment(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove assignment")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return nil
}

func exercisesFromInput(inputs []ExerciseInput) []models.Exercise {
	exercises := make([]models.Exercise, 0, len(inputs))
	for _, in := range inputs {
		exercises = append(exercises, models.Exercise{
			Name: in.Name,
			Sets: in.Sets,
			Reps: in.Reps,
			Load: in.Load,
		})
	}
	return exercises
}
