package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitdesk/gym-api/internal/models"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.GymClassFilter) ([]models.GymClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.GymClass, error)
	FindDetailByID(ctx context.Context, id string) (*models.GymClassDetail, error)
	CountEnrollments(ctx context.Context, classID string) (int, error)
	Create(ctx context.Context, class *models.GymClass) error
	Update(ctx context.Context, class *models.GymClass) error
	Delete(ctx context.Context, id string) error
}

type instructorReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateClassRequest describes the payload to schedule a class session.
type CreateClassRequest struct {
	Name         string    `json:"name" validate:"required,min=2"`
	Description  string    `json:"description"`
	StartsAt     time.Time `json:"starts_at" validate:"required"`
	Capacity     int       `json:"capacity" validate:"required,min=1"`
	InstructorID string    `json:"instructor_id" validate:"required"`
}

// UpdateClassRequest describes the payload to modify a class session.
type UpdateClassRequest struct {
	Name        string    `json:"name" validate:"required,min=2"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	Capacity    int       `json:"capacity" validate:"required,min=1"`
}

// ClassService manages class sessions and their capacity rules.
type ClassService struct {
	repo        classRepository
	instructors instructorReader
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, instructors instructorReader, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		repo:        repo,
		instructors: instructors,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *ClassService) WithClock(now func() time.Time) *ClassService {
	if now != nil {
		s.now = now
	}
	return s
}

// List returns class sessions with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.GymClassFilter) ([]models.GymClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a class session with instructor and enrollment info.
func (s *ClassService) Get(ctx context.Context, id string) (*models.GymClassDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return detail, nil
}

// Create schedules a new class session. The instructor must be an active
// INSTRUCTOR account and the start time must be in the future.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.GymClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if !req.StartsAt.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "starts_at must be in the future")
	}

	instructor, err := s.instructors.FindByID(ctx, req.InstructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if instructor.Role != models.RoleInstructor || !instructor.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "user is not an active instructor")
	}

	class := &models.GymClass{
		Name:         req.Name,
		Description:  req.Description,
		StartsAt:     req.StartsAt.UTC(),
		Capacity:     req.Capacity,
		InstructorID: req.InstructorID,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	s.logger.Info("class created", zap.String("class_id", class.ID), zap.Int("capacity", class.Capacity))
	return s.Get(ctx, class.ID)
}

// Update modifies a class session. Capacity may never drop below the current
// enrollment count; instructors may only touch their own classes.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest, actor *models.JWTClaims) (*models.GymClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	if actor != nil && actor.Role == models.RoleInstructor && class.InstructorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another instructor")
	}

	enrolled, err := s.repo.CountEnrollments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	if req.Capacity < enrolled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "capacity cannot be below current enrollment count")
	}

	class.Name = req.Name
	class.Description = req.Description
	class.StartsAt = req.StartsAt.UTC()
	class.Capacity = req.Capacity

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return s.Get(ctx, id)
}

// Delete removes a class session along with its enrollments.
func (s *ClassService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if actor != nil && actor.Role == models.RoleInstructor && class.InstructorID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "class belongs to another instructor")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.logger.Info("class deleted", zap.String("class_id", id))
	return nil
}
