package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitdesk/gym-api/internal/models"
	"github.com/fitdesk/gym-api/internal/repository"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	Exists(ctx context.Context, memberID, classID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment, capacity int) error
	Delete(ctx context.Context, memberID, classID string) (bool, error)
	ListByMember(ctx context.Context, memberID string) ([]models.EnrollmentDetail, error)
}

type enrollmentMemberReader interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
}

type enrollmentClassReader interface {
	FindByID(ctx context.Context, id string) (*models.GymClass, error)
	CountEnrollments(ctx context.Context, classID string) (int, error)
}

// EnrollRequest describes the payload to enroll a member in a class.
type EnrollRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	ClassID  string `json:"class_id" validate:"required"`
}

// EnrollmentService enforces the capacity and temporal guards around class
// registration. The duplicate and capacity checks here are advisory fast
// paths; the storage layer's conditional insert is the guarantee that holds
// under concurrent requests.
type EnrollmentService struct {
	repo      enrollmentRepository
	members   enrollmentMemberReader
	classes   enrollmentClassReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, members enrollmentMemberReader, classes enrollmentClassReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:      repo,
		members:   members,
		classes:   classes,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *EnrollmentService) WithClock(now func() time.Time) *EnrollmentService {
	if now != nil {
		s.now = now
	}
	return s
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListByMember returns a member's enrollments ordered by class start time.
func (s *EnrollmentService) ListByMember(ctx context.Context, memberID string) ([]models.EnrollmentDetail, error) {
	if _, err := s.members.FindByID(ctx, memberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	enrollments, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Enroll registers a member in a class. The member must be active, the class
// must not have started, the member must not already hold a slot, and the
// class must have a free slot at insert time.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest, actor *models.JWTClaims) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	// Students can only enroll themselves.
	if actor != nil && actor.Role == models.RoleStudent && actor.MemberID != req.MemberID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only enroll themselves")
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

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if !class.StartsAt.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class has already started")
	}

	// Advisory pre-checks for friendlier errors on the common path.
	exists, err := s.repo.Exists(ctx, req.MemberID, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "member already enrolled in class")
	}
	enrolled, err := s.classes.CountEnrollments(ctx, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	if enrolled >= class.Capacity {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class is full")
	}

	enrollment := &models.Enrollment{MemberID: req.MemberID, ClassID: req.ClassID, CreatedAt: s.now()}
	if err := s.repo.Create(ctx, enrollment, class.Capacity); err != nil {
		switch {
		case errors.Is(err, repository.ErrClassFull):
			return nil, appErrors.Clone(appErrors.ErrConflict, "class is full")
		case errors.Is(err, repository.ErrDuplicateEnrollment):
			return nil, appErrors.Clone(appErrors.ErrConflict, "member already enrolled in class")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
		}
	}

	s.logger.Info("member enrolled",
		zap.String("member_id", req.MemberID),
		zap.String("class_id", req.ClassID),
	)
	return enrollment, nil
}

// Cancel removes a member's enrollment. Cancellation is closed once the class
// has started; a missing enrollment is reported as not found.
func (s *EnrollmentService) Cancel(ctx context.Context, memberID, classID string, actor *models.JWTClaims) error {
	if actor != nil && actor.Role == models.RoleStudent && actor.MemberID != memberID {
		return appErrors.Clone(appErrors.ErrForbidden, "students can only cancel their own enrollments")
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if !class.StartsAt.After(s.now()) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "class has already started")
	}

	deleted, err := s.repo.Delete(ctx, memberID, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}

	s.logger.Info("enrollment cancelled",
		zap.String("member_id", memberID),
		zap.String("class_id", classID),
	)
	return nil
}
