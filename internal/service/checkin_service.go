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

type checkInRepository interface {
	Create(ctx context.Context, checkIn *models.CheckIn) error
	ExistsForDay(ctx context.Context, memberID string, day time.Time) (bool, error)
	List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckInDetail, int, error)
}

type checkInMemberReader interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
}

// CheckInRequest describes the payload to record a gym entry.
type CheckInRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

// CheckInService records member gym entries, at most one per calendar day.
type CheckInService struct {
	repo      checkInRepository
	members   checkInMemberReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCheckInService constructs a CheckInService.
func NewCheckInService(repo checkInRepository, members checkInMemberReader, validate *validator.Validate, logger *zap.Logger) *CheckInService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckInService{
		repo:      repo,
		members:   members,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *CheckInService) WithClock(now func() time.Time) *CheckInService {
	if now != nil {
		s.now = now
	}
	return s
}

// CheckIn records a gym entry for an active member.
func (s *CheckInService) CheckIn(ctx context.Context, req CheckInRequest) (*models.CheckIn, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in payload")
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

	now := s.now()
	exists, err := s.repo.ExistsForDay(ctx, req.MemberID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate check-in")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "member already checked in today")
	}

	checkIn := &models.CheckIn{MemberID: req.MemberID, CheckedInAt: now}
	if err := s.repo.Create(ctx, checkIn); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create check-in")
	}

	s.logger.Info("member checked in", zap.String("member_id", req.MemberID))
	return checkIn, nil
}

// List returns check-ins with pagination metadata.
func (s *CheckInService) List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckInDetail, *models.Pagination, error) {
	checkIns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list check-ins")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return checkIns, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
