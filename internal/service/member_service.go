package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fitdesk/gym-api/internal/models"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
)

type memberRepository interface {
	List(ctx context.Context, filter models.MemberFilter) ([]models.Member, int, error)
	FindByID(ctx context.Context, id string) (*models.Member, error)
	ExistsByDocument(ctx context.Context, document string, excludeID string) (bool, error)
	Create(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
	Deactivate(ctx context.Context, id string) error
}

// CreateMemberRequest describes the payload to register a member.
type CreateMemberRequest struct {
	UserID     *string `json:"user_id"`
	FullName   string  `json:"full_name" validate:"required,min=2"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      string  `json:"phone"`
	Document   string  `json:"document" validate:"required"`
	PlanType   string  `json:"plan_type" validate:"required"`
	PlanPrice  string  `json:"plan_price" validate:"required"`
	PaymentDay int     `json:"payment_day" validate:"required,min=1,max=31"`
}

// UpdateMemberRequest describes the payload to update a member profile.
type UpdateMemberRequest struct {
	FullName   string `json:"full_name" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone"`
	Document   string `json:"document" validate:"required"`
	PlanType   string `json:"plan_type" validate:"required"`
	PlanPrice  string `json:"plan_price" validate:"required"`
	PaymentDay int    `json:"payment_day" validate:"required,min=1,max=31"`
	Active     *bool  `json:"active"`
}

// MemberService manages member profiles. Billing state transitions live in
// FinanceService; this service only stores the anchor (payment day) and plan.
type MemberService struct {
	repo      memberRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMemberService constructs a MemberService.
func NewMemberService(repo memberRepository, validate *validator.Validate, logger *zap.Logger) *MemberService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{repo: repo, validator: validate, logger: logger}
}

// List returns members with pagination metadata.
func (s *MemberService) List(ctx context.Context, filter models.MemberFilter) ([]models.Member, *models.Pagination, error) {
	members, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return members, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a member by ID.
func (s *MemberService) Get(ctx context.Context, id string) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	return member, nil
}

// Create registers a new member. The document must be unique and the payment
// day anchor must be a real day-of-month.
func (s *MemberService) Create(ctx context.Context, req CreateMemberRequest) (*models.Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}

	price, err := decimal.NewFromString(req.PlanPrice)
	if err != nil || price.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "plan_price must be a non-negative decimal")
	}

	exists, err := s.repo.ExistsByDocument(ctx, req.Document, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate document")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "document already registered")
	}

	member := &models.Member{
		UserID:     req.UserID,
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		Document:   req.Document,
		PlanType:   req.PlanType,
		PlanPrice:  price,
		PaymentDay: req.PaymentDay,
		Active:     true,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create member")
	}

	s.logger.Info("member created", zap.String("member_id", member.ID), zap.Int("payment_day", member.PaymentDay))
	return member, nil
}

// Update modifies a member profile. Changing the payment day re-anchors the
// billing cycle from the next evaluation onward; paid-until is untouched.
func (s *MemberService) Update(ctx context.Context, id string, req UpdateMemberRequest) (*models.Member, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}

	price, err := decimal.NewFromString(req.PlanPrice)
	if err != nil || price.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "plan_price must be a non-negative decimal")
	}

	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	exists, err := s.repo.ExistsByDocument(ctx, req.Document, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate document")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "document already registered")
	}

	member.FullName = req.FullName
	member.Email = req.Email
	member.Phone = req.Phone
	member.Document = req.Document
	member.PlanType = req.PlanType
	member.PlanPrice = price
	member.PaymentDay = req.PaymentDay
	if req.Active != nil {
		member.Active = *req.Active
	}

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update member")
	}
	return member, nil
}

// Deactivate marks a member inactive without deleting their history.
func (s *MemberService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate member")
	}
	s.logger.Info("member deactivated", zap.String("member_id", id))
	return nil
}
