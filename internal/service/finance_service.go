package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fitdesk/gym-api/internal/billing"
	"github.com/fitdesk/gym-api/internal/models"
	appErrors "github.com/fitdesk/gym-api/pkg/errors"
	"github.com/fitdesk/gym-api/pkg/export"
)

type financeMemberRepository interface {
	ListBilling(ctx context.Context, search string) ([]models.Member, error)
	FindByID(ctx context.Context, id string) (*models.Member, error)
	RegisterPayment(ctx context.Context, payment *models.Payment, paidUntil time.Time) error
	ListPayments(ctx context.Context, memberID string) ([]models.Payment, error)
}

const financeSummaryCacheKey = "finance:summary"

// RegisterPaymentRequest is the payload for recording a membership payment.
// An omitted months field registers a single cycle.
type RegisterPaymentRequest struct {
	Months int `json:"months" validate:"omitempty,min=1"`
}

// FinanceConfig tunes finance behaviour.
type FinanceConfig struct {
	SummaryCacheTTL  time.Duration
	MaxPaymentMonths int
}

// FinanceService derives billing standing for members, records payments and
// renders finance exports. The clock is injected so the due-date math can be
// pinned in tests.
type FinanceService struct {
	members   financeMemberRepository
	cache     *CacheService
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
	config    FinanceConfig
	now       func() time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewFinanceService constructs a FinanceService.
func NewFinanceService(members financeMemberRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, config FinanceConfig) *FinanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxPaymentMonths <= 0 {
		config.MaxPaymentMonths = 24
	}
	if config.SummaryCacheTTL <= 0 {
		config.SummaryCacheTTL = 5 * time.Minute
	}
	return &FinanceService{
		members:   members,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *FinanceService) WithClock(now func() time.Time) *FinanceService {
	if now != nil {
		s.now = now
	}
	return s
}

// List returns the billing view of every active member, optionally filtered
// by a search term over name, email and document.
func (s *FinanceService) List(ctx context.Context, search string) ([]models.MemberFinance, error) {
	members, err := s.members.ListBilling(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}

	today := billing.DateOf(s.now())
	rows := make([]models.MemberFinance, 0, len(members))
	for i := range members {
		rows = append(rows, s.buildFinanceRow(&members[i], today))
	}
	return rows, nil
}

// Get returns the billing view of a single member.
func (s *FinanceService) Get(ctx context.Context, memberID string) (*models.MemberFinance, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	row := s.buildFinanceRow(member, billing.DateOf(s.now()))
	return &row, nil
}

// Summary aggregates billing standing across all active members. The result
// is served from cache when available and rebuilt on miss.
func (s *FinanceService) Summary(ctx context.Context) (*models.FinanceSummary, error) {
	var cached models.FinanceSummary
	if hit, _ := s.cache.Get(ctx, financeSummaryCacheKey, &cached); hit {
		return &cached, nil
	}

	members, err := s.members.ListBilling(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}

	today := billing.DateOf(s.now())
	summary := models.FinanceSummary{Total: len(members)}
	for i := range members {
		assessment := billing.Evaluate(today, members[i].PaymentDay, paidUntilDate(&members[i]))
		if assessment.Situation == billing.SituationCurrent {
			summary.Current++
		} else {
			summary.Delinquent++
		}
	}
	if summary.Total > 0 {
		summary.CurrentPercent = int(math.Round(float64(summary.Current) / float64(summary.Total) * 100))
		summary.DelinquentPercent = int(math.Round(float64(summary.Delinquent) / float64(summary.Total) * 100))
	}

	if err := s.cache.Set(ctx, financeSummaryCacheKey, summary, s.config.SummaryCacheTTL); err != nil {
		s.logger.Warn("failed to cache finance summary", zap.Error(err))
	}
	return &summary, nil
}

// RegisterPayment records a payment of whole months and advances the member's
// coverage. Delinquent members catch up first: one month lands exactly on the
// owed due date. Extra months extend cycle by cycle from there.
func (s *FinanceService) RegisterPayment(ctx context.Context, memberID string, req RegisterPaymentRequest) (*models.MemberFinance, error) {
	if req.Months == 0 {
		req.Months = 1
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if req.Months > s.config.MaxPaymentMonths {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("months must be between 1 and %d", s.config.MaxPaymentMonths))
	}

	member, err := s.members.FindByID(ctx, memberID)
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
	today := billing.DateOf(now)
	paidUntil := billing.NextPaidUntil(today, member.PaymentDay, paidUntilDate(member), req.Months)

	payment := &models.Payment{
		MemberID: member.ID,
		Months:   req.Months,
		Amount:   member.PlanPrice.Mul(decimal.NewFromInt(int64(req.Months))),
		PaidAt:   now,
	}
	if err := s.members.RegisterPayment(ctx, payment, paidUntil.Time()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register payment")
	}

	if err := s.cache.Invalidate(ctx, financeSummaryCacheKey); err != nil {
		s.logger.Warn("failed to invalidate finance summary cache", zap.Error(err))
	}

	s.logger.Info("payment registered",
		zap.String("member_id", member.ID),
		zap.Int("months", req.Months),
		zap.String("paid_until", paidUntil.String()),
	)

	paidUntilTime := paidUntil.Time()
	member.PaidUntil = &paidUntilTime
	member.LastPaymentAt = &payment.PaidAt
	row := s.buildFinanceRow(member, today)
	return &row, nil
}

// ListPayments returns the payment history of a member, newest first.
func (s *FinanceService) ListPayments(ctx context.Context, memberID string) ([]models.Payment, error) {
	if _, err := s.members.FindByID(ctx, memberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	payments, err := s.members.ListPayments(ctx, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// ExportCSV renders the finance roster as CSV.
func (s *FinanceService) ExportCSV(ctx context.Context, search string) ([]byte, string, error) {
	dataset, err := s.buildDataset(ctx, search)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, s.exportFilename("csv"), nil
}

// ExportPDF renders the finance roster as PDF.
func (s *FinanceService) ExportPDF(ctx context.Context, search string) ([]byte, string, error) {
	dataset, err := s.buildDataset(ctx, search)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.pdf.Render(dataset, "Finance Report")
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, s.exportFilename("pdf"), nil
}

func (s *FinanceService) exportFilename(format string) string {
	return fmt.Sprintf("finance_%s.%s", s.now().Format("20060102_150405"), format)
}

func (s *FinanceService) buildDataset(ctx context.Context, search string) (export.Dataset, error) {
	rows, err := s.List(ctx, search)
	if err != nil {
		return export.Dataset{}, err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Name":        row.Name,
			"Document":    row.Document,
			"Plan":        row.PlanType,
			"Payment Day": fmt.Sprintf("%d", row.PaymentDay),
			"Paid Until":  derefString(row.PaidUntil),
			"Due Date":    row.DueDate,
			"Situation":   row.Situation,
		})
	}
	return export.Dataset{
		Headers: []string{"Name", "Document", "Plan", "Payment Day", "Paid Until", "Due Date", "Situation"},
		Rows:    dataRows,
	}, nil
}

func (s *FinanceService) buildFinanceRow(member *models.Member, today billing.Date) models.MemberFinance {
	assessment := billing.Evaluate(today, member.PaymentDay, paidUntilDate(member))
	row := models.MemberFinance{
		ID:          member.ID,
		Name:        member.FullName,
		Email:       member.Email,
		Phone:       member.Phone,
		Document:    member.Document,
		PlanType:    member.PlanType,
		PaymentDay:  member.PaymentDay,
		DueDate:     assessment.DueDate.String(),
		NextDueDate: assessment.NextDueDate.String(),
		Situation:   string(assessment.Situation),
	}
	if member.PaidUntil != nil {
		v := billing.DateOf(*member.PaidUntil).String()
		row.PaidUntil = &v
	}
	if member.LastPaymentAt != nil {
		v := billing.DateOf(*member.LastPaymentAt).String()
		row.LastPaymentAt = &v
	}
	return row
}

func paidUntilDate(member *models.Member) *billing.Date {
	if member.PaidUntil == nil {
		return nil
	}
	d := billing.DateOf(*member.PaidUntil)
	return &d
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
