package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fitdesk/gym-api/internal/models"
)

// MemberRepository manages persistence for member profiles and their
// payment history.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository constructs a MemberRepository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `m.id, m.user_id, m.full_name, m.email, m.phone, m.document, m.plan_type, m.plan_price,
        m.payment_day, m.paid_until, m.last_payment_at, m.active, m.created_at, m.updated_at`

// List returns members matching the provided filters.
func (r *MemberRepository) List(ctx context.Context, filter models.MemberFilter) ([]models.Member, int, error) {
	base := "FROM members m"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("m.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(m.full_name) LIKE $%d OR LOWER(m.email) LIKE $%d OR m.document LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"full_name":  "m.full_name",
		"created_at": "m.created_at",
		"paid_until": "m.paid_until",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "m.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`, memberColumns, base, column, order, size, offset)

	var members []models.Member
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}
	return members, total, nil
}

// ListBilling returns every active member, optionally narrowed by a search
// term over name, email and document, ordered by name. Used by the finance
// read paths where the full roster is evaluated.
func (r *MemberRepository) ListBilling(ctx context.Context, search string) ([]models.Member, error) {
	query := fmt.Sprintf("SELECT %s FROM members m WHERE m.active = true", memberColumns)
	var args []interface{}
	if search != "" {
		query += " AND (LOWER(m.full_name) LIKE $1 OR LOWER(m.email) LIKE $1 OR m.document LIKE $1)"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " ORDER BY m.full_name ASC"

	var members []models.Member
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, fmt.Errorf("list billing members: %w", err)
	}
	return members, nil
}

// FindByID fetches a member by ID.
func (r *MemberRepository) FindByID(ctx context.Context, id string) (*models.Member, error) {
	query := fmt.Sprintf("SELECT %s FROM members m WHERE m.id = $1", memberColumns)
	var member models.Member
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByUserID fetches the member profile linked to a user account.
func (r *MemberRepository) FindByUserID(ctx context.Context, userID string) (*models.Member, error) {
	query := fmt.Sprintf("SELECT %s FROM members m WHERE m.user_id = $1", memberColumns)
	var member models.Member
	if err := r.db.GetContext(ctx, &member, query, userID); err != nil {
		return nil, err
	}
	return &member, nil
}

// ExistsByDocument checks if a member with given document exists optionally
// excluding an ID.
func (r *MemberRepository) ExistsByDocument(ctx context.Context, document string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM members WHERE document = $1"
	args := []interface{}{document}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check document: %w", err)
	}
	return true, nil
}

// Create inserts a new member record.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now
	const query = `INSERT INTO members (id, user_id, full_name, email, phone, document, plan_type, plan_price, payment_day, paid_until, last_payment_at, active, created_at, updated_at)
        VALUES (:id, :user_id, :full_name, :email, :phone, :document, :plan_type, :plan_price, :payment_day, :paid_until, :last_payment_at, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// Update modifies an existing member profile.
func (r *MemberRepository) Update(ctx context.Context, member *models.Member) error {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE members SET full_name = :full_name, email = :email, phone = :phone, document = :document,
        plan_type = :plan_type, plan_price = :plan_price, payment_day = :payment_day, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return nil
}

// Deactivate marks a member as inactive.
func (r *MemberRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE members SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}
	return nil
}

// RegisterPayment advances the member's coverage and records the payment in
// one transaction. paid_until only ever moves forward.
func (r *MemberRepository) RegisterPayment(ctx context.Context, payment *models.Payment, paidUntil time.Time) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const updateQuery = `UPDATE members SET paid_until = $2, last_payment_at = $3, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateQuery, payment.MemberID, paidUntil, payment.PaidAt); err != nil {
		return fmt.Errorf("update paid until: %w", err)
	}

	const insertQuery = `INSERT INTO payments (id, member_id, months, amount, paid_at)
        VALUES (:id, :member_id, :months, :amount, :paid_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment tx: %w", err)
	}
	return nil
}

// ListPayments returns the payment history for a member, newest first.
func (r *MemberRepository) ListPayments(ctx context.Context, memberID string) ([]models.Payment, error) {
	const query = `SELECT id, member_id, months, amount, paid_at FROM payments WHERE member_id = $1 ORDER BY paid_at DESC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, memberID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
