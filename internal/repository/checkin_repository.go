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

// CheckInRepository handles persistence of member check-ins.
type CheckInRepository struct {
	db *sqlx.DB
}

// NewCheckInRepository constructs the repository.
func NewCheckInRepository(db *sqlx.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

// Create records a check-in.
func (r *CheckInRepository) Create(ctx context.Context, checkIn *models.CheckIn) error {
	if checkIn.ID == "" {
		checkIn.ID = uuid.NewString()
	}
	if checkIn.CheckedInAt.IsZero() {
		checkIn.CheckedInAt = time.Now().UTC()
	}
	const query = `INSERT INTO check_ins (id, member_id, checked_in_at)
        VALUES (:id, :member_id, :checked_in_at)`
	if _, err := r.db.NamedExecContext(ctx, query, checkIn); err != nil {
		return fmt.Errorf("create check-in: %w", err)
	}
	return nil
}

// ExistsForDay reports whether the member already checked in on the given
// calendar day.
func (r *CheckInRepository) ExistsForDay(ctx context.Context, memberID string, day time.Time) (bool, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	const query = `SELECT 1 FROM check_ins WHERE member_id = $1 AND checked_in_at >= $2 AND checked_in_at < $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, memberID, start, end); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check check-in: %w", err)
	}
	return true, nil
}

// List returns check-ins filtered by member and/or day, newest first.
func (r *CheckInRepository) List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckInDetail, int, error) {
	base := `FROM check_ins ci
LEFT JOIN members m ON m.id = ci.member_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.MemberID != "" {
		conditions = append(conditions, fmt.Sprintf("ci.member_id = $%d", len(args)+1))
		args = append(args, filter.MemberID)
	}
	if filter.Date != nil {
		start := time.Date(filter.Date.Year(), filter.Date.Month(), filter.Date.Day(), 0, 0, 0, 0, time.UTC)
		conditions = append(conditions, fmt.Sprintf("ci.checked_in_at >= $%d AND ci.checked_in_at < $%d", len(args)+1, len(args)+2))
		args = append(args, start, start.AddDate(0, 0, 1))
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT ci.id, ci.member_id, ci.checked_in_at,
        m.full_name AS member_name, m.document AS member_document
        %s ORDER BY ci.checked_in_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var checkIns []models.CheckInDetail
	if err := r.db.SelectContext(ctx, &checkIns, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list check-ins: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count check-ins: %w", err)
	}
	return checkIns, total, nil
}
