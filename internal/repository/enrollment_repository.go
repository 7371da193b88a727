package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fitdesk/gym-api/internal/models"
)

// Enrollment insertion outcomes surfaced to the service layer. The unique
// index on (member_id, class_id) and the conditional insert make the storage
// layer the source of truth for both rules under concurrent requests.
var (
	ErrDuplicateEnrollment = errors.New("member already enrolled in class")
	ErrClassFull           = errors.New("class is at capacity")
)

const pqUniqueViolation = "23505"

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN members m ON m.id = e.member_id
LEFT JOIN classes c ON c.id = e.class_id`
	var conditions []string
	var args []interface{}

	if filter.MemberID != "" {
		conditions = append(conditions, fmt.Sprintf("e.member_id = $%d", len(args)+1))
		args = append(args, filter.MemberID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":  "e.created_at",
		"member_name": "m.full_name",
		"class_name":  "c.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.created_at"
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

	query := fmt.Sprintf(`SELECT e.id, e.member_id, e.class_id, e.created_at,
        m.full_name AS member_name, c.name AS class_name, c.starts_at AS class_starts_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// Exists checks whether the member already holds an enrollment for the class.
func (r *EnrollmentRepository) Exists(ctx context.Context, memberID, classID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE member_id = $1 AND class_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, memberID, classID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create inserts an enrollment only while the class has a free slot. The
// capacity check and the insert run as one statement, so two concurrent
// requests cannot both take the last slot. Returns ErrClassFull when no row
// was inserted and ErrDuplicateEnrollment on a unique-index violation.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment, capacity int) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO enrollments (id, member_id, class_id, created_at)
        SELECT $1, $2, $3, $4
        WHERE (SELECT COUNT(*) FROM enrollments WHERE class_id = $3) < $5`
	result, err := r.db.ExecContext(ctx, query, enrollment.ID, enrollment.MemberID, enrollment.ClassID, enrollment.CreatedAt, capacity)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicateEnrollment
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create enrollment rows: %w", err)
	}
	if affected == 0 {
		return ErrClassFull
	}
	return nil
}

// Delete removes the member's enrollment for the class, reporting whether a
// row existed.
func (r *EnrollmentRepository) Delete(ctx context.Context, memberID, classID string) (bool, error) {
	const query = `DELETE FROM enrollments WHERE member_id = $1 AND class_id = $2`
	result, err := r.db.ExecContext(ctx, query, memberID, classID)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete enrollment rows: %w", err)
	}
	return affected > 0, nil
}

// ListByMember returns all enrollments held by a member.
func (r *EnrollmentRepository) ListByMember(ctx context.Context, memberID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.member_id, e.class_id, e.created_at,
        m.full_name AS member_name, c.name AS class_name, c.starts_at AS class_starts_at
        FROM enrollments e
        LEFT JOIN members m ON m.id = e.member_id
        LEFT JOIN classes c ON c.id = e.class_id
        WHERE e.member_id = $1 ORDER BY c.starts_at ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, memberID); err != nil {
		return nil, fmt.Errorf("list member enrollments: %w", err)
	}
	return enrollments, nil
}
