package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fitdesk/gym-api/internal/models"
)

// ClassRepository handles persistence of class sessions.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns class sessions with instructor names and enrollment counts.
func (r *ClassRepository) List(ctx context.Context, filter models.GymClassFilter) ([]models.GymClassDetail, int, error) {
	base := `FROM classes c
LEFT JOIN users u ON u.id = c.instructor_id`
	var conditions []string
	var args []interface{}

	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("c.instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(c.name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("c.starts_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("c.starts_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"starts_at": "c.starts_at",
		"name":      "c.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.starts_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT c.id, c.name, c.description, c.starts_at, c.capacity, c.instructor_id, c.created_at, c.updated_at,
        COALESCE(u.full_name, '') AS instructor_name,
        (SELECT COUNT(*) FROM enrollments e WHERE e.class_id = c.id) AS enrolled_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var classes []models.GymClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class session by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.GymClass, error) {
	const query = `SELECT id, name, description, starts_at, capacity, instructor_id, created_at, updated_at FROM classes WHERE id = $1`
	var class models.GymClass
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindDetailByID returns a class session with contextual info.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.GymClassDetail, error) {
	const query = `SELECT c.id, c.name, c.description, c.starts_at, c.capacity, c.instructor_id, c.created_at, c.updated_at,
        COALESCE(u.full_name, '') AS instructor_name,
        (SELECT COUNT(*) FROM enrollments e WHERE e.class_id = c.id) AS enrolled_count
        FROM classes c
        LEFT JOIN users u ON u.id = c.instructor_id
        WHERE c.id = $1`
	var detail models.GymClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CountEnrollments returns the current enrollment count for a class.
func (r *ClassRepository) CountEnrollments(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE class_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count class enrollments: %w", err)
	}
	return count, nil
}

// Create persists a new class session.
func (r *ClassRepository) Create(ctx context.Context, class *models.GymClass) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, name, description, starts_at, capacity, instructor_id, created_at, updated_at)
        VALUES (:id, :name, :description, :starts_at, :capacity, :instructor_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies an existing class session.
func (r *ClassRepository) Update(ctx context.Context, class *models.GymClass) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, description = :description, starts_at = :starts_at, capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class session and its enrollments.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete class tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE class_id = $1`, id); err != nil {
		return fmt.Errorf("delete class enrollments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete class tx: %w", err)
	}
	return nil
}
