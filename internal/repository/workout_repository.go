package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fitdesk/gym-api/internal/models"
)

// WorkoutRepository handles persistence of workout templates, their
// exercises and member assignments.
type WorkoutRepository struct {
	db *sqlx.DB
}

// NewWorkoutRepository constructs the repository.
func NewWorkoutRepository(db *sqlx.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

// ListTemplates returns workout templates, optionally scoped to a creator.
func (r *WorkoutRepository) ListTemplates(ctx context.Context, createdBy string) ([]models.WorkoutTemplate, error) {
	query := `SELECT id, name, notes, created_by, created_at, updated_at FROM workout_templates`
	var args []interface{}
	if createdBy != "" {
		query += " WHERE created_by = $1"
		args = append(args, createdBy)
	}
	query += " ORDER BY created_at DESC"

	var templates []models.WorkoutTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("list workout templates: %w", err)
	}
	return templates, nil
}

// FindTemplateByID returns a template with its exercises in order.
func (r *WorkoutRepository) FindTemplateByID(ctx context.Context, id string) (*models.WorkoutTemplateDetail, error) {
	const templateQuery = `SELECT id, name, notes, created_by, created_at, updated_at FROM workout_templates WHERE id = $1`
	var template models.WorkoutTemplate
	if err := r.db.GetContext(ctx, &template, templateQuery, id); err != nil {
		return nil, err
	}

	const exerciseQuery = `SELECT id, template_id, name, sets, reps, load, position FROM exercises WHERE template_id = $1 ORDER BY position ASC`
	var exercises []models.Exercise
	if err := r.db.SelectContext(ctx, &exercises, exerciseQuery, id); err != nil {
		return nil, fmt.Errorf("list template exercises: %w", err)
	}

	return &models.WorkoutTemplateDetail{WorkoutTemplate: template, Exercises: exercises}, nil
}

// CreateTemplate persists a template and its exercises in one transaction.
func (r *WorkoutRepository) CreateTemplate(ctx context.Context, template *models.WorkoutTemplate, exercises []models.Exercise) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin template tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const templateQuery = `INSERT INTO workout_templates (id, name, notes, created_by, created_at, updated_at)
        VALUES (:id, :name, :notes, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, templateQuery, template); err != nil {
		return fmt.Errorf("create workout template: %w", err)
	}

	if err := insertExercises(ctx, tx, template.ID, exercises); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit template tx: %w", err)
	}
	return nil
}

// UpdateTemplate rewrites the template row and replaces its exercise set.
func (r *WorkoutRepository) UpdateTemplate(ctx context.Context, template *models.WorkoutTemplate, exercises []models.Exercise) error {
	template.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin template tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const templateQuery = `UPDATE workout_templates SET name = :name, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, templateQuery, template); err != nil {
		return fmt.Errorf("update workout template: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM exercises WHERE template_id = $1`, template.ID); err != nil {
		return fmt.Errorf("clear template exercises: %w", err)
	}

	if err := insertExercises(ctx, tx, template.ID, exercises); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit template tx: %w", err)
	}
	return nil
}

// DeleteTemplate removes a template, its exercises and its assignments.
func (r *WorkoutRepository) DeleteTemplate(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete template tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM workout_assignments WHERE template_id = $1`, id); err != nil {
		return fmt.Errorf("delete template assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM exercises WHERE template_id = $1`, id); err != nil {
		return fmt.Errorf("delete template exercises: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM workout_templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete workout template: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete template tx: %w", err)
	}
	return nil
}

// CreateAssignment links a template to a member.
func (r *WorkoutRepository) CreateAssignment(ctx context.Context, assignment *models.WorkoutAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	const query = `INSERT INTO workout_assignments (id, template_id, member_id, assigned_by, assigned_at)
        VALUES (:id, :template_id, :member_id, :assigned_by, :assigned_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create workout assignment: %w", err)
	}
	return nil
}

// ListAssignmentsByMember returns assignments held by a member, newest first.
func (r *WorkoutRepository) ListAssignmentsByMember(ctx context.Context, memberID string) ([]models.WorkoutAssignmentDetail, error) {
	const query = `SELECT wa.id, wa.template_id, wa.member_id, wa.assigned_by, wa.assigned_at,
        wt.name AS template_name, m.full_name AS member_name
        FROM workout_assignments wa
        LEFT JOIN workout_templates wt ON wt.id = wa.template_id
        LEFT JOIN members m ON m.id = wa.member_id
        WHERE wa.member_id = $1 ORDER BY wa.assigned_at DESC`
	var assignments []models.WorkoutAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, memberID); err != nil {
		return nil, fmt.Errorf("list member assignments: %w", err)
	}
	return assignments, nil
}

// DeleteAssignment removes an assignment, reporting whether it existed.
func (r *WorkoutRepository) DeleteAssignment(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workout_assignments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete workout assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete workout assignment rows: %w", err)
	}
	return affected > 0, nil
}

func insertExercises(ctx context.Context, tx *sqlx.Tx, templateID string, exercises []models.Exercise) error {
	const query = `INSERT INTO exercises (id, template_id, name, sets, reps, load, position)
        VALUES (:id, :template_id, :name, :sets, :reps, :load, :position)`
	for i := range exercises {
		if exercises[i].ID == "" {
			exercises[i].ID = uuid.NewString()
		}
		exercises[i].TemplateID = templateID
		exercises[i].Position = i + 1
		if _, err := tx.NamedExecContext(ctx, query, &exercises[i]); err != nil {
			return fmt.Errorf("create exercise: %w", err)
		}
	}
	return nil
}
