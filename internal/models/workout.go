package models

import "time"

// WorkoutTemplate is a reusable training plan created by an instructor.
type WorkoutTemplate struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Exercise is one ordered entry of a workout template.
type Exercise struct {
	ID         string `db:"id" json:"id"`
	TemplateID string `db:"template_id" json:"template_id"`
	Name       string `db:"name" json:"name"`
	Sets       int    `db:"sets" json:"sets"`
	Reps       int    `db:"reps" json:"reps"`
	Load       string `db:"load" json:"load,omitempty"`
	Position   int    `db:"position" json:"position"`
}

// WorkoutTemplateDetail bundles a template with its exercises.
type WorkoutTemplateDetail struct {
	WorkoutTemplate
	Exercises []Exercise `json:"exercises"`
}

// WorkoutAssignment links a template to a member.
type WorkoutAssignment struct {
	ID         string    `db:"id" json:"id"`
	TemplateID string    `db:"template_id" json:"template_id"`
	MemberID   string    `db:"member_id" json:"member_id"`
	AssignedBy string    `db:"assigned_by" json:"assigned_by"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}

// WorkoutAssignmentDetail enriches an assignment with template and member info.
type WorkoutAssignmentDetail struct {
	WorkoutAssignment
	TemplateName string `db:"template_name" json:"template_name"`
	MemberName   string `db:"member_name" json:"member_name"`
}
