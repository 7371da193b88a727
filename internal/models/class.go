package models

import "time"

// GymClass represents a scheduled class session owned by an instructor.
// Capacity is the enrollment ceiling, fixed at creation or update.
type GymClass struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	StartsAt     time.Time `db:"starts_at" json:"starts_at"`
	Capacity     int       `db:"capacity" json:"capacity"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GymClassDetail extends GymClass with instructor info and the current
// enrollment count.
type GymClassDetail struct {
	GymClass
	InstructorName string `db:"instructor_name" json:"instructor_name"`
	EnrolledCount  int    `db:"enrolled_count" json:"enrolled_count"`
}

// GymClassFilter defines filter criteria for listing classes.
type GymClassFilter struct {
	InstructorID string
	Search       string
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
