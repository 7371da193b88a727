package models

import "time"

// Enrollment captures a member's registration to a class session. The
// (member_id, class_id) pair is unique at the storage layer; that constraint
// is the hard guarantee behind duplicate rejection.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	MemberID  string    `db:"member_id" json:"member_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentDetail enriches Enrollment with member and class info.
type EnrollmentDetail struct {
	Enrollment
	MemberName    string    `db:"member_name" json:"member_name"`
	ClassName     string    `db:"class_name" json:"class_name"`
	ClassStartsAt time.Time `db:"class_starts_at" json:"class_starts_at"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	MemberID  string
	ClassID   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
